package domain

// Category groups input files by the loader that consumes them.
type Category string

const (
	CategoryMerchants Category = "merchants"
	CategoryCustomers Category = "customers"
	CategorySales     Category = "sales"
)

var categoryLabels = map[Category]string{
	CategoryMerchants: "Merchants",
	CategoryCustomers: "Customers",
	CategorySales:     "Sales",
}

// Categories lists every category in pipeline order.
func Categories() []Category {
	return []Category{CategoryMerchants, CategoryCustomers, CategorySales}
}

func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}
