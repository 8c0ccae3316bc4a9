package normalize

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// moneyStrip matches everything that cannot be part of a plain number.
var moneyStrip = regexp.MustCompile(`[^\d.\-]`)

// ParseDecimal strips currency formatting ("$1,234.50", "USD 12") and
// parses what is left. An empty remainder, a lone "." or anything decimal
// rejects ("1.2.3", "--5") is reported as missing.
func ParseDecimal(raw string) (decimal.Decimal, bool) {
	cleaned := moneyStrip.ReplaceAllString(raw, "")
	if cleaned == "" || cleaned == "." {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseCurrency is ParseDecimal converted to float64.
func ParseCurrency(raw string) (float64, bool) {
	d, ok := ParseDecimal(raw)
	if !ok {
		return 0, false
	}
	return d.InexactFloat64(), true
}

// ParseCurrencyPtr returns nil for a missing value.
func ParseCurrencyPtr(raw string) *float64 {
	v, ok := ParseCurrency(raw)
	if !ok {
		return nil
	}
	return &v
}
