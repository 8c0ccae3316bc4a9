// internal/domain/models.go
package domain

import (
	"strings"
	"time"
)

// Customer is one deduplicated customer row.
type Customer struct {
	CustomerID     string     `json:"customer_id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	CustomerSince  *time.Time `json:"customer_since"`
	MarketingOptIn bool       `json:"marketing_opt_in"`
	Active         bool       `json:"active_flag"`
}

// HasIdentity reports whether the row carries a customer id.
func (c Customer) HasIdentity() bool {
	return strings.TrimSpace(c.CustomerID) != ""
}

// CustomerTable is the output of the customer loader.
type CustomerTable struct {
	Records []Customer
	Files   []FileStat
	// RawRows counts rows read before deduplication.
	RawRows int
	// MarketingColumn is false when no file carried a consent column.
	MarketingColumn bool
}

// Merchant is one row of the merchant master.
type Merchant struct {
	MerchantID       string     `json:"merchant_id"`
	LegalName        string     `json:"legal_name"`
	DBAName          string     `json:"dba_name"`
	NameKey          string     `json:"merchant_name_key"`
	AccountStatus    string     `json:"account_status"`
	RegistrationDate *time.Time `json:"registration_date"`
	MCCDescription   string     `json:"mcc_description"`
	PCICompliance    string     `json:"pci_compliance"`
	MTDVolume        *float64   `json:"mtd_volume"`
	LastMonthVolume  *float64   `json:"last_month_volume"`
}

// DisplayName prefers the DBA name over the legal name.
func (m Merchant) DisplayName() string {
	if name := strings.TrimSpace(m.DBAName); name != "" {
		return name
	}
	return strings.TrimSpace(m.LegalName)
}

// MerchantTable is the output of the merchant loader.
type MerchantTable struct {
	Records []Merchant
	Files   []FileStat
}

type SalesMethod string

const (
	// SalesMethodItemDetail sums the Net Sales column of a line-item report.
	SalesMethodItemDetail SalesMethod = "item_detail"
	// SalesMethodSummaryBlock reads a labelled total from the report preamble.
	SalesMethodSummaryBlock SalesMethod = "summary_block"
)

// SalesRecord is the figure extracted from one sales report file.
type SalesRecord struct {
	NameKey         string      `json:"merchant_name_key"`
	NetSales60dItem float64     `json:"net_sales_60d_item"`
	SourceFile      string      `json:"source_file"`
	Method          SalesMethod `json:"method"`
}

// SalesTable is the output of the sales loader.
type SalesTable struct {
	Records []SalesRecord
	Files   []FileStat
}

// ByKey sums the parsed figures per merchant name key.
func (t *SalesTable) ByKey() map[string]float64 {
	out := make(map[string]float64)
	if t == nil {
		return out
	}
	for _, r := range t.Records {
		out[r.NameKey] += r.NetSales60dItem
	}
	return out
}

// NaiveProjection extrapolates the current run rate. It is not a forecast.
type NaiveProjection struct {
	Next60Days         float64 `json:"next_60_days"`
	SamePeriodNextYear float64 `json:"same_period_next_year"`
	GrowthFactor       float64 `json:"growth_factor"`
}

// EnrichedMerchant is a merchant joined with its sales figure and the
// derived estimates.
type EnrichedMerchant struct {
	Merchant
	NetSales60dItem *float64        `json:"net_sales_60d_item"`
	FallbackVolume  float64         `json:"fallback_volume"`
	NetSales60d     float64         `json:"net_sales_60d"`
	Active          bool            `json:"active_flag"`
	DailyEst        float64         `json:"daily_est"`
	WeeklyEst       float64         `json:"weekly_est"`
	MonthlyEst      float64         `json:"monthly_est"`
	Projection      NaiveProjection `json:"naive_projection"`
}

// HasItemData reports whether a sales report matched this merchant.
func (m EnrichedMerchant) HasItemData() bool {
	return m.NetSales60dItem != nil
}

type TopMerchant struct {
	Name        string  `json:"name"`
	LegalName   string  `json:"legal_name"`
	DBAName     string  `json:"dba_name"`
	NetSales60d float64 `json:"net_sales_60d"`
	DailyEst    float64 `json:"daily_est"`
	WeeklyEst   float64 `json:"weekly_est"`
	MonthlyEst  float64 `json:"monthly_est"`
}

type TopCustomer struct {
	CustomerID     string     `json:"customer_id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	CustomerSince  *time.Time `json:"customer_since"`
	MarketingOptIn bool       `json:"marketing_opt_in"`
	Score          int        `json:"score"`
}

// Rates are the summary ratios shown next to the counts. A rate with an
// empty denominator is zero.
type Rates struct {
	CustomerActiveRate       float64 `json:"customer_active_rate"`
	MarketingOptInRate       float64 `json:"marketing_opt_in_rate"`
	MerchantActiveRate       float64 `json:"merchant_active_rate"`
	RevenuePerActiveMerchant float64 `json:"revenue_per_active_merchant"`
}

// Metrics is the platform-level KPI set of one run.
type Metrics struct {
	MerchantsTotal        int `json:"merchants_total"`
	MerchantsActive       int `json:"merchants_active"`
	MerchantsInactive     int `json:"merchants_inactive"`
	MerchantsWithItemData int `json:"merchants_with_item_data"`

	CustomersTotal     int `json:"customers_total"`
	CustomersActive    int `json:"customers_active"`
	CustomersInactive  int `json:"customers_inactive"`
	CustomersMarketing int `json:"customers_marketing"`

	PlatformTotal60d float64 `json:"platform_total_60d"`
	PlatformDaily    float64 `json:"platform_daily"`
	PlatformWeekly   float64 `json:"platform_weekly"`
	PlatformMonthly  float64 `json:"platform_monthly"`

	TopMerchants []TopMerchant   `json:"top_merchants"`
	TopCustomers []TopCustomer   `json:"top_customers"`
	Projection   NaiveProjection `json:"naive_projection"`
	Rates        Rates           `json:"rates"`
}

// FileStat records what a loader got out of one input file.
type FileStat struct {
	Category Category    `json:"category"`
	Path     string      `json:"path"`
	Sheet    string      `json:"sheet,omitempty"`
	Rows     int         `json:"rows"`
	Method   SalesMethod `json:"method,omitempty"`
	Error    string      `json:"error,omitempty"`
}

type DataLoaded struct {
	Merchants       int `json:"merchants"`
	Customers       int `json:"customers"`
	SalesAggregates int `json:"sales_aggregates"`
}

type Coverage struct {
	ItemData int `json:"merchants_with_item_data"`
	Fallback int `json:"merchants_using_fallback"`
}

type Diagnostics struct {
	RunDate         time.Time        `json:"run_date"`
	FilesDiscovered map[Category]int `json:"files_discovered"`
	DataLoaded      DataLoaded       `json:"data_loaded"`
	Coverage        Coverage         `json:"coverage"`
	Files           []FileStat       `json:"files"`
}

// Result is everything one pipeline run hands to its consumers.
type Result struct {
	Customers   []Customer         `json:"customers"`
	Merchants   []EnrichedMerchant `json:"merchants_enriched"`
	Metrics     *Metrics           `json:"metrics"`
	Diagnostics Diagnostics        `json:"diagnostics"`
	Diff        []string           `json:"diff"`
}
