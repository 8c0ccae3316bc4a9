// Package export writes the customer and merchant tables as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/andresuchdata/platform-analytics/internal/domain"
)

const (
	CustomersFile = "customers_export.csv"
	MerchantsFile = "merchants_export.csv"

	timestampLayout = "2006-01-02 15:04:05"
)

var customerColumns = []string{
	"customer_id", "first_name", "last_name", "email", "phone",
	"customer_since", "active_flag", "marketing_opt_in",
}

var merchantColumns = []string{
	"merchant_id", "legal_name", "dba_name", "merchant_name_key", "account_status",
	"registration_date", "mcc_description", "pci_compliance", "mtd_volume",
	"last_month_volume", "net_sales_60d_item", "net_sales_60d", "active_flag",
	"daily_est", "weekly_est", "monthly_est",
}

// WriteCustomers writes one row per customer. Missing values are empty cells.
func WriteCustomers(w io.Writer, customers []domain.Customer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(customerColumns); err != nil {
		return err
	}
	for _, c := range customers {
		if err := cw.Write([]string{
			c.CustomerID,
			c.FirstName,
			c.LastName,
			c.Email,
			c.Phone,
			formatTime(c.CustomerSince),
			strconv.FormatBool(c.Active),
			strconv.FormatBool(c.MarketingOptIn),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMerchants writes one row per enriched merchant.
func WriteMerchants(w io.Writer, merchants []domain.EnrichedMerchant) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(merchantColumns); err != nil {
		return err
	}
	for _, m := range merchants {
		if err := cw.Write([]string{
			m.MerchantID,
			m.LegalName,
			m.DBAName,
			m.NameKey,
			m.AccountStatus,
			formatTime(m.RegistrationDate),
			m.MCCDescription,
			m.PCICompliance,
			formatOptional(m.MTDVolume),
			formatOptional(m.LastMonthVolume),
			formatOptional(m.NetSales60dItem),
			formatFloat(m.NetSales60d),
			strconv.FormatBool(m.Active),
			formatFloat(m.DailyEst),
			formatFloat(m.WeeklyEst),
			formatFloat(m.MonthlyEst),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFiles writes both exports into dir and returns their paths.
func WriteFiles(dir string, result *domain.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir %s: %w", dir, err)
	}

	customersPath := filepath.Join(dir, CustomersFile)
	if err := writeFile(customersPath, func(w io.Writer) error {
		return WriteCustomers(w, result.Customers)
	}); err != nil {
		return nil, err
	}

	merchantsPath := filepath.Join(dir, MerchantsFile)
	if err := writeFile(merchantsPath, func(w io.Writer) error {
		return WriteMerchants(w, result.Merchants)
	}); err != nil {
		return nil, err
	}

	return []string{customersPath, merchantsPath}, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(timestampLayout)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
