// Package sales extracts one revenue figure per merchant from semi-structured
// sales report exports.
package sales

import (
	"path/filepath"
	"strings"

	"github.com/andresuchdata/platform-analytics/internal/domain"
	"github.com/andresuchdata/platform-analytics/internal/normalize"
	"github.com/andresuchdata/platform-analytics/internal/tabular"
	"github.com/shopspring/decimal"
)

const netSalesColumn = "Net Sales"

// SummaryLabels are the first-cell labels accepted in a report's summary
// block, in order of preference.
var SummaryLabels = []string{"Net Sales", "Gross Sales"}

type Options struct {
	// FileMarker separates the merchant name from the rest of the file name.
	FileMarker string
	// HeaderScanLines bounds the search for the line-item header.
	HeaderScanLines int
	// SummaryScanRows bounds the search for a labelled total.
	SummaryScanRows int
}

func DefaultOptions() Options {
	return Options{
		FileMarker:      "-Revenue Item Sales",
		HeaderScanLines: 200,
		SummaryScanRows: 20,
	}
}

// MerchantKey derives the join key from a report file name: the part before
// the marker, trimmed and uppercased. Without the marker the whole base name
// minus its extension is used.
func MerchantKey(path, marker string) string {
	base := filepath.Base(path)
	if marker != "" {
		if idx := strings.Index(base, marker); idx >= 0 {
			return normalize.NameKey(base[:idx])
		}
	}
	return normalize.NameKey(strings.TrimSuffix(base, filepath.Ext(base)))
}

// ParseReport extracts the net sales figure of one report.
//
// The line-item layout is tried first: the first line within
// HeaderScanLines that mentions a name column and "net sales" starts a CSV
// whose Net Sales column is summed. Reports without such a header fall back
// to the summary block, a labelled two-cell row within SummaryScanRows.
// ok is false when neither layout yields a figure.
func ParseReport(data []byte, opts Options) (total decimal.Decimal, method domain.SalesMethod, ok bool) {
	text := strings.ToValidUTF8(string(data), "")
	text = strings.TrimPrefix(text, "\ufeff")

	if total, ok = parseItemDetail(text, opts.HeaderScanLines); ok {
		return total, domain.SalesMethodItemDetail, true
	}
	if total, ok = parseSummaryBlock(text, opts.SummaryScanRows); ok {
		return total, domain.SalesMethodSummaryBlock, true
	}
	return decimal.Zero, "", false
}

func parseItemDetail(text string, scanLines int) (decimal.Decimal, bool) {
	lines := strings.SplitAfter(text, "\n")

	header := -1
	for i, ln := range lines {
		if scanLines > 0 && i >= scanLines {
			break
		}
		low := strings.ToLower(ln)
		if strings.Contains(low, "name") && strings.Contains(low, "net sales") && strings.Contains(ln, ",") {
			header = i
			break
		}
	}
	if header < 0 {
		return decimal.Zero, false
	}

	t, err := tabular.ParseCSVLenient([]byte(strings.Join(lines[header:], "")))
	if err != nil {
		return decimal.Zero, false
	}

	col := -1
	for i, h := range t.Headers {
		if normalize.StandardizeLabel(h) == netSalesColumn {
			col = i
			break
		}
	}
	if col < 0 {
		return decimal.Zero, false
	}

	sum := decimal.Zero
	for i := 0; i < t.Len(); i++ {
		if v, ok := normalize.ParseDecimal(t.Value(i, col)); ok {
			sum = sum.Add(v)
		}
	}
	return sum, true
}

func parseSummaryBlock(text string, scanRows int) (decimal.Decimal, bool) {
	if scanRows <= 0 {
		scanRows = 20
	}
	records, err := tabular.Records([]byte(text), scanRows)
	if err != nil && len(records) == 0 {
		return decimal.Zero, false
	}

	for _, label := range SummaryLabels {
		for _, row := range records {
			if len(row) < 2 || strings.TrimSpace(row[0]) != label {
				continue
			}
			if v, ok := normalize.ParseDecimal(row[1]); ok {
				return v, true
			}
		}
	}
	return decimal.Zero, false
}
