// Package tabular reads CSV and spreadsheet exports into a header plus rows
// shape that the loaders map onto canonical columns.
package tabular

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/platform-analytics/internal/normalize"
)

// Table is a fully materialized sheet. Rows may be shorter than Headers.
type Table struct {
	Source  string
	Sheet   string
	Headers []string
	Rows    [][]string
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Width returns the widest of the header and the data rows.
func (t *Table) Width() int {
	if t == nil {
		return 0
	}
	w := len(t.Headers)
	for _, r := range t.Rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// Value returns the trimmed cell at row, col. Missing cells and col < 0
// yield "".
func (t *Table) Value(row, col int) string {
	if t == nil || col < 0 || row < 0 || row >= len(t.Rows) {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}

// ReadFile loads path according to its extension. Workbooks resolve to their
// largest sheet; everything else is read as CSV with a lenient retry.
func ReadFile(path string) (*Table, error) {
	var (
		t   *Table
		err error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		t, err = readXLSX(path)
	case ".xls":
		t, err = readXLS(path)
	default:
		var data []byte
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		t, err = ParseCSV(data)
	}
	if err != nil {
		return nil, err
	}

	t.Source = path
	t.Headers = normalize.StandardizeLabels(t.Headers)
	return t, nil
}

// fromRows splits the first non-empty row off as the header.
func fromRows(rows [][]string) *Table {
	t := &Table{}
	for len(rows) > 0 && blank(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return t
	}
	t.Headers = rows[0]
	for _, r := range rows[1:] {
		if blank(r) {
			continue
		}
		t.Rows = append(t.Rows, r)
	}
	return t
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
