package tabular

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shakinm/xlsReader/xls/structure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, sheets map[string][][]interface{}, order []string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadXLSXPicksLargestSheet(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Notes": {
			{"Exported by finance"},
		},
		"Customers": {
			{"Customer ID", "Email", "Phone"},
			{"1", "a@example.com", "555-0100"},
			{"2", "b@example.com", "555-0101"},
		},
	}, []string{"Notes", "Customers"})

	table, err := ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "Customers", table.Sheet)
	assert.Equal(t, []string{"Customer ID", "Email", "Phone"}, table.Headers)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "b@example.com", table.Value(1, 1))
}

func TestLargestSheetTieKeepsFirst(t *testing.T) {
	sheets := []sheetRows{
		{name: "first", rows: [][]string{{"a", "b"}}},
		{name: "second", rows: [][]string{{"a"}, {"b"}}},
	}

	best, ok := largestSheet(sheets)
	require.True(t, ok)
	assert.Equal(t, "first", best.name)

	_, ok = largestSheet(nil)
	assert.False(t, ok)
}

func TestPickSheetEmptyWorkbook(t *testing.T) {
	_, err := pickSheet("empty.xlsx", nil)
	assert.Error(t, err)
}

func TestReadXLSXRendersDateCells(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Customers": {
			{"Customer ID", "Customer Since", "Spend"},
			{"1", time.Date(2025, 8, 3, 9, 15, 0, 0, time.UTC), 1250.5},
			{"2", time.Date(2025, 8, 5, 0, 0, 0, 0, time.UTC), 80},
		},
	}, []string{"Customers"})

	table, err := ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	assert.Equal(t, "2025-08-03 09:15:00", table.Value(0, 1))
	assert.Equal(t, "2025-08-05 00:00:00", table.Value(1, 1))
	assert.Equal(t, "1250.5", table.Value(0, 2), "plain numbers stay raw")
	assert.Equal(t, "80", table.Value(1, 2))
}

func TestIsDateFormatCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{code: "yyyy-mm-dd", want: true},
		{code: "m/d/yy h:mm", want: true},
		{code: "[$-409]d-mmm-yy;@", want: true},
		{code: "[h]:mm:ss", want: true},
		{code: "General", want: false},
		{code: "#,##0.00", want: false},
		{code: `"$"#,##0.00_);[Red]("$"#,##0.00)`, want: false},
		{code: `0.00" days"`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, isDateFormatCode(tt.code))
		})
	}
}

func TestIsDateNumFmt(t *testing.T) {
	assert.True(t, isDateNumFmt(14))
	assert.True(t, isDateNumFmt(22))
	assert.True(t, isDateNumFmt(47))
	assert.False(t, isDateNumFmt(0))
	assert.False(t, isDateNumFmt(4))
	assert.False(t, isDateNumFmt(44))
}

type textCell string

func (c textCell) GetString() string   { return string(c) }
func (c textCell) GetFloat64() float64 { return 0 }
func (c textCell) GetInt64() int64     { return 0 }
func (c textCell) GetXFIndex() int     { return 0 }
func (c textCell) GetType() string     { return "text" }

type fakeXLSRow []structure.CellData

func (r fakeXLSRow) GetCols() []structure.CellData { return r }

// fakeXLSSheet mimics xlsReader: GetNumberRows is the highest row index
// plus one, and missing rows come back empty rather than as errors.
type fakeXLSSheet struct {
	rows  map[int]fakeXLSRow
	reads []int
}

func (s *fakeXLSSheet) GetNumberRows() int {
	highest := 0
	for i := range s.rows {
		if i > highest {
			highest = i
		}
	}
	return highest + 1
}

func (s *fakeXLSSheet) GetRow(i int) (xlsRow, error) {
	s.reads = append(s.reads, i)
	if row, ok := s.rows[i]; ok {
		return row, nil
	}
	return fakeXLSRow{}, nil
}

func TestReadXLSRowsStopsAtLastRow(t *testing.T) {
	sheet := &fakeXLSSheet{rows: map[int]fakeXLSRow{
		0: {textCell("Customer ID"), textCell("Email")},
		1: {textCell("1"), nil},
	}}

	rows := readXLSRows(sheet)

	assert.Equal(t, []int{0, 1}, sheet.reads)
	assert.Equal(t, [][]string{{"Customer ID", "Email"}, {"1", ""}}, rows)
}
