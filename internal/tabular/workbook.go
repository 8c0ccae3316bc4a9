package tabular

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shakinm/xlsReader/xls"
	"github.com/shakinm/xlsReader/xls/structure"
	"github.com/xuri/excelize/v2"
)

type sheetRows struct {
	name string
	rows [][]string
}

// footprint is rows times the widest row, the measure used to tell the data
// sheet apart from notes and legend sheets.
func (s sheetRows) footprint() int {
	width := 0
	for _, r := range s.rows {
		if len(r) > width {
			width = len(r)
		}
	}
	return len(s.rows) * width
}

// largestSheet picks the sheet with the biggest footprint; ties keep the
// earlier sheet.
func largestSheet(sheets []sheetRows) (sheetRows, bool) {
	if len(sheets) == 0 {
		return sheetRows{}, false
	}
	best := sheets[0]
	for _, s := range sheets[1:] {
		if s.footprint() > best.footprint() {
			best = s
		}
	}
	return best, true
}

func readXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx file %s: %w", path, err)
	}
	defer f.Close()

	dates := newDateCells(f)
	var sheets []sheetRows
	for _, name := range f.GetSheetList() {
		// Raw values keep numbers unformatted; date cells are rendered back
		// from their serial below.
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			log.Warn().Err(err).Str("path", path).Str("sheet", name).Msg("unreadable sheet, skipping")
			continue
		}
		dates.render(name, rows)
		sheets = append(sheets, sheetRows{name: name, rows: rows})
	}

	return pickSheet(path, sheets)
}

func readXLS(path string) (*Table, error) {
	workbook, err := xls.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xls file %s: %w", path, err)
	}

	var sheets []sheetRows
	for i := 0; i < workbook.GetNumberSheets(); i++ {
		sheet, err := workbook.GetSheet(i)
		if err != nil || sheet == nil {
			continue
		}

		sheets = append(sheets, sheetRows{name: sheet.GetName(), rows: xlsRows(sheet)})
	}

	return pickSheet(path, sheets)
}

// xlsRow and xlsSheet are the parts of the xlsReader types the reader needs.
type xlsRow interface {
	GetCols() []structure.CellData
}

type xlsSheet interface {
	GetNumberRows() int
	GetRow(int) (xlsRow, error)
}

type xlsSheetAdapter struct {
	sheet *xls.Sheet
}

func (a xlsSheetAdapter) GetNumberRows() int {
	return a.sheet.GetNumberRows()
}

func (a xlsSheetAdapter) GetRow(i int) (xlsRow, error) {
	row, err := a.sheet.GetRow(i)
	if err != nil || row == nil {
		return nil, err
	}
	return row, nil
}

// xlsRows copies the rows of sheet. GetNumberRows already counts one past
// the last row index.
func xlsRows(sheet *xls.Sheet) [][]string {
	return readXLSRows(xlsSheetAdapter{sheet: sheet})
}

func readXLSRows(sheet xlsSheet) [][]string {
	var rows [][]string
	for r := 0; r < sheet.GetNumberRows(); r++ {
		row, err := sheet.GetRow(r)
		if err != nil || row == nil {
			continue
		}
		var cells []string
		for _, col := range row.GetCols() {
			if col == nil {
				cells = append(cells, "")
				continue
			}
			cells = append(cells, col.GetString())
		}
		rows = append(rows, cells)
	}
	return rows
}

func pickSheet(path string, sheets []sheetRows) (*Table, error) {
	best, ok := largestSheet(sheets)
	if !ok {
		return nil, fmt.Errorf("workbook %s has no readable sheets", path)
	}
	if len(sheets) > 1 {
		log.Debug().Str("path", path).Str("sheet", best.name).Int("sheets", len(sheets)).Msg("selected largest sheet")
	}

	t := fromRows(best.rows)
	t.Sheet = best.name
	return t, nil
}
