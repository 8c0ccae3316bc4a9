package tabular

import (
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// cellTimeLayout is how date cells are rendered; normalize.ParseTimestamp
// accepts it.
const cellTimeLayout = "2006-01-02 15:04:05"

// dateCells renders date-formatted numeric cells of a workbook read with raw
// values. Number formats are resolved once per style id.
type dateCells struct {
	f        *excelize.File
	date1904 bool
	byStyle  map[int]bool
}

func newDateCells(f *excelize.File) *dateCells {
	d := &dateCells{f: f, byStyle: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		d.date1904 = *props.Date1904
	}
	return d
}

// render rewrites in place every numeric cell of rows whose style is a date
// format. rows must be the sheet's rows starting at A1.
func (d *dateCells) render(sheet string, rows [][]string) {
	for r, row := range rows {
		for c, v := range row {
			serial, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil || serial <= 0 {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil || !d.isDate(sheet, cell) {
				continue
			}
			t, err := excelize.ExcelDateToTime(serial, d.date1904)
			if err != nil {
				continue
			}
			row[c] = t.Format(cellTimeLayout)
		}
	}
}

func (d *dateCells) isDate(sheet, cell string) bool {
	styleID, err := d.f.GetCellStyle(sheet, cell)
	if err != nil {
		return false
	}
	if known, ok := d.byStyle[styleID]; ok {
		return known
	}

	isDate := false
	if style, err := d.f.GetStyle(styleID); err == nil && style != nil {
		switch {
		case isDateNumFmt(style.NumFmt):
			isDate = true
		case style.CustomNumFmt != nil:
			isDate = isDateFormatCode(*style.CustomNumFmt)
		}
	}
	d.byStyle[styleID] = isDate
	return isDate
}

// isDateNumFmt reports whether id is one of the built-in date or time
// formats, including the locale-specific ones.
func isDateNumFmt(id int) bool {
	return (id >= 14 && id <= 22) ||
		(id >= 27 && id <= 36) ||
		(id >= 45 && id <= 47) ||
		(id >= 50 && id <= 58)
}

// isDateFormatCode looks for date or time tokens in a custom format code,
// ignoring quoted literals, escaped characters and bracketed sections such
// as colors and locales.
func isDateFormatCode(code string) bool {
	var b strings.Builder
	inQuote, inBracket := false, false
	for i := 0; i < len(code); i++ {
		ch := code[i]
		switch {
		case inQuote:
			if ch == '"' {
				inQuote = false
			}
		case inBracket:
			if ch == ']' {
				inBracket = false
			}
		case ch == '"':
			inQuote = true
		case ch == '[':
			inBracket = true
		case ch == '\\' || ch == '_' || ch == '*':
			i++
		default:
			b.WriteByte(ch)
		}
	}
	cleaned := strings.ToLower(b.String())
	if cleaned == "general" {
		return false
	}
	return strings.ContainsAny(cleaned, "dmyhs")
}
