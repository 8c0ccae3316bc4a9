package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseCSV parses data strictly first. When that fails it retries with lazy
// quoting, dropping rows that carry more fields than the header and rows the
// reader cannot tokenize. An error is returned only when both passes fail.
func ParseCSV(data []byte) (*Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	t, strictErr := parseStrict(data)
	if strictErr == nil {
		return t, nil
	}

	log.Debug().Err(strictErr).Msg("strict csv parse failed, retrying leniently")

	t, err := ParseCSVLenient(data)
	if err != nil {
		return nil, fmt.Errorf("csv unreadable (strict: %v): %w", strictErr, err)
	}
	return t, nil
}

func parseStrict(data []byte) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	t := fromRows(records)
	for i, row := range t.Rows {
		if len(row) > len(t.Headers) {
			return nil, fmt.Errorf("row %d: expected %d fields, saw %d", i+2, len(t.Headers), len(row))
		}
	}
	return t, nil
}

// ParseCSVLenient is the retry pass of ParseCSV.
func ParseCSVLenient(data []byte) (*Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	records, skipped, err := readLenient(data, -1)
	if err != nil {
		return nil, err
	}

	t := fromRows(records)
	kept := t.Rows[:0]
	for _, row := range t.Rows {
		if len(row) > len(t.Headers) {
			skipped++
			continue
		}
		kept = append(kept, row)
	}
	t.Rows = kept

	if skipped > 0 {
		log.Debug().Int("skipped", skipped).Msg("lenient csv parse dropped malformed rows")
	}
	return t, nil
}

// Records returns up to limit raw records (limit < 0 reads everything)
// without treating any of them as a header.
func Records(data []byte, limit int) ([][]string, error) {
	records, _, err := readLenient(bytes.TrimPrefix(data, utf8BOM), limit)
	return records, err
}

func readLenient(data []byte, limit int) ([][]string, int, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var (
		records [][]string
		skipped int
	)
	for limit < 0 || len(records) < limit {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				skipped++
				continue
			}
			return nil, skipped, err
		}
		records = append(records, record)
	}
	return records, skipped, nil
}
