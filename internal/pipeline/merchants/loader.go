// Package merchants loads the merchant master and derives the join key used
// to match sales reports.
package merchants

import (
	"context"
	"fmt"

	"github.com/andresuchdata/platform-analytics/internal/domain"
	"github.com/andresuchdata/platform-analytics/internal/normalize"
	"github.com/andresuchdata/platform-analytics/internal/tabular"
	"github.com/rs/zerolog/log"
)

// Load reads every merchant master file and returns all merchants,
// whatever their account status. Unreadable files are logged and skipped.
func Load(ctx context.Context, paths []string) (*domain.MerchantTable, error) {
	table := &domain.MerchantTable{}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stat := domain.FileStat{Category: domain.CategoryMerchants, Path: path}
		t, err := tabular.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("merchant file unreadable, treating as empty")
			stat.Error = err.Error()
			table.Files = append(table.Files, stat)
			continue
		}

		stat.Sheet = t.Sheet
		stat.Rows = t.Len()
		table.Files = append(table.Files, stat)

		cols := normalize.Resolve(t.Headers, Rules)
		log.Info().
			Str("path", path).
			Str("sheet", t.Sheet).
			Int("rows", t.Len()).
			Int("columns", len(t.Headers)).
			Int("mapped", len(cols)).
			Msg("merchant file loaded")

		table.Records = append(table.Records, mapRows(t, cols, len(table.Records))...)
	}

	logStatusDistribution(table.Records)
	log.Info().Int("merchants", len(table.Records)).Int("keys", countKeys(table.Records)).Msg("merchants loaded")

	return table, nil
}

func mapRows(t *tabular.Table, cols normalize.Columns, offset int) []domain.Merchant {
	hasNames := cols.Has(FieldDBAName) || cols.Has(FieldLegalName)

	out := make([]domain.Merchant, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		m := domain.Merchant{
			MerchantID:       t.Value(i, cols.Index(FieldID)),
			LegalName:        t.Value(i, cols.Index(FieldLegalName)),
			DBAName:          t.Value(i, cols.Index(FieldDBAName)),
			AccountStatus:    t.Value(i, cols.Index(FieldAccountStatus)),
			RegistrationDate: normalize.ParseTimestamp(t.Value(i, cols.Index(FieldRegistrationDate))),
			MCCDescription:   t.Value(i, cols.Index(FieldMCCDescription)),
			PCICompliance:    t.Value(i, cols.Index(FieldPCICompliance)),
			MTDVolume:        normalize.ParseCurrencyPtr(t.Value(i, cols.Index(FieldMTDVolume))),
			LastMonthVolume:  normalize.ParseCurrencyPtr(t.Value(i, cols.Index(FieldLastMonthVolume))),
		}
		m.NameKey = NameKey(m, offset+i, hasNames)
		out = append(out, m)
	}
	return out
}

// NameKey prefers the DBA name, then the legal name. Rows with neither fall
// back to a positional key so they never join a sales report.
func NameKey(m domain.Merchant, index int, hasNames bool) string {
	if key := normalize.NameKey(m.DBAName); key != "" {
		return key
	}
	if key := normalize.NameKey(m.LegalName); key != "" {
		return key
	}
	if hasNames {
		log.Debug().Int("row", index).Msg("merchant without DBA or legal name")
	}
	return fmt.Sprintf("MERCHANT_%d", index)
}

func logStatusDistribution(records []domain.Merchant) {
	counts := make(map[string]int)
	for _, m := range records {
		if m.AccountStatus == "" {
			continue
		}
		counts[m.AccountStatus]++
	}
	if len(counts) == 0 {
		return
	}
	dict := log.Info()
	for status, n := range counts {
		dict = dict.Int(status, n)
	}
	dict.Msg("account status distribution")
}

func countKeys(records []domain.Merchant) int {
	keys := make(map[string]struct{}, len(records))
	for _, m := range records {
		keys[m.NameKey] = struct{}{}
	}
	return len(keys)
}
