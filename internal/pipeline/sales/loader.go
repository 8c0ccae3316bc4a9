package sales

import (
	"context"
	"os"

	"github.com/andresuchdata/platform-analytics/internal/domain"
	"github.com/rs/zerolog/log"
)

// Load parses every sales report. Reports without an extractable figure are
// absent from the result, which keeps "no data" distinct from zero revenue.
func Load(ctx context.Context, paths []string, opts Options) (*domain.SalesTable, error) {
	table := &domain.SalesTable{}
	total := 0.0

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stat := domain.FileStat{Category: domain.CategorySales, Path: path}
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("sales report unreadable, skipping")
			stat.Error = err.Error()
			table.Files = append(table.Files, stat)
			continue
		}

		figure, method, ok := ParseReport(data, opts)
		if !ok {
			log.Warn().Str("path", path).Msg("no net sales figure found in report")
			stat.Error = "no figure"
			table.Files = append(table.Files, stat)
			continue
		}

		key := MerchantKey(path, opts.FileMarker)
		amount := figure.InexactFloat64()
		total += amount

		stat.Rows = 1
		stat.Method = method
		table.Files = append(table.Files, stat)
		table.Records = append(table.Records, domain.SalesRecord{
			NameKey:         key,
			NetSales60dItem: amount,
			SourceFile:      path,
			Method:          method,
		})

		log.Info().Str("merchant", key).Str("method", string(method)).Float64("net_sales", amount).Msg("sales report parsed")
	}

	log.Info().Int("reports", len(table.Records)).Float64("total", total).Msg("sales loaded")
	return table, nil
}
