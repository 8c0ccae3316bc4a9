// Package customers loads customer exports into one deduplicated table.
package customers

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/andresuchdata/platform-analytics/internal/domain"
	"github.com/andresuchdata/platform-analytics/internal/normalize"
	"github.com/andresuchdata/platform-analytics/internal/tabular"
	"github.com/rs/zerolog/log"
)

// Options carries the reference date for the activity window.
type Options struct {
	Today      time.Time
	ActiveDays int
}

// Load reads every customer export, maps its columns, deduplicates the
// combined rows and flags recent registrations as active. A file that cannot
// be read contributes nothing; only context cancellation returns an error.
func Load(ctx context.Context, paths []string, opts Options) (*domain.CustomerTable, error) {
	if opts.ActiveDays <= 0 {
		opts.ActiveDays = 30
	}

	table := &domain.CustomerTable{}
	var rows []domain.Customer

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stat := domain.FileStat{Category: domain.CategoryCustomers, Path: path}
		t, err := tabular.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("customer file unreadable, treating as empty")
			stat.Error = err.Error()
			table.Files = append(table.Files, stat)
			continue
		}

		stat.Sheet = t.Sheet
		stat.Rows = t.Len()
		table.Files = append(table.Files, stat)
		if t.Len() == 0 {
			log.Warn().Str("path", path).Msg("customer file has no rows")
			continue
		}

		cols := normalize.Resolve(t.Headers, Rules)
		if !cols.Has(FieldID) && !cols.Has(FieldEmail) && !cols.Has(FieldPhone) {
			log.Warn().Str("path", path).Strs("headers", t.Headers).Msg("no identity or contact columns recognised")
		}
		if cols.Has(FieldMarketing) {
			table.MarketingColumn = true
		}

		rows = append(rows, mapRows(t, cols)...)
		log.Info().Str("path", path).Int("rows", t.Len()).Msg("customer file loaded")
	}

	table.RawRows = len(rows)
	table.Records = Dedup(rows)
	for i := range table.Records {
		table.Records[i].Active = IsActive(table.Records[i].CustomerSince, opts.Today, opts.ActiveDays)
	}

	if !table.MarketingColumn && len(rows) > 0 {
		log.Info().Msg("no marketing column found, defaulting opt-in to false")
	}
	log.Info().
		Int("files", len(paths)).
		Int("raw_rows", table.RawRows).
		Int("customers", len(table.Records)).
		Msg("customers loaded")

	return table, nil
}

func mapRows(t *tabular.Table, cols normalize.Columns) []domain.Customer {
	out := make([]domain.Customer, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		c := domain.Customer{
			CustomerID: t.Value(i, cols.Index(FieldID)),
			FirstName:  t.Value(i, cols.Index(FieldFirstName)),
			LastName:   t.Value(i, cols.Index(FieldLastName)),
			Email:      t.Value(i, cols.Index(FieldEmail)),
			Phone:      t.Value(i, cols.Index(FieldPhone)),
		}
		c.CustomerSince = normalize.ParseTimestamp(t.Value(i, cols.Index(FieldSince)))
		if cols.Has(FieldMarketing) {
			c.MarketingOptIn = normalize.IsTruthy(t.Value(i, cols.Index(FieldMarketing)))
		}
		out = append(out, c)
	}
	return out
}

// IsActive reports whether since lies within the activity window ending at
// today: the age in whole days (floored) must be in [0, days).
func IsActive(since *time.Time, today time.Time, days int) bool {
	if since == nil {
		return false
	}
	age := int(math.Floor(today.Sub(*since).Hours() / 24))
	return age >= 0 && age < days
}

// ContactKey is the fallback identity of a customer without an id.
func ContactKey(c domain.Customer) string {
	return normalize.NormalizeEmail(c.Email) + "|" + normalize.DigitsOnly(c.Phone)
}

func identity(c domain.Customer) string {
	return strings.TrimSpace(c.CustomerID)
}
