// Package analytics joins loaded tables, derives per-merchant figures and
// platform metrics, and checks the invariants a published run must hold.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/andresuchdata/platform-analytics/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	windowDays = 60.0
	weekDays   = 7.0
)

// Options configures enrichment and validation.
type Options struct {
	Today        time.Time
	TopN         int
	GrowthFactor float64
	MinMerchants int
}

func DefaultOptions(today time.Time) Options {
	return Options{
		Today:        today,
		TopN:         3,
		GrowthFactor: 1.10,
		MinMerchants: 700,
	}
}

// Enrich left-joins sales figures onto merchants and computes metrics.
//
// The 60-day figure of a merchant is its item-level sales figure when a
// report matched, otherwise MTD plus last-month volume. The two sources are
// never added together. Activity and the time-window estimates derive from
// that coalesced figure.
func Enrich(merchants *domain.MerchantTable, customers *domain.CustomerTable, sales *domain.SalesTable, opts Options) ([]domain.EnrichedMerchant, *domain.Metrics) {
	if opts.TopN <= 0 {
		opts.TopN = 3
	}
	if opts.GrowthFactor <= 0 {
		opts.GrowthFactor = 1.10
	}

	var records []domain.Merchant
	if merchants != nil {
		records = merchants.Records
	}
	byKey := sales.ByKey()

	enriched := make([]domain.EnrichedMerchant, len(records))
	var itemTotal, fallbackTotal float64
	for i, m := range records {
		e := domain.EnrichedMerchant{Merchant: m}
		e.FallbackVolume = valueOrZero(m.MTDVolume) + valueOrZero(m.LastMonthVolume)
		fallbackTotal += e.FallbackVolume

		if figure, ok := byKey[m.NameKey]; ok {
			item := figure
			e.NetSales60dItem = &item
			e.NetSales60d = item
			itemTotal += item
		} else {
			e.NetSales60d = e.FallbackVolume
		}

		applyWindows(&e, opts.GrowthFactor)
		enriched[i] = e
	}

	metrics := computeMetrics(enriched, customers, opts)

	log.Info().
		Int("merchants", metrics.MerchantsTotal).
		Int("with_item_data", metrics.MerchantsWithItemData).
		Float64("item_total", itemTotal).
		Float64("fallback_total", fallbackTotal).
		Float64("coalesced_total", metrics.PlatformTotal60d).
		Msg("merchants enriched")

	return enriched, metrics
}

func applyWindows(e *domain.EnrichedMerchant, growth float64) {
	f := e.NetSales60d
	e.Active = f > 0
	e.DailyEst = f / windowDays
	e.WeeklyEst = f * weekDays / windowDays
	e.MonthlyEst = f / 2.0
	e.Projection = Project(e.DailyEst, growth)
}

// Project is the naive run-rate extrapolation: the next 60 days repeat the
// current daily average, and the same period next year scales that by the
// growth factor.
func Project(daily, growth float64) domain.NaiveProjection {
	next := daily * windowDays
	return domain.NaiveProjection{
		Next60Days:         next,
		SamePeriodNextYear: next * growth,
		GrowthFactor:       growth,
	}
}

func computeMetrics(enriched []domain.EnrichedMerchant, customers *domain.CustomerTable, opts Options) *domain.Metrics {
	m := &domain.Metrics{}

	var total float64
	for _, e := range enriched {
		total += e.NetSales60d
		if e.Active {
			m.MerchantsActive++
		}
		if e.HasItemData() {
			m.MerchantsWithItemData++
		}
	}
	m.MerchantsTotal = len(enriched)
	m.MerchantsInactive = m.MerchantsTotal - m.MerchantsActive

	m.PlatformTotal60d = total
	m.PlatformDaily = total / windowDays
	m.PlatformWeekly = total * weekDays / windowDays
	m.PlatformMonthly = total / 2.0
	m.Projection = Project(m.PlatformDaily, opts.GrowthFactor)

	var people []domain.Customer
	if customers != nil {
		people = customers.Records
	}
	m.CustomersTotal = len(people)
	for _, c := range people {
		if c.Active {
			m.CustomersActive++
		}
		if c.MarketingOptIn {
			m.CustomersMarketing++
		}
	}
	m.CustomersInactive = m.CustomersTotal - m.CustomersActive

	m.TopMerchants = TopMerchants(enriched, opts.TopN)
	m.TopCustomers = TopCustomers(people, opts.Today, opts.TopN)
	m.Rates = computeRates(m)

	return m
}

// TopMerchants ranks merchants by their 60-day figure, highest first. Ties
// keep input order.
func TopMerchants(enriched []domain.EnrichedMerchant, n int) []domain.TopMerchant {
	idx := make([]int, len(enriched))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return enriched[idx[a]].NetSales60d > enriched[idx[b]].NetSales60d
	})

	if n < 0 {
		n = 0
	}
	if n > len(idx) {
		n = len(idx)
	}
	out := make([]domain.TopMerchant, 0, n)
	for _, i := range idx[:n] {
		e := enriched[i]
		out = append(out, domain.TopMerchant{
			Name:        e.DisplayName(),
			LegalName:   e.LegalName,
			DBAName:     e.DBAName,
			NetSales60d: e.NetSales60d,
			DailyEst:    e.DailyEst,
			WeeklyEst:   e.WeeklyEst,
			MonthlyEst:  e.MonthlyEst,
		})
	}
	return out
}

func computeRates(m *domain.Metrics) domain.Rates {
	return domain.Rates{
		CustomerActiveRate:       ratio(float64(m.CustomersActive), float64(m.CustomersTotal)),
		MarketingOptInRate:       ratio(float64(m.CustomersMarketing), float64(m.CustomersTotal)),
		MerchantActiveRate:       ratio(float64(m.MerchantsActive), float64(m.MerchantsTotal)),
		RevenuePerActiveMerchant: ratio(m.PlatformTotal60d, float64(m.MerchantsActive)),
	}
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func valueOrZero(v *float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return 0
	}
	return *v
}

// Round rounds v to the given number of decimal places.
func Round(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}
	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}
