package report

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// NoChangesLine closes a report in which no compared field moved.
const NoChangesLine = "No significant changes detected in key metrics"

// FirstRunLine is the whole report when no previous snapshot exists.
const FirstRunLine = "No previous metrics found - this is the first run"

type kind int

const (
	kindCount kind = iota
	kindCurrency
)

type field struct {
	key   string
	label string
	kind  kind
	value func(*Snapshot) float64
}

var compared = []field{
	{"merchants_total", "Merchants Total", kindCount, func(s *Snapshot) float64 { return float64(s.MerchantsTotal) }},
	{"merchants_active", "Merchants Active", kindCount, func(s *Snapshot) float64 { return float64(s.MerchantsActive) }},
	{"merchants_with_item_data", "Merchants with Item Data", kindCount, func(s *Snapshot) float64 { return float64(s.MerchantsWithItemData) }},
	{"customers_total", "Customers Total", kindCount, func(s *Snapshot) float64 { return float64(s.CustomersTotal) }},
	{"customers_active", "Customers Active", kindCount, func(s *Snapshot) float64 { return float64(s.CustomersActive) }},
	{"customers_marketing", "Customers Marketing", kindCount, func(s *Snapshot) float64 { return float64(s.CustomersMarketing) }},
	{"platform_total_60d", "Platform 60d Total", kindCurrency, func(s *Snapshot) float64 { return s.PlatformTotal60d }},
	{"platform_daily", "Platform Daily", kindCurrency, func(s *Snapshot) float64 { return s.PlatformDaily }},
	{"platform_weekly", "Platform Weekly", kindCurrency, func(s *Snapshot) float64 { return s.PlatformWeekly }},
	{"platform_monthly", "Platform Monthly", kindCurrency, func(s *Snapshot) float64 { return s.PlatformMonthly }},
}

// Change is one field that moved between runs.
type Change struct {
	Key      string  `json:"key"`
	Label    string  `json:"label"`
	Previous float64 `json:"previous"`
	Current  float64 `json:"current"`
	Currency bool    `json:"currency"`
}

// Delta is Current minus Previous.
func (c Change) Delta() float64 {
	return c.Current - c.Previous
}

// money renders an amount with thousands separators and two decimals.
func money(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

// String renders the change, e.g. "Platform Daily: $1,000.00 -> $1,250.50 ($+250.50)"
// or "Merchants Total: 700 -> 741 (+41)".
func (c Change) String() string {
	if c.Currency {
		return fmt.Sprintf("%s: $%s -> $%s ($%s)", c.Label,
			money(c.Previous),
			money(c.Current),
			signed(c.Delta(), money(math.Abs(c.Delta()))))
	}
	prev, cur := int64(c.Previous), int64(c.Current)
	delta := cur - prev
	abs := delta
	if abs < 0 {
		abs = -abs
	}
	return fmt.Sprintf("%s: %s -> %s (%s)", c.Label,
		humanize.Comma(prev), humanize.Comma(cur), signed(float64(delta), humanize.Comma(abs)))
}

func signed(delta float64, magnitude string) string {
	if delta < 0 {
		return "-" + magnitude
	}
	return "+" + magnitude
}

// Report is the outcome of comparing two snapshots.
type Report struct {
	FirstRun bool     `json:"first_run"`
	Changes  []Change `json:"changes"`
}

// Compare lists the compared fields that differ between prev and cur. A
// field missing from either snapshot is skipped. A nil prev marks the first
// run.
func Compare(prev, cur *Snapshot) Report {
	if prev == nil {
		return Report{FirstRun: true}
	}
	if cur == nil {
		return Report{}
	}

	var r Report
	for _, f := range compared {
		if !prev.Has(f.key) || !cur.Has(f.key) {
			continue
		}
		p, c := f.value(prev), f.value(cur)
		if p == c {
			continue
		}
		r.Changes = append(r.Changes, Change{
			Key:      f.key,
			Label:    f.label,
			Previous: p,
			Current:  c,
			Currency: f.kind == kindCurrency,
		})
	}
	return r
}

// Lines renders the report for logs and front ends.
func (r Report) Lines() []string {
	if r.FirstRun {
		return []string{FirstRunLine}
	}
	if len(r.Changes) == 0 {
		return []string{NoChangesLine}
	}
	lines := make([]string, 0, len(r.Changes))
	for _, c := range r.Changes {
		lines = append(lines, c.String())
	}
	return lines
}
