// Package report builds the cached metrics snapshot and the field-level
// diff between two runs.
package report

import (
	"encoding/json"

	"github.com/andresuchdata/platform-analytics/internal/analytics"
	"github.com/andresuchdata/platform-analytics/internal/domain"
)

// Snapshot is the flat, persisted form of a run's metrics.
type Snapshot struct {
	RunDate               string               `json:"run_date,omitempty"`
	MerchantsTotal        int                  `json:"merchants_total"`
	MerchantsActive       int                  `json:"merchants_active"`
	MerchantsInactive     int                  `json:"merchants_inactive"`
	MerchantsWithItemData int                  `json:"merchants_with_item_data"`
	CustomersTotal        int                  `json:"customers_total"`
	CustomersActive       int                  `json:"customers_active"`
	CustomersInactive     int                  `json:"customers_inactive"`
	CustomersMarketing    int                  `json:"customers_marketing"`
	PlatformTotal60d      float64              `json:"platform_total_60d"`
	PlatformDaily         float64              `json:"platform_daily"`
	PlatformWeekly        float64              `json:"platform_weekly"`
	PlatformMonthly       float64              `json:"platform_monthly"`
	Top3                  []domain.TopMerchant `json:"top3"`

	present map[string]bool
}

// FromMetrics flattens metrics, rounding platform figures to cents.
func FromMetrics(m *domain.Metrics, runDate string) *Snapshot {
	if m == nil {
		return nil
	}
	top := make([]domain.TopMerchant, 0, len(m.TopMerchants))
	for _, t := range m.TopMerchants {
		t.NetSales60d = analytics.Round(t.NetSales60d, 2)
		t.DailyEst = analytics.Round(t.DailyEst, 2)
		t.WeeklyEst = analytics.Round(t.WeeklyEst, 2)
		t.MonthlyEst = analytics.Round(t.MonthlyEst, 2)
		top = append(top, t)
	}
	return &Snapshot{
		RunDate:               runDate,
		MerchantsTotal:        m.MerchantsTotal,
		MerchantsActive:       m.MerchantsActive,
		MerchantsInactive:     m.MerchantsInactive,
		MerchantsWithItemData: m.MerchantsWithItemData,
		CustomersTotal:        m.CustomersTotal,
		CustomersActive:       m.CustomersActive,
		CustomersInactive:     m.CustomersInactive,
		CustomersMarketing:    m.CustomersMarketing,
		PlatformTotal60d:      analytics.Round(m.PlatformTotal60d, 2),
		PlatformDaily:         analytics.Round(m.PlatformDaily, 2),
		PlatformWeekly:        analytics.Round(m.PlatformWeekly, 2),
		PlatformMonthly:       analytics.Round(m.PlatformMonthly, 2),
		Top3:                  top,
	}
}

// UnmarshalJSON records which keys the document carried so that fields
// added after a snapshot was written are not reported as changes.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	type plain Snapshot
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = Snapshot(p)
	s.present = make(map[string]bool, len(raw))
	for k := range raw {
		s.present[k] = true
	}
	return nil
}

// Has reports whether key is part of the snapshot. Snapshots built in
// memory carry every key.
func (s *Snapshot) Has(key string) bool {
	if s == nil {
		return false
	}
	if s.present == nil {
		return true
	}
	return s.present[key]
}
