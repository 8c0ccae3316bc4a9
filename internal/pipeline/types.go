package pipeline

import (
	"context"
	"time"

	"github.com/andresuchdata/platform-analytics/internal/analytics"
	"github.com/andresuchdata/platform-analytics/internal/discovery"
	"github.com/andresuchdata/platform-analytics/internal/domain"
	"github.com/andresuchdata/platform-analytics/internal/pipeline/customers"
	"github.com/andresuchdata/platform-analytics/internal/pipeline/sales"
	"github.com/andresuchdata/platform-analytics/internal/report"
)

// Options holds everything a run depends on besides the input files. Today
// is threaded explicitly so activity windows are reproducible.
type Options struct {
	Today    time.Time
	Patterns map[domain.Category][]string

	SalesFileMarker string
	HeaderScanLines int
	SummaryScanRows int

	ActiveDays   int
	MinMerchants int
	GrowthFactor float64
	TopN         int

	// ExportDir, when set, receives the CSV exports of every run.
	ExportDir string
}

// DefaultOptions returns the standard layout under ./data.
func DefaultOptions(today time.Time) Options {
	salesOpts := sales.DefaultOptions()
	analyticsOpts := analytics.DefaultOptions(today)
	return Options{
		Today:           today,
		Patterns:        discovery.DefaultPatterns("data"),
		SalesFileMarker: salesOpts.FileMarker,
		HeaderScanLines: salesOpts.HeaderScanLines,
		SummaryScanRows: salesOpts.SummaryScanRows,
		ActiveDays:      30,
		MinMerchants:    analyticsOpts.MinMerchants,
		GrowthFactor:    analyticsOpts.GrowthFactor,
		TopN:            analyticsOpts.TopN,
	}
}

func (o Options) customers() customers.Options {
	return customers.Options{Today: o.Today, ActiveDays: o.ActiveDays}
}

func (o Options) sales() sales.Options {
	return sales.Options{
		FileMarker:      o.SalesFileMarker,
		HeaderScanLines: o.HeaderScanLines,
		SummaryScanRows: o.SummaryScanRows,
	}
}

func (o Options) analytics() analytics.Options {
	return analytics.Options{
		Today:        o.Today,
		TopN:         o.TopN,
		GrowthFactor: o.GrowthFactor,
		MinMerchants: o.MinMerchants,
	}
}

// SnapshotStore is where the previous run's metrics are read from and the
// current ones written to.
type SnapshotStore interface {
	Load(ctx context.Context) (*report.Snapshot, error)
	Save(ctx context.Context, snap *report.Snapshot) error
}

// Stage names the steps of a run in logs.
type Stage string

const (
	StageDiscovery  Stage = "discovery"
	StageLoading    Stage = "loading"
	StageEnrichment Stage = "enrichment"
	StageValidation Stage = "validation"
	StageDiff       Stage = "diff"
	StageExport     Stage = "export"
	StageComplete   Stage = "complete"
)
