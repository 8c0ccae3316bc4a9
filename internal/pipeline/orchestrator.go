// Package pipeline runs discovery, loading, enrichment, validation and
// diffing in sequence and assembles the result consumed by front ends.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/platform-analytics/internal/analytics"
	"github.com/andresuchdata/platform-analytics/internal/discovery"
	"github.com/andresuchdata/platform-analytics/internal/domain"
	"github.com/andresuchdata/platform-analytics/internal/export"
	"github.com/andresuchdata/platform-analytics/internal/pipeline/customers"
	"github.com/andresuchdata/platform-analytics/internal/pipeline/merchants"
	"github.com/andresuchdata/platform-analytics/internal/pipeline/sales"
	"github.com/andresuchdata/platform-analytics/internal/report"
	"github.com/rs/zerolog/log"
)

const runDateLayout = "2006-01-02"

// Orchestrator executes one synchronous pipeline run at a time.
type Orchestrator struct {
	opts  Options
	store SnapshotStore
}

// NewOrchestrator creates a new Orchestrator. A nil store disables diffing.
func NewOrchestrator(opts Options, store SnapshotStore) *Orchestrator {
	return &Orchestrator{
		opts:  opts,
		store: store,
	}
}

// Run computes the full result. Unreadable inputs only reduce coverage; a
// failed validation aborts the run with an *analytics.ValidationError and
// nothing is persisted.
func (o *Orchestrator) Run(ctx context.Context) (*domain.Result, error) {
	start := time.Now()
	runDate := o.opts.Today.Format(runDateLayout)
	log.Info().Str("run_date", runDate).Msg("analytics pipeline starting")

	// 1) Discovery
	files := discovery.Discover(o.opts.Patterns)
	diag := domain.Diagnostics{
		RunDate:         o.opts.Today,
		FilesDiscovered: make(map[domain.Category]int),
	}
	for _, c := range domain.Categories() {
		diag.FilesDiscovered[c] = len(files[c])
	}
	log.Info().
		Str("stage", string(StageDiscovery)).
		Int("merchants", diag.FilesDiscovered[domain.CategoryMerchants]).
		Int("customers", diag.FilesDiscovered[domain.CategoryCustomers]).
		Int("sales", diag.FilesDiscovered[domain.CategorySales]).
		Msg("files discovered")

	// 2) Loading
	merchTable, err := merchants.Load(ctx, files[domain.CategoryMerchants])
	if err != nil {
		return nil, fmt.Errorf("load merchants: %w", err)
	}
	custTable, err := customers.Load(ctx, files[domain.CategoryCustomers], o.opts.customers())
	if err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}
	salesTable, err := sales.Load(ctx, files[domain.CategorySales], o.opts.sales())
	if err != nil {
		return nil, fmt.Errorf("load sales: %w", err)
	}

	diag.DataLoaded = domain.DataLoaded{
		Merchants:       len(merchTable.Records),
		Customers:       len(custTable.Records),
		SalesAggregates: len(salesTable.Records),
	}
	diag.Files = append(diag.Files, merchTable.Files...)
	diag.Files = append(diag.Files, custTable.Files...)
	diag.Files = append(diag.Files, salesTable.Files...)
	log.Info().
		Str("stage", string(StageLoading)).
		Int("merchants", diag.DataLoaded.Merchants).
		Int("customers", diag.DataLoaded.Customers).
		Int("sales_aggregates", diag.DataLoaded.SalesAggregates).
		Msg("data loaded")

	// 3) Enrichment
	aopts := o.opts.analytics()
	enriched, metrics := analytics.Enrich(merchTable, custTable, salesTable, aopts)

	// 4) Validation
	if err := analytics.Validate(enriched, custTable.Records, metrics, aopts); err != nil {
		return nil, fmt.Errorf("validate run: %w", err)
	}
	diag.Coverage = domain.Coverage{
		ItemData: metrics.MerchantsWithItemData,
		Fallback: metrics.MerchantsTotal - metrics.MerchantsWithItemData,
	}
	log.Info().
		Str("stage", string(StageValidation)).
		Int("item_data", diag.Coverage.ItemData).
		Int("fallback", diag.Coverage.Fallback).
		Msg("validation passed")

	result := &domain.Result{
		Customers:   custTable.Records,
		Merchants:   enriched,
		Metrics:     metrics,
		Diagnostics: diag,
	}

	// 5) Diff against the previous snapshot
	result.Diff = o.diff(ctx, metrics, runDate)

	// 6) Optional exports
	if o.opts.ExportDir != "" {
		if paths, err := export.WriteFiles(o.opts.ExportDir, result); err != nil {
			log.Warn().Err(err).Str("stage", string(StageExport)).Msg("export failed")
		} else {
			log.Info().Str("stage", string(StageExport)).Strs("files", paths).Msg("exports written")
		}
	}

	log.Info().
		Str("stage", string(StageComplete)).
		Int("files", len(diag.Files)).
		Float64("platform_total_60d", metrics.PlatformTotal60d).
		Dur("elapsed", time.Since(start)).
		Msg("analytics pipeline complete")

	return result, nil
}

// diff compares against the stored snapshot and replaces it. Store failures
// are logged and never fail the run.
func (o *Orchestrator) diff(ctx context.Context, metrics *domain.Metrics, runDate string) []string {
	current := report.FromMetrics(metrics, runDate)
	if o.store == nil {
		return report.Compare(nil, current).Lines()
	}

	previous, err := o.store.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Str("stage", string(StageDiff)).Msg("previous snapshot unavailable")
		previous = nil
	}

	lines := report.Compare(previous, current).Lines()
	for _, line := range lines {
		log.Info().Str("stage", string(StageDiff)).Msg(line)
	}

	if err := o.store.Save(ctx, current); err != nil {
		log.Warn().Err(err).Str("stage", string(StageDiff)).Msg("failed to persist snapshot")
	}
	return lines
}
