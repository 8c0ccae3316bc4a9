package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andresuchdata/platform-analytics/internal/analytics"
	"github.com/andresuchdata/platform-analytics/internal/discovery"
	"github.com/andresuchdata/platform-analytics/internal/domain"
	"github.com/andresuchdata/platform-analytics/internal/export"
	"github.com/andresuchdata/platform-analytics/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	snap  *report.Snapshot
	saves int
}

func (m *memStore) Load(ctx context.Context) (*report.Snapshot, error) {
	return m.snap, nil
}

func (m *memStore) Save(ctx context.Context, snap *report.Snapshot) error {
	m.snap = snap
	m.saves++
	return nil
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func fixtureDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	write(t, filepath.Join(root, "merchants", "master.csv"),
		"Customer ID,Legal Name,DBA Name,Account Status,MTD Volume,Last Month Volume\n"+
			"1,X Holdings,X,Active,$100,$100\n"+
			"2,Y Holdings,Y,Active,$200,$250\n"+
			"3,Z Holdings,Z,Closed,,\n")
	write(t, filepath.Join(root, "customers", "export.csv"),
		"Customer ID,First Name,Last Name,Email,Phone,Customer Since,Accepts Marketing\n"+
			"42,Ada,Lovelace,ada@example.com,555-0100,09-Aug-2025 10:00 AM,yes\n"+
			"42,Ada,Lovelace,ada@example.com,555-0100,01-Aug-2025 10:00 AM,yes\n"+
			",Guest,,guest@example.com,,01-Jan-2025 10:00 AM,no\n")
	write(t, filepath.Join(root, "sales", "X-Revenue Item Sales.csv"),
		"Item Name,Qty,Net Sales\nLatte,1,$200.00\nMuffin,1,$50.00\n")
	return root
}

func testOptions(root string) Options {
	opts := DefaultOptions(time.Date(2025, 8, 11, 0, 0, 0, 0, time.UTC))
	opts.Patterns = discovery.DefaultPatterns(root)
	opts.MinMerchants = 0
	return opts
}

func TestRunEndToEnd(t *testing.T) {
	root := fixtureDir(t)
	store := &memStore{}

	result, err := NewOrchestrator(testOptions(root), store).Run(context.Background())
	require.NoError(t, err)

	m := result.Metrics
	assert.Equal(t, 3, m.MerchantsTotal)
	assert.Equal(t, 2, m.MerchantsActive)
	assert.Equal(t, 1, m.MerchantsWithItemData)
	assert.Equal(t, 700.0, m.PlatformTotal60d)
	assert.Equal(t, 2, m.CustomersTotal)
	assert.Equal(t, 1, m.CustomersActive)
	assert.Equal(t, 1, m.CustomersMarketing)

	require.Len(t, m.TopMerchants, 3)
	assert.Equal(t, "Y", m.TopMerchants[0].Name)
	assert.Equal(t, 450.0, m.TopMerchants[0].NetSales60d)
	assert.Equal(t, 250.0, m.TopMerchants[1].NetSales60d)

	assert.Equal(t, 1, result.Diagnostics.FilesDiscovered[domain.CategorySales])
	assert.Equal(t, domain.Coverage{ItemData: 1, Fallback: 2}, result.Diagnostics.Coverage)
	assert.Equal(t, []string{report.FirstRunLine}, result.Diff)
	assert.Equal(t, 1, store.saves)
}

func TestRunIsIdempotent(t *testing.T) {
	root := fixtureDir(t)
	store := &memStore{}
	orch := NewOrchestrator(testOptions(root), store)

	first, err := orch.Run(context.Background())
	require.NoError(t, err)
	second, err := orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Metrics, second.Metrics)
	assert.Equal(t, []string{report.NoChangesLine}, second.Diff)
}

func TestRunReportsChangedFigures(t *testing.T) {
	root := fixtureDir(t)
	store := &memStore{}
	orch := NewOrchestrator(testOptions(root), store)

	_, err := orch.Run(context.Background())
	require.NoError(t, err)

	write(t, filepath.Join(root, "sales", "Z-Revenue Item Sales.csv"),
		"Gross Sales,$600.00\nNet Sales,$600.00\n")

	result, err := orch.Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, result.Diff, "Merchants Active: 2 -> 3 (+1)")
	assert.Contains(t, result.Diff, "Merchants with Item Data: 1 -> 2 (+1)")
	assert.Contains(t, result.Diff, "Platform 60d Total: $700.00 -> $1,300.00 ($+600.00)")
}

func TestRunValidationFailureIsFatal(t *testing.T) {
	root := fixtureDir(t)
	store := &memStore{}
	opts := testOptions(root)
	opts.MinMerchants = 700

	result, err := NewOrchestrator(opts, store).Run(context.Background())

	assert.Nil(t, result)
	assert.ErrorIs(t, err, analytics.ErrValidation)
	assert.ErrorIs(t, err, analytics.ErrMerchantFloor)
	assert.Zero(t, store.saves, "failed runs never replace the snapshot")
}

func TestRunWritesExports(t *testing.T) {
	root := fixtureDir(t)
	opts := testOptions(root)
	opts.ExportDir = filepath.Join(root, "out")

	_, err := NewOrchestrator(opts, nil).Run(context.Background())
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(opts.ExportDir, export.CustomersFile))
	assert.FileExists(t, filepath.Join(opts.ExportDir, export.MerchantsFile))
}

func TestRunWithoutInputs(t *testing.T) {
	opts := testOptions(t.TempDir())

	result, err := NewOrchestrator(opts, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Metrics.MerchantsTotal)
	assert.Equal(t, []string{report.FirstRunLine}, result.Diff)
}
