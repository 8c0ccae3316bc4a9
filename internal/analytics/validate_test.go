package analytics

import (
	"errors"
	"testing"

	"github.com/andresuchdata/platform-analytics/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRun(t *testing.T) ([]domain.EnrichedMerchant, []domain.Customer, *domain.Metrics, Options) {
	t.Helper()
	merchants, customers, sales := fixtures()
	opts := DefaultOptions(today)
	opts.MinMerchants = 0
	enriched, metrics := Enrich(merchants, customers, sales, opts)
	return enriched, customers.Records, metrics, opts
}

func TestValidatePasses(t *testing.T) {
	enriched, people, metrics, opts := validRun(t)
	assert.NoError(t, Validate(enriched, people, metrics, opts))
}

func TestValidateMerchantFloor(t *testing.T) {
	enriched, people, metrics, opts := validRun(t)
	opts.MinMerchants = 700

	err := Validate(enriched, people, metrics, opts)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, ErrMerchantFloor)
	assert.Contains(t, err.Error(), "merchant count unexpectedly low (3 < 700)")

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, ErrMerchantFloor, verr.Check)
}

func TestValidateCoalesceRegression(t *testing.T) {
	enriched, people, metrics, opts := validRun(t)
	enriched[0].NetSales60d = *enriched[0].NetSales60dItem + enriched[0].FallbackVolume

	err := Validate(enriched, people, metrics, opts)

	assert.ErrorIs(t, err, ErrCoalesce)
	assert.NotErrorIs(t, err, ErrWindowMath)
}

func TestValidateWindowMath(t *testing.T) {
	enriched, people, metrics, opts := validRun(t)
	metrics.PlatformTotal60d += 1

	err := Validate(enriched, people, metrics, opts)

	assert.ErrorIs(t, err, ErrWindowMath)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestValidateWindowMathWithinTolerance(t *testing.T) {
	enriched, people, metrics, opts := validRun(t)
	metrics.PlatformTotal60d += 1e-9

	assert.NoError(t, Validate(enriched, people, metrics, opts))
}

func TestWindowToleranceScalesOnlyForLargeTotals(t *testing.T) {
	assert.Equal(t, WindowTolerance, tolerance(0))
	assert.Equal(t, WindowTolerance, tolerance(250_000))
	assert.Equal(t, WindowTolerance, tolerance(-1_000_000))
	assert.InDelta(t, 1e-3, tolerance(1e9), 1e-15)

	enriched, people, metrics, opts := validRun(t)
	metrics.PlatformTotal60d += 2e-4
	assert.ErrorIs(t, Validate(enriched, people, metrics, opts), ErrWindowMath, "small platforms keep the absolute bound")
}

func TestValidateDuplicateCustomers(t *testing.T) {
	enriched, _, metrics, opts := validRun(t)

	tests := []struct {
		name   string
		people []domain.Customer
	}{
		{
			name:   "repeated id",
			people: []domain.Customer{{CustomerID: "1"}, {CustomerID: "1"}},
		},
		{
			name: "repeated contact key",
			people: []domain.Customer{
				{Email: "a@example.com", Phone: "555-0100"},
				{Email: "A@example.com", Phone: "5550100"},
			},
		},
		{
			name: "contact row shadows id row",
			people: []domain.Customer{
				{CustomerID: "9", Email: "a@example.com"},
				{Email: "a@example.com"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(enriched, tt.people, metrics, opts)
			assert.ErrorIs(t, err, ErrDuplicateCustomer)
		})
	}
}
