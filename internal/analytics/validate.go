package analytics

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/andresuchdata/platform-analytics/internal/domain"
	"github.com/andresuchdata/platform-analytics/internal/pipeline/customers"
)

// WindowTolerance bounds the drift between summed per-merchant estimates
// and the platform figures.
const WindowTolerance = 1e-6

var (
	ErrValidation        = errors.New("validation failed")
	ErrMerchantFloor     = errors.New("merchant count below floor")
	ErrWindowMath        = errors.New("window math mismatch")
	ErrCoalesce          = errors.New("coalesced figure mismatch")
	ErrDuplicateCustomer = errors.New("duplicate customer after dedup")
)

// ValidationError is a fatal data-shape failure. It matches both
// ErrValidation and the specific sentinel under errors.Is.
type ValidationError struct {
	Check  error
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s", e.Check, e.Detail)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation || target == e.Check
}

func (e *ValidationError) Unwrap() error {
	return e.Check
}

func fail(check error, format string, args ...any) error {
	return &ValidationError{Check: check, Detail: fmt.Sprintf(format, args...)}
}

// Validate checks a finished run before it is published. Every failure is
// fatal: it points at a wrong data directory, a wrong sheet or a regression
// in the coalescing logic.
func Validate(enriched []domain.EnrichedMerchant, people []domain.Customer, metrics *domain.Metrics, opts Options) error {
	if opts.MinMerchants > 0 && len(enriched) < opts.MinMerchants {
		return fail(ErrMerchantFloor, "merchant count unexpectedly low (%d < %d); check merchant file and sheet selection", len(enriched), opts.MinMerchants)
	}

	if err := checkCoalesce(enriched); err != nil {
		return err
	}
	if err := checkWindows(enriched, metrics); err != nil {
		return err
	}
	return checkDedup(people)
}

func checkCoalesce(enriched []domain.EnrichedMerchant) error {
	for i, e := range enriched {
		want := e.FallbackVolume
		if e.NetSales60dItem != nil {
			want = *e.NetSales60dItem
		}
		if e.NetSales60d != want {
			return fail(ErrCoalesce, "merchant %d (%s): net_sales_60d %.2f, expected %.2f", i, e.NameKey, e.NetSales60d, want)
		}
		if e.Active != (e.NetSales60d > 0) {
			return fail(ErrCoalesce, "merchant %d (%s): active flag disagrees with net_sales_60d %.2f", i, e.NameKey, e.NetSales60d)
		}
	}
	return nil
}

func checkWindows(enriched []domain.EnrichedMerchant, metrics *domain.Metrics) error {
	if metrics == nil {
		return fail(ErrWindowMath, "no metrics computed")
	}

	var daily, weekly, monthly float64
	for _, e := range enriched {
		daily += e.DailyEst
		weekly += e.WeeklyEst
		monthly += e.MonthlyEst
	}

	checks := []struct {
		name string
		sum  float64
		want float64
	}{
		{"daily", daily, metrics.PlatformTotal60d / windowDays},
		{"weekly", weekly, metrics.PlatformTotal60d * weekDays / windowDays},
		{"monthly", monthly, metrics.PlatformTotal60d / 2.0},
	}
	var problems []string
	for _, c := range checks {
		if math.Abs(c.sum-c.want) >= tolerance(c.want) {
			problems = append(problems, fmt.Sprintf("%s sum %.8f vs platform %.8f", c.name, c.sum, c.want))
		}
	}
	if len(problems) > 0 {
		return fail(ErrWindowMath, "%s", strings.Join(problems, "; "))
	}
	return nil
}

// tolerance is WindowTolerance, widened relative to magnitude once sums grow
// past the point where float64 rounding alone exceeds it.
func tolerance(want float64) float64 {
	return math.Max(WindowTolerance, math.Abs(want)*1e-12)
}

func checkDedup(people []domain.Customer) error {
	ids := make(map[string]struct{})
	idKeys := make(map[string]struct{})
	for _, c := range people {
		if !c.HasIdentity() {
			continue
		}
		if _, dup := ids[c.CustomerID]; dup {
			return fail(ErrDuplicateCustomer, "customer_id %q appears twice", c.CustomerID)
		}
		ids[c.CustomerID] = struct{}{}
		idKeys[customers.ContactKey(c)] = struct{}{}
	}

	keys := make(map[string]struct{})
	for _, c := range people {
		if c.HasIdentity() {
			continue
		}
		key := customers.ContactKey(c)
		if _, dup := keys[key]; dup {
			return fail(ErrDuplicateCustomer, "contact key %q appears twice", key)
		}
		if _, taken := idKeys[key]; taken {
			return fail(ErrDuplicateCustomer, "contact key %q duplicates a customer with an id", key)
		}
		keys[key] = struct{}{}
	}
	return nil
}
