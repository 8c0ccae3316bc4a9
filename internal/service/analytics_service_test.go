package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andresuchdata/platform-analytics/internal/analytics"
	"github.com/andresuchdata/platform-analytics/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls   atomic.Int32
	results []*domain.Result
	errs    []error
}

func (f *fakeRunner) Run(ctx context.Context) (*domain.Result, error) {
	n := int(f.calls.Add(1)) - 1
	var (
		res *domain.Result
		err error
	)
	if n < len(f.results) {
		res = f.results[n]
	}
	if n < len(f.errs) {
		err = f.errs[n]
	}
	return res, err
}

func validationErr() error {
	return fmt.Errorf("validate run: %w", &analytics.ValidationError{Check: analytics.ErrMerchantFloor, Detail: "3 < 700"})
}

func TestResultRunsOnceAndCaches(t *testing.T) {
	first := &domain.Result{Diff: []string{"first"}}
	runner := &fakeRunner{results: []*domain.Result{first}}
	svc := NewAnalyticsService(runner)

	assert.Equal(t, StateEmpty, svc.Status().State)

	got, err := svc.Result(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, got)

	got, err = svc.Result(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, got)
	assert.EqualValues(t, 1, runner.calls.Load())

	status := svc.Status()
	assert.Equal(t, StateReady, status.State)
	assert.False(t, status.UpdatedAt.IsZero())
}

func TestRefreshFailureKeepsPreviousResult(t *testing.T) {
	good := &domain.Result{}
	runner := &fakeRunner{
		results: []*domain.Result{good, nil},
		errs:    []error{nil, validationErr()},
	}
	svc := NewAnalyticsService(runner)

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, analytics.ErrMerchantFloor)

	status := svc.Status()
	assert.Equal(t, StateValidationFailed, status.State)
	assert.Error(t, status.Err)

	cached, err := svc.Result(context.Background())
	require.NoError(t, err)
	assert.Same(t, good, cached)
}

type blockingRunner struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (b *blockingRunner) Run(ctx context.Context) (*domain.Result, error) {
	if b.calls.Add(1) == 1 {
		close(b.started)
	}
	<-b.release
	return &domain.Result{}, nil
}

func TestRefreshCollapsesConcurrentCalls(t *testing.T) {
	runner := &blockingRunner{started: make(chan struct{}), release: make(chan struct{})}
	svc := NewAnalyticsService(runner)

	var wg sync.WaitGroup
	results := make([]*domain.Result, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Refresh(context.Background())
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}

	<-runner.started
	time.Sleep(50 * time.Millisecond)
	close(runner.release)
	wg.Wait()

	assert.EqualValues(t, 1, runner.calls.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

// ctxRunner fails with the context error when its context was cancelled
// before it is released.
type ctxRunner struct {
	blockingRunner
}

func (c *ctxRunner) Run(ctx context.Context) (*domain.Result, error) {
	if _, err := c.blockingRunner.Run(ctx); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &domain.Result{}, nil
}

func TestRefreshSurvivesFirstCallerCancel(t *testing.T) {
	runner := &ctxRunner{blockingRunner{started: make(chan struct{}), release: make(chan struct{})}}
	svc := NewAnalyticsService(runner)

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Refresh(firstCtx)
		firstErr <- err
	}()
	<-runner.started

	type outcome struct {
		res *domain.Result
		err error
	}
	second := make(chan outcome, 1)
	go func() {
		res, err := svc.Refresh(context.Background())
		second <- outcome{res, err}
	}()

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	time.Sleep(20 * time.Millisecond)
	close(runner.release)

	got := <-second
	require.NoError(t, got.err)
	assert.NotNil(t, got.res)
	assert.Equal(t, StateReady, svc.Status().State)
}

func TestStateOf(t *testing.T) {
	assert.Equal(t, StateEmpty, StateOf(nil, nil))
	assert.Equal(t, StateReady, StateOf(&domain.Result{}, nil))
	assert.Equal(t, StateValidationFailed, StateOf(nil, validationErr()))
	assert.Equal(t, StatePipelineFailed, StateOf(nil, errors.New("disk gone")))
}
