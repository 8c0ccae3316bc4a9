// Package service exposes the latest pipeline result to front ends.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/andresuchdata/platform-analytics/internal/analytics"
	"github.com/andresuchdata/platform-analytics/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Runner computes a fresh result.
type Runner interface {
	Run(ctx context.Context) (*domain.Result, error)
}

// State describes the outcome of the most recent run.
type State string

const (
	StateEmpty            State = "empty"
	StateReady            State = "ready"
	StateValidationFailed State = "validation_failed"
	StatePipelineFailed   State = "pipeline_failed"
)

// AnalyticsService caches the last good result and serializes runs: callers
// that ask for a refresh while one is in flight share its outcome.
type AnalyticsService struct {
	runner Runner
	group  singleflight.Group

	mu        sync.RWMutex
	result    *domain.Result
	lastErr   error
	updatedAt time.Time
}

func NewAnalyticsService(runner Runner) *AnalyticsService {
	return &AnalyticsService{runner: runner}
}

// Result returns the cached result, running the pipeline on first use.
func (s *AnalyticsService) Result(ctx context.Context) (*domain.Result, error) {
	s.mu.RLock()
	result := s.result
	s.mu.RUnlock()
	if result != nil {
		return result, nil
	}
	return s.Refresh(ctx)
}

// Refresh runs the pipeline now. A failed run keeps the previous result
// cached but is reported to the caller and through Status. The shared run
// ignores the cancellation of whichever caller started it; a caller that
// gives up stops waiting without failing the others.
func (s *AnalyticsService) Refresh(ctx context.Context) (*domain.Result, error) {
	runCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan("refresh", func() (interface{}, error) {
		result, err := s.runner.Run(runCtx)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.lastErr = err
		if err != nil {
			return nil, err
		}
		s.result = result
		s.updatedAt = time.Now()
		return result, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Shared {
		log.Debug().Msg("joined in-flight refresh")
	}
	if res.Err != nil {
		log.Error().Err(res.Err).Msg("analytics refresh failed")
		return nil, res.Err
	}
	return res.Val.(*domain.Result), nil
}

// Status is the state of the last run and when a result was last produced.
type Status struct {
	State     State
	Err       error
	UpdatedAt time.Time
}

func (s *AnalyticsService) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		State:     StateOf(s.result, s.lastErr),
		Err:       s.lastErr,
		UpdatedAt: s.updatedAt,
	}
}

// StateOf classifies a run outcome.
func StateOf(result *domain.Result, err error) State {
	switch {
	case err != nil && errors.Is(err, analytics.ErrValidation):
		return StateValidationFailed
	case err != nil:
		return StatePipelineFailed
	case result == nil:
		return StateEmpty
	default:
		return StateReady
	}
}
