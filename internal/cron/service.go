package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/shiplist-backend/pkg/logger"
	"github.com/angelmondragon/shiplist-backend/pkg/metrics"
)

const defaultInterval = 6 * time.Hour

// ErrLockHeld is returned by RunOnce when another worker owns the cycle.
var ErrLockHeld = errors.New("cron: lock held by another instance")

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
}

// Service runs the registered housekeeping jobs once per interval, guarded by
// a lock so only one worker prunes at a time.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	interval time.Duration
	now      func() time.Time
}

// JobOutcome is the result of one job inside a cycle.
type JobOutcome struct {
	Job      string
	Duration time.Duration
	Err      error
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case params.Lock == nil:
		return nil, errors.New("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
		now:      time.Now,
	}, nil
}

// Run executes a cycle immediately and then on every tick until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	s.tick(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron loop stopped")
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Service) tick(ctx context.Context) {
	_, err := s.RunOnce(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrLockHeld):
		s.logg.Info(ctx, "cron cycle skipped, lock held elsewhere")
	default:
		s.logg.Error(ctx, "cron cycle finished with errors", err)
	}
}

// RunOnce runs every registered job in order. A failing job does not stop the
// ones after it; all job errors are combined into the returned error.
func (s *Service) RunOnce(ctx context.Context) ([]JobOutcome, error) {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire cron lock: %w", err)
	}
	if !locked {
		return nil, ErrLockHeld
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "release cron lock", relErr)
		}
	}()

	jobs := s.registry.Jobs()
	outcomes := make([]JobOutcome, 0, len(jobs))
	var errs error
	for _, job := range jobs {
		outcome := s.runJob(ctx, job)
		outcomes = append(outcomes, outcome)
		if outcome.Err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", outcome.Job, outcome.Err))
		}
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"jobs":   len(outcomes),
		"failed": len(multierr.Errors(errs)),
	}), "cron cycle complete")
	return outcomes, errs
}

func (s *Service) runJob(ctx context.Context, job Job) JobOutcome {
	name := job.Name()
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": name, "event": "cron.job"})
	start := s.now()
	err := job.Run(jobCtx)
	elapsed := s.now().Sub(start)

	s.metrics.ObserveDuration(name, elapsed)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		s.metrics.IncFailure(name)
		s.logg.Error(jobCtx, "cron job failed", err)
	} else {
		s.metrics.IncSuccess(name)
		s.logg.Debug(jobCtx, "cron job done")
	}
	return JobOutcome{Job: name, Duration: elapsed, Err: err}
}
