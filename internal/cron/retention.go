package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/shiplist-backend/pkg/logger"
	"github.com/angelmondragon/shiplist-backend/pkg/metrics"
)

const (
	outboxRetentionDays   = 30
	outboxMinAttempts     = 10
	activityRetentionDays = 180
	dlqRetentionDays      = 90
)

// PruneFunc deletes rows older than cutoff inside tx and reports how many went.
type PruneFunc func(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)

// RetentionJobParams configures a job that deletes rows past a day based age.
type RetentionJobParams struct {
	Name    string
	Logger  *logger.Logger
	DB      txRunner
	Prune   PruneFunc
	Metrics *metrics.CronJobMetrics
	// Days falls back to DefaultDays when not positive.
	Days        int
	DefaultDays int
	// Fields are added to the completion log line.
	Fields map[string]any
}

// NewRetentionJob builds a Job that runs Prune in one transaction per cycle.
func NewRetentionJob(params RetentionJobParams) (Job, error) {
	var missing []error
	if params.Name == "" {
		missing = append(missing, errors.New("job name required"))
	}
	if params.Logger == nil {
		missing = append(missing, errors.New("logger required"))
	}
	if params.DB == nil {
		missing = append(missing, errors.New("db runner required"))
	}
	if params.Prune == nil {
		missing = append(missing, errors.New("prune func required"))
	}
	if err := multierr.Combine(missing...); err != nil {
		return nil, err
	}
	days := params.Days
	if days <= 0 {
		days = params.DefaultDays
	}
	if days <= 0 {
		return nil, fmt.Errorf("%s: retention days must be positive", params.Name)
	}
	return &pruneJob{
		name:    params.Name,
		logg:    params.Logger,
		db:      params.DB,
		prune:   params.Prune,
		metrics: params.Metrics,
		days:    days,
		fields:  params.Fields,
		now:     time.Now,
	}, nil
}

type pruneJob struct {
	name    string
	logg    *logger.Logger
	db      txRunner
	prune   PruneFunc
	metrics *metrics.CronJobMetrics
	days    int
	fields  map[string]any
	now     func() time.Time
}

func (j *pruneJob) Name() string { return j.name }

func (j *pruneJob) cutoff() time.Time {
	return j.now().UTC().AddDate(0, 0, -j.days)
}

func (j *pruneJob) Run(ctx context.Context) error {
	cutoff := j.cutoff()
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		deleted, err = j.prune(ctx, tx, cutoff)
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}
	j.metrics.AddPruned(j.name, deleted)

	fields := map[string]any{
		"job":            j.name,
		"cutoff":         cutoff,
		"retention_days": j.days,
		"rows_deleted":   deleted,
	}
	for k, v := range j.fields {
		fields[k] = v
	}
	j.logg.Info(j.logg.WithFields(ctx, fields), "retention cleanup complete")
	return nil
}
