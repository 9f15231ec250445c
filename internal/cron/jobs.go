package cron

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/shiplist-backend/internal/activity"
	"github.com/angelmondragon/shiplist-backend/pkg/config"
	"github.com/angelmondragon/shiplist-backend/pkg/logger"
	"github.com/angelmondragon/shiplist-backend/pkg/metrics"
	"github.com/angelmondragon/shiplist-backend/pkg/outbox"
)

type database interface {
	txRunner
	DB() *gorm.DB
}

// RetentionRegistry builds the registry shared by the cron worker and the
// operator CLI. Jobs run in order: outbox, dead letters, row activity.
func RetentionRegistry(cfg *config.Config, logg *logger.Logger, db database, m *metrics.CronJobMetrics) (*Registry, error) {
	minAttempts := cfg.Outbox.MaxAttempts
	if minAttempts <= 0 {
		minAttempts = outboxMinAttempts
	}
	outboxRepo := outbox.NewRepository(db.DB())
	dlqRepo := outbox.NewDLQRepository(db.DB())
	activityRepo := activity.NewRepository(db.DB())

	params := []RetentionJobParams{
		{
			Name:        "outbox-retention",
			Days:        cfg.Cron.OutboxRetentionDays,
			DefaultDays: outboxRetentionDays,
			Fields:      map[string]any{"min_attempts": minAttempts},
			Prune: func(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
				return outboxRepo.DeletePublishedBefore(ctx, tx, cutoff, minAttempts)
			},
		},
		{
			Name:        "dlq-retention",
			Days:        cfg.Cron.DLQRetentionDays,
			DefaultDays: dlqRetentionDays,
			Prune:       dlqRepo.DeleteOlderThan,
		},
		{
			Name:        "activity-retention",
			Days:        cfg.Cron.ActivityRetentionDays,
			DefaultDays: activityRetentionDays,
			Prune:       activityRepo.DeleteOlderThan,
		},
	}

	jobs := make([]Job, 0, len(params))
	for _, p := range params {
		p.Logger, p.DB, p.Metrics = logg, db, m
		job, err := NewRetentionJob(p)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return NewRegistry(jobs...), nil
}
