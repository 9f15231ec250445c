package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/shiplist-backend/pkg/config"
	"github.com/angelmondragon/shiplist-backend/pkg/db/models"
	"github.com/angelmondragon/shiplist-backend/pkg/enums"
	"github.com/angelmondragon/shiplist-backend/pkg/logger"
	"github.com/angelmondragon/shiplist-backend/pkg/metrics"
	"github.com/angelmondragon/shiplist-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize   = 50
	defaultPoll        = 500 * time.Millisecond
	defaultMaxAttempts = 10
	maxBackoff         = 10 * time.Second
	jitterWindow       = 250 * time.Millisecond
)

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pubSubClient interface {
	Ping(context.Context) error
	ManufacturingPublisher() *gcppubsub.Publisher
	Publisher(name string) *gcppubsub.Publisher
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type dlqRepository interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

type registryResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type ServiceParams struct {
	Config           *config.Config
	Logger           *logger.Logger
	DB               dbClient
	PubSub           pubSubClient
	Repository       outboxRepository
	Registry         registryResolver
	PublisherFactory publisherFactory
	DLQRepository    dlqRepository
	Metrics          *metrics.PublisherMetrics
	InstanceID       string
}

// Service drains outbox_events onto Pub/Sub. Each batch is claimed with
// SKIP LOCKED inside one transaction, so several publishers can run side by
// side without sending a row twice.
type Service struct {
	logg             *logger.Logger
	db               dbClient
	repo             outboxRepository
	pubsub           pubSubClient
	registry         registryResolver
	dlq              dlqRepository
	publisherFactory publisherFactory
	metrics          *metrics.PublisherMetrics
	instanceID       string
	batchSize        int
	maxAttempts      int
	pollInterval     time.Duration
}

func NewService(p ServiceParams) (*Service, error) {
	var missing error
	for name, ok := range map[string]bool{
		"config":         p.Config != nil,
		"logger":         p.Logger != nil,
		"database":       p.DB != nil,
		"pubsub":         p.PubSub != nil,
		"outbox repo":    p.Repository != nil,
		"event registry": p.Registry != nil,
		"dlq repo":       p.DLQRepository != nil,
	} {
		if !ok {
			missing = multierr.Append(missing, fmt.Errorf("%s is required", name))
		}
	}
	if missing != nil {
		return nil, missing
	}

	factory := p.PublisherFactory
	if factory == nil {
		factory = topicPublishers(p.PubSub)
	}
	ob := p.Config.Outbox
	return &Service{
		logg:             p.Logger,
		db:               p.DB,
		repo:             p.Repository,
		pubsub:           p.PubSub,
		registry:         p.Registry,
		dlq:              p.DLQRepository,
		publisherFactory: factory,
		metrics:          p.Metrics,
		instanceID:       p.InstanceID,
		batchSize:        positiveOr(ob.BatchSize, defaultBatchSize),
		maxAttempts:      positiveOr(ob.MaxAttempts, defaultMaxAttempts),
		pollInterval:     time.Duration(positiveOr(ob.PollIntervalMS, int(defaultPoll/time.Millisecond))) * time.Millisecond,
	}, nil
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// Run drains batches back to back while rows are waiting, idles for the poll
// interval when the table is empty and backs off exponentially on errors.
func (s *Service) Run(ctx context.Context) error {
	for _, dep := range []struct {
		name string
		ping func(context.Context) error
	}{{"database", s.db.Ping}, {"pubsub", s.pubsub.Ping}} {
		if err := dep.ping(ctx); err != nil {
			s.logg.Error(ctx, dep.name+" ping failed", err)
			return fmt.Errorf("%s ping failed: %w", dep.name, err)
		}
	}

	wait := s.pollInterval
	for {
		if err := ctx.Err(); err != nil {
			s.logg.Info(ctx, "outbox publisher stopping")
			return err
		}

		busy, err := s.processBatch(ctx)
		switch {
		case err != nil:
			s.logg.Error(ctx, "outbox batch failed", err)
			wait = nextBackoff(wait, s.pollInterval, maxBackoff)
		case busy:
			wait = s.pollInterval
			continue
		default:
			wait = s.pollInterval
		}
		if err := sleepCtx(ctx, wait+rand.N(jitterWindow)); err != nil {
			return err
		}
	}
}

// processBatch claims one batch and settles every row in it. It reports
// whether any row was claimed.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	claimed := 0
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchUnpublishedForPublish(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return err
		}
		claimed = len(events)
		for _, event := range events {
			if err := s.settle(ctx, tx, event, s.deliver(ctx, event)); err != nil {
				return err
			}
		}
		return nil
	})
	return claimed > 0, err
}

// delivery is the outcome of one publish attempt. A non-empty reason means
// the row goes to the dead letter table.
type delivery struct {
	topic  string
	fields map[string]any
	err    error
	reason enums.OutboxDLQErrorReason
}

func (s *Service) deliver(ctx context.Context, event models.OutboxEvent) delivery {
	resolved, err := s.registry.Resolve(event)
	if err != nil {
		d := delivery{fields: s.eventFields(event, nil), err: err, reason: enums.OutboxDLQReasonNonRetryable}
		if errors.Is(err, registry.ErrUnsupportedEvent) {
			d.reason = enums.OutboxDLQReasonUnsupportedEvent
		}
		return d
	}

	d := delivery{topic: resolved.Descriptor.Topic, fields: s.eventFields(event, resolved)}
	d.err = s.publishResolved(ctx, event, resolved)
	if d.err == nil {
		return d
	}

	var nonRetry registry.NonRetryableError
	if errors.As(d.err, &nonRetry) {
		d.reason = enums.OutboxDLQReasonNonRetryable
		return d
	}
	attempt := event.AttemptCount + 1
	d.fields["attempt_count"] = attempt
	if attempt >= s.maxAttempts {
		d.reason = enums.OutboxDLQReasonMaxAttempts
		d.err = fmt.Errorf("gave up after %d attempts: %w", attempt, d.err)
	}
	return d
}

func (s *Service) settle(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, d delivery) error {
	eventType := string(event.EventType)
	switch {
	case d.err == nil:
		if err := s.repo.MarkPublishedTx(tx, event.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		s.metrics.IncPublished(eventType)
		s.logg.Info(s.logg.WithFields(ctx, d.fields), "outbox event published")

	case d.reason != "":
		if err := s.deadLetter(ctx, tx, event, d); err != nil {
			return err
		}
		s.metrics.IncDeadLettered(eventType, string(d.reason))

	default:
		logCtx := s.logg.WithFields(ctx, d.fields)
		s.logg.Warn(s.logg.WithField(logCtx, "error", d.err.Error()), "outbox publish failed, will retry")
		s.metrics.IncFailed(eventType)
		if err := s.repo.MarkFailedTx(tx, event.ID, d.err); err != nil {
			return fmt.Errorf("mark failure %s: %w", event.ID, err)
		}
	}
	return nil
}

// deadLetter copies the row into outbox_dlq and parks it at maxAttempts so
// the fetch query never returns it again.
func (s *Service) deadLetter(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, d delivery) error {
	d.fields["error_reason"] = d.reason
	logCtx := s.logg.WithFields(ctx, d.fields)
	s.logg.Warn(s.logg.WithField(logCtx, "error", d.err.Error()), "outbox event dead lettered")

	msg := d.err.Error()
	entry := models.OutboxDLQ{
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   d.reason,
		ErrorMessage:  &msg,
		AttemptCount:  event.AttemptCount,
		FailedAt:      time.Now().UTC(),
	}
	if err := s.dlq.InsertTx(tx, entry); err != nil {
		return fmt.Errorf("insert dlq %s: %w", event.ID, err)
	}
	if err := s.repo.MarkTerminalTx(tx, event.ID, d.err, s.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	return nil
}

func (s *Service) eventFields(event models.OutboxEvent, resolved *registry.ResolvedEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID,
		"attempt_count":  event.AttemptCount,
	}
	if s.instanceID != "" {
		fields["instance_id"] = s.instanceID
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	if resolved != nil {
		fields["topic"] = resolved.Descriptor.Topic
		if resolved.Envelope.EventID != "" {
			fields["event_id"] = resolved.Envelope.EventID
			fields["occurred_at"] = resolved.Envelope.OccurredAt.Format(time.RFC3339Nano)
		}
	}
	return fields
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// nextBackoff doubles current, starting from base, capped at limit.
func nextBackoff(current, base, limit time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	return min(current*2, limit)
}
