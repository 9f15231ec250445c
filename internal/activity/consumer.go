package activity

import (
	"context"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/shiplist-backend/pkg/enums"
	"github.com/angelmondragon/shiplist-backend/pkg/logger"
	"github.com/angelmondragon/shiplist-backend/pkg/outbox"
	"github.com/angelmondragon/shiplist-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/shiplist-backend/pkg/outbox/registry"
)

const consumerName = "row-activity"

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

// Consumer projects manufacturing events from the subscription into row
// history.
type Consumer struct {
	repo         Repository
	subscription receiver
	idempotency  *idempotency.Manager
	decoders     *registry.DecoderRegistry
	logg         *logger.Logger
}

// NewConsumer builds a row activity consumer.
func NewConsumer(repo Repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, decoders *registry.DecoderRegistry, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("activity repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("manufacturing subscription required")
	}
	return newConsumer(repo, subscription, manager, decoders, logg)
}

func newConsumer(repo Repository, subscription receiver, manager *idempotency.Manager, decoders *registry.DecoderRegistry, logg *logger.Logger) (*Consumer, error) {
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if decoders == nil {
		return nil, fmt.Errorf("decoder registry required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		decoders:     decoders,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack     bool
	nack    bool
	written int64
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType, err := enums.ParseOutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": msg.Attributes["event_type"],
	})
	if err != nil {
		c.logg.Info(logCtx, "skipping unknown event")
		return processResult{ack: true}
	}

	envelope, err := outbox.DecodeEnvelope(msg.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}
	logCtx = c.logg.WithField(logCtx, "event_id", eventID.String())

	reservation, duplicate, err := c.idempotency.Reserve(ctx, consumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if duplicate {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	payload, err := c.decoders.Decode(eventType, envelope.Version, envelope.Data)
	if errors.Is(err, registry.ErrNoDecoder) {
		c.logg.Warn(c.logg.WithField(logCtx, "version", envelope.Version), "no decoder for event version, skipping")
		return processResult{ack: true}
	}
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = reservation.Release(ctx)
		return processResult{nack: true}
	}

	entries, err := project(eventID, eventType, envelope, payload)
	if err != nil {
		c.logg.Error(logCtx, "failed to project event", err)
		_ = reservation.Release(ctx)
		return processResult{nack: true}
	}

	written, err := c.repo.CreateBatch(ctx, entries)
	if err != nil {
		c.logg.Error(logCtx, "failed to store row activity", err)
		_ = reservation.Release(ctx)
		return processResult{nack: true}
	}
	c.logg.Info(c.logg.WithField(logCtx, "entries", written), "row activity recorded")
	return processResult{ack: true, written: written}
}
