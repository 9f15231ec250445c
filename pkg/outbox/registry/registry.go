// Package registry maps outbox event types to their topic and payload schema.
package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/shiplist-backend/pkg/config"
	"github.com/angelmondragon/shiplist-backend/pkg/db/models"
	"github.com/angelmondragon/shiplist-backend/pkg/enums"
	"github.com/angelmondragon/shiplist-backend/pkg/outbox"
	"github.com/angelmondragon/shiplist-backend/pkg/outbox/payloads"
)

// ErrUnsupportedEvent marks rows whose event type has no descriptor.
var ErrUnsupportedEvent = errors.New("unsupported event type")

// EventDescriptor says where an event type is published and what its data decodes to.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() any
}

type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

// NonRetryableError tells the publisher to park the row instead of retrying it.
type NonRetryableError struct {
	Err error
}

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error { return e.Err }

func permanent(format string, args ...any) error {
	return NonRetryableError{Err: fmt.Errorf(format, args...)}
}

type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

func describe[T any](eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, topic string) EventDescriptor {
	return EventDescriptor{
		EventType:      eventType,
		AggregateType:  aggregate,
		Topic:          topic,
		PayloadFactory: func() any { return new(T) },
	}
}

// NewEventRegistry routes every shipment event to the manufacturing topic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	topic := strings.TrimSpace(cfg.ManufacturingTopic)
	if topic == "" {
		return nil, errors.New("manufacturing topic is required")
	}
	descriptors := []EventDescriptor{
		describe[payloads.RowOrderCommittedEvent](enums.EventRowOrderCommitted, enums.AggregateShipmentList, topic),
		describe[payloads.RowsImportedEvent](enums.EventRowsImported, enums.AggregateShipmentList, topic),
		describe[payloads.RowStatusChangedEvent](enums.EventRowStatusChanged, enums.AggregateShipmentRow, topic),
		describe[payloads.RowNoteAddedEvent](enums.EventRowNoteAdded, enums.AggregateShipmentRow, topic),
	}
	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor, len(descriptors))}
	for _, desc := range descriptors {
		reg.entries[desc.EventType] = desc
	}
	return reg, nil
}

func (r *EventRegistry) Descriptor(eventType enums.OutboxEventType) (EventDescriptor, bool) {
	desc, ok := r.entries[eventType]
	return desc, ok
}

// Resolve checks the row against its descriptor and decodes the typed
// payload. Every failure is non-retryable: a bad row never heals by itself.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	switch {
	case !ok:
		return nil, NonRetryableError{Err: fmt.Errorf("%w %s", ErrUnsupportedEvent, event.EventType)}
	case desc.AggregateType != event.AggregateType:
		return nil, permanent("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType)
	case strings.TrimSpace(event.AggregateID) == "":
		return nil, permanent("missing aggregate_id")
	}

	envelope, err := outbox.DecodeEnvelope(event.Payload)
	if err != nil {
		return nil, NonRetryableError{Err: err}
	}
	if !envelope.HasData() {
		return nil, permanent("payload missing for %s", event.EventType)
	}
	payload := desc.PayloadFactory()
	if err := envelope.DecodeData(payload); err != nil {
		return nil, permanent("decode %s payload: %w", event.EventType, err)
	}
	return &ResolvedEvent{Descriptor: desc, Envelope: envelope, Payload: payload}, nil
}
