package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shiplist-backend/pkg/redis"
)

var (
	ErrConsumerRequired = errors.New("idempotency: consumer name is required")
	ErrEventRequired    = errors.New("idempotency: event id is required")
)

// Manager reserves event ids per consumer so a redelivered Pub/Sub message is
// applied at most once while its reservation lives.
// Keys look like sl:idempotency:evt:<consumer>:<event_id>.
type Manager struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

// Reservation is the handle returned for a first delivery. Release drops it
// so a failed attempt can be retried on the next delivery.
type Reservation struct {
	store redis.IdempotencyStore
	key   string
}

func NewManager(store redis.IdempotencyStore, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{store: store, ttl: ttl}, nil
}

// Reserve claims eventID for consumer. duplicate is true when another delivery
// already holds the claim; the reservation is nil in that case.
func (m *Manager) Reserve(ctx context.Context, consumer string, eventID uuid.UUID) (res *Reservation, duplicate bool, err error) {
	key, err := m.key(consumer, eventID)
	if err != nil {
		return nil, false, err
	}
	claimed, err := m.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), m.ttl)
	if err != nil {
		return nil, false, err
	}
	if !claimed {
		return nil, true, nil
	}
	return &Reservation{store: m.store, key: key}, false, nil
}

// Seen reports whether eventID is currently reserved for consumer.
func (m *Manager) Seen(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	key, err := m.key(consumer, eventID)
	if err != nil {
		return false, err
	}
	val, err := m.store.Get(ctx, key)
	if err != nil {
		if redis.IsNil(err) {
			return false, nil
		}
		return false, err
	}
	return val != "", nil
}

func (r *Reservation) Release(ctx context.Context) error {
	if r == nil {
		return nil
	}
	return r.store.Del(ctx, r.key)
}

func (m *Manager) key(consumer string, eventID uuid.UUID) (string, error) {
	if consumer == "" {
		return "", ErrConsumerRequired
	}
	if eventID == uuid.Nil {
		return "", ErrEventRequired
	}
	return m.store.IdempotencyKey("evt:"+consumer, eventID.String()), nil
}
