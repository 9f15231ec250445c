package sessions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	pkgredis "github.com/angelmondragon/shiplist-backend/pkg/redis"
)

// ErrSessionBusy is returned when another transition of the same editor held
// the table for the whole wait budget.
var ErrSessionBusy = errors.New("table session busy")

const (
	defaultLockTTL  = 10 * time.Second
	defaultLockWait = 3 * time.Second
	lockPollEvery   = 20 * time.Millisecond
	releaseTimeout  = 2 * time.Second
)

// Locker serializes the transitions of one editor's table. The returned
// unlock must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, editorID uuid.UUID) (unlock func(context.Context) error, err error)
}

type lockClient interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	TableLockKey(editorID string) string
}

// RedisLocker holds a short lease per editor, so api replicas apply one
// transition of a table at a time. The lease value is a per-acquire token and
// only its holder deletes it.
type RedisLocker struct {
	client lockClient
	ttl    time.Duration
	wait   time.Duration
	poll   time.Duration
	token  func() string
}

// NewRedisLocker builds a lease based locker. Zero durations take defaults.
func NewRedisLocker(client lockClient, ttl, wait time.Duration) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.New("redis lock client required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if wait <= 0 {
		wait = defaultLockWait
	}
	return &RedisLocker{client: client, ttl: ttl, wait: wait, poll: lockPollEvery, token: uuid.NewString}, nil
}

func (l *RedisLocker) Lock(ctx context.Context, editorID uuid.UUID) (func(context.Context) error, error) {
	key := l.client.TableLockKey(editorID.String())
	token := l.token()

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()
	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		won, err := l.client.SetNX(waitCtx, key, token, l.ttl)
		if err != nil && waitCtx.Err() == nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if won {
			return func(ctx context.Context) error { return l.release(ctx, key, token) }, nil
		}
		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, ErrSessionBusy
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) release(ctx context.Context, key, token string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	current, err := l.client.Get(ctx, key)
	switch {
	case pkgredis.IsNil(err):
		return nil
	case err != nil:
		return fmt.Errorf("read lease %s: %w", key, err)
	case current != token:
		return nil
	}
	if err := l.client.Del(ctx, key); err != nil {
		return fmt.Errorf("drop lease %s: %w", key, err)
	}
	return nil
}

// LocalLocker serializes transitions inside one process. It backs the
// in-memory session store.
type LocalLocker struct {
	wait time.Duration

	mu    sync.Mutex
	slots map[uuid.UUID]*localSlot
}

type localSlot struct {
	held chan struct{}
	refs int
}

// NewLocalLocker returns a locker that waits up to wait for a busy table.
func NewLocalLocker(wait time.Duration) *LocalLocker {
	if wait <= 0 {
		wait = defaultLockWait
	}
	return &LocalLocker{wait: wait, slots: map[uuid.UUID]*localSlot{}}
}

func (l *LocalLocker) Lock(ctx context.Context, editorID uuid.UUID) (func(context.Context) error, error) {
	l.mu.Lock()
	slot, ok := l.slots[editorID]
	if !ok {
		slot = &localSlot{held: make(chan struct{}, 1)}
		l.slots[editorID] = slot
	}
	slot.refs++
	l.mu.Unlock()

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case slot.held <- struct{}{}:
		var once sync.Once
		return func(context.Context) error {
			once.Do(func() {
				<-slot.held
				l.drop(editorID, slot)
			})
			return nil
		}, nil
	case <-ctx.Done():
		l.drop(editorID, slot)
		return nil, ctx.Err()
	case <-timer.C:
		l.drop(editorID, slot)
		return nil, ErrSessionBusy
	}
}

func (l *LocalLocker) drop(editorID uuid.UUID, slot *localSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, editorID)
	}
}
