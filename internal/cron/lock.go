package cron

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	pkgredis "github.com/angelmondragon/shiplist-backend/pkg/redis"
)

const defaultLockTTL = 2 * time.Hour

var (
	errLockStoreRequired = errors.New("cron lock: redis store required")
	errLockKeyRequired   = errors.New("cron lock: key required")
)

// Lock keeps a cycle from running on two replicas at once.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock is a lease on a single key. The value written is a per-acquire
// token, so a replica only ever deletes a lease it still holds.
type RedisLock struct {
	store lockStore
	key   string
	ttl   time.Duration
	token func() string

	mu    sync.Mutex
	owned string
}

func NewRedisLock(store lockStore, key string, ttl time.Duration) (*RedisLock, error) {
	switch {
	case store == nil:
		return nil, errLockStoreRequired
	case key == "":
		return nil, errLockKeyRequired
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{store: store, key: key, ttl: ttl, token: uuid.NewString}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	token := l.token()
	won, err := l.store.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	if won {
		l.owned = token
	}
	return won, nil
}

// Release is a no-op when this instance never won the lease or the lease
// expired and was taken by another replica.
func (l *RedisLock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.owned == "" {
		return nil
	}
	token := l.owned
	l.owned = ""

	current, err := l.store.Get(ctx, l.key)
	switch {
	case pkgredis.IsNil(err):
		return nil
	case err != nil:
		return fmt.Errorf("read lease %s: %w", l.key, err)
	case current != token:
		return nil
	}
	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("drop lease %s: %w", l.key, err)
	}
	return nil
}

// LocalLock serializes runs inside one process. shiplistctl uses it for
// one-off prunes that have no redis.
type LocalLock struct {
	slot chan struct{}
}

func NewLocalLock() *LocalLock {
	return &LocalLock{slot: make(chan struct{}, 1)}
}

func (l *LocalLock) Acquire(context.Context) (bool, error) {
	select {
	case l.slot <- struct{}{}:
		return true, nil
	default:
		return false, nil
	}
}

func (l *LocalLock) Release(context.Context) error {
	select {
	case <-l.slot:
	default:
	}
	return nil
}
