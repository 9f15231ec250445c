package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shiplist-backend/internal/manufacturing"
	pkgredis "github.com/angelmondragon/shiplist-backend/pkg/redis"
)

// Store persists one table snapshot per editor. Load returns nil when the
// editor has no session yet.
type Store interface {
	Load(ctx context.Context, editorID uuid.UUID) (*manufacturing.Snapshot, error)
	Save(ctx context.Context, editorID uuid.UUID, snap manufacturing.Snapshot) error
	Delete(ctx context.Context, editorID uuid.UUID) error
}

// RedisStore keeps snapshots in redis with a sliding TTL.
type RedisStore struct {
	client pkgredis.SessionStore
	ttl    time.Duration
}

// NewRedisStore builds a redis backed session store.
func NewRedisStore(client pkgredis.SessionStore, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis session client required")
	}
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Load(ctx context.Context, editorID uuid.UUID) (*manufacturing.Snapshot, error) {
	key := s.client.TableSessionKey(editorID.String())
	raw, err := s.client.Get(ctx, key)
	if err != nil {
		if pkgredis.IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load table session: %w", err)
	}
	var snap manufacturing.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", manufacturing.ErrInvalidSnapshot, err)
	}
	if err := s.client.Touch(ctx, key, s.ttl); err != nil {
		return nil, fmt.Errorf("touch table session: %w", err)
	}
	return &snap, nil
}

func (s *RedisStore) Save(ctx context.Context, editorID uuid.UUID, snap manufacturing.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode table session: %w", err)
	}
	if err := s.client.Set(ctx, s.client.TableSessionKey(editorID.String()), string(payload), s.ttl); err != nil {
		return fmt.Errorf("save table session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, editorID uuid.UUID) error {
	return s.client.Del(ctx, s.client.TableSessionKey(editorID.String()))
}

// MemoryStore keeps snapshots in process. Used by tests and single node dev runs.
type MemoryStore struct {
	mu    sync.Mutex
	items map[uuid.UUID][]byte
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[uuid.UUID][]byte{}}
}

func (s *MemoryStore) Load(_ context.Context, editorID uuid.UUID) (*manufacturing.Snapshot, error) {
	s.mu.Lock()
	raw, ok := s.items[editorID]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	var snap manufacturing.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", manufacturing.ErrInvalidSnapshot, err)
	}
	return &snap, nil
}

func (s *MemoryStore) Save(_ context.Context, editorID uuid.UUID, snap manufacturing.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.items[editorID] = payload
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, editorID uuid.UUID) error {
	s.mu.Lock()
	delete(s.items, editorID)
	s.mu.Unlock()
	return nil
}
