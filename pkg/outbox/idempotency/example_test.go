package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type mapStore map[string]string

func (s mapStore) Get(_ context.Context, key string) (string, error) { return s[key], nil }

func (s mapStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := s[key]; ok {
		return false, nil
	}
	s[key] = fmt.Sprint(value)
	return true, nil
}

func (s mapStore) IdempotencyKey(scope, id string) string { return "sl:idempotency:" + scope + ":" + id }

func (s mapStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(s, k)
	}
	return nil
}

func ExampleManager_Reserve() {
	ctx := context.Background()
	manager, _ := NewManager(mapStore{}, 7*24*time.Hour)
	eventID := uuid.MustParse("f47ac10b-58cc-4372-a567-0e02b2c3d479")

	res, dup, _ := manager.Reserve(ctx, "row-activity", eventID)
	fmt.Println("first delivery duplicate:", dup)

	_, dup, _ = manager.Reserve(ctx, "row-activity", eventID)
	fmt.Println("redelivery duplicate:", dup)

	_ = res.Release(ctx)
	_, dup, _ = manager.Reserve(ctx, "row-activity", eventID)
	fmt.Println("after release duplicate:", dup)
	// Output:
	// first delivery duplicate: false
	// redelivery duplicate: true
	// after release duplicate: false
}
