package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerValidates(t *testing.T) {
	_, err := NewManager(nil, time.Hour)
	require.Error(t, err)

	_, err = NewManager(mapStore{}, -time.Second)
	require.Error(t, err)
}

func TestReserveRejectsMissingIdentifiers(t *testing.T) {
	manager, err := NewManager(mapStore{}, time.Hour)
	require.NoError(t, err)

	_, _, err = manager.Reserve(context.Background(), "", uuid.New())
	assert.ErrorIs(t, err, ErrConsumerRequired)

	_, _, err = manager.Reserve(context.Background(), "row-activity", uuid.Nil)
	assert.ErrorIs(t, err, ErrEventRequired)
}

func TestReserveScopesKeysPerConsumer(t *testing.T) {
	store := mapStore{}
	manager, err := NewManager(store, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()
	eventID := uuid.New()

	_, dup, err := manager.Reserve(ctx, "row-activity", eventID)
	require.NoError(t, err)
	assert.False(t, dup)

	_, dup, err = manager.Reserve(ctx, "audit", eventID)
	require.NoError(t, err)
	assert.False(t, dup, "a different consumer holds its own claim")

	assert.Contains(t, store, "sl:idempotency:evt:row-activity:"+eventID.String())

	seen, err := manager.Seen(ctx, "row-activity", eventID)
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestNilReservationReleaseIsNoop(t *testing.T) {
	var res *Reservation
	assert.NoError(t, res.Release(context.Background()))
}
