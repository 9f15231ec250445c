package outbox

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/shiplist-backend/pkg/enums"
)

func TestNewEnvelopeDefaults(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 30, 0, 0, time.FixedZone("CET", 3600))

	env, err := newEnvelope(DomainEvent{
		EventType: enums.EventRowNoteAdded,
		Data:      map[string]string{"note": "check pallet"},
	}, now)
	require.NoError(t, err)
	assert.Equal(t, CurrentEnvelopeVersion, env.Version)
	assert.Equal(t, now.UTC(), env.OccurredAt)
	assert.NotEmpty(t, env.EventID)
	assert.JSONEq(t, `{"note":"check pallet"}`, string(env.Data))

	explicit := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	env, err = newEnvelope(DomainEvent{Version: 2, OccurredAt: explicit, Data: 1}, now)
	require.NoError(t, err)
	assert.Equal(t, 2, env.Version)
	assert.Equal(t, explicit, env.OccurredAt)
}

func TestNewEnvelopeRejectsUnencodableData(t *testing.T) {
	_, err := newEnvelope(DomainEvent{EventType: enums.EventRowNoteAdded, Data: make(chan int)}, time.Now())
	require.Error(t, err)
}

func TestDecodeEnvelope(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"version":1,"eventId":"e1","occurredAt":"2026-03-04T09:30:00Z","data":{"qty":4}}`))
	require.NoError(t, err)
	assert.True(t, env.HasData())

	var payload struct {
		Qty int `json:"qty"`
	}
	require.NoError(t, env.DecodeData(&payload))
	assert.Equal(t, 4, payload.Qty)

	_, err = DecodeEnvelope([]byte(`{"version":`))
	require.Error(t, err)
}

func TestDecodeDataWithoutPayload(t *testing.T) {
	for _, raw := range []string{`{"version":1}`, `{"version":1,"data":null}`} {
		env, err := DecodeEnvelope([]byte(raw))
		require.NoError(t, err)
		assert.False(t, env.HasData())
		assert.True(t, errors.Is(env.DecodeData(&struct{}{}), ErrMissingData))
	}
}
