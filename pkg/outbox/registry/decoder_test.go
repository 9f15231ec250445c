package registry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/shiplist-backend/pkg/enums"
	"github.com/angelmondragon/shiplist-backend/pkg/outbox/payloads"
)

func TestDecoderRegistryDecodesByVersion(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventRowNoteAdded, 1, DecodeJSON[payloads.RowNoteAddedEvent]())
	reg.Register(enums.EventRowNoteAdded, 2, func(json.RawMessage) (any, error) { return "v2", nil })

	out, err := reg.Decode(enums.EventRowNoteAdded, 0, json.RawMessage(`{"body":"check label"}`))
	require.NoError(t, err)
	_, ok := out.(*payloads.RowNoteAddedEvent)
	assert.True(t, ok, "version 0 falls back to v1, got %T", out)

	out, err = reg.Decode(enums.EventRowNoteAdded, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, "v2", out)

	assert.Equal(t, []int{1, 2}, reg.Versions(enums.EventRowNoteAdded))
	assert.Empty(t, reg.Versions(enums.EventRowsImported))
}

func TestDecoderRegistryMissingDecoder(t *testing.T) {
	reg := NewDecoderRegistry()
	_, err := reg.Decode(enums.EventRowStatusChanged, 3, json.RawMessage(`{}`))
	require.ErrorIs(t, err, ErrNoDecoder)
	assert.Contains(t, err.Error(), "row_status_changed@v3")
}

func TestDecodeJSONRejectsMalformedData(t *testing.T) {
	_, err := DecodeJSON[payloads.RowStatusChangedEvent]()(json.RawMessage(`{`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoDecoder)
}
