package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/angelmondragon/shiplist-backend/pkg/enums"
)

// ErrNoDecoder means the consumer has no decoder for an event type/version
// pair. Redelivery cannot fix it.
var ErrNoDecoder = errors.New("no decoder registered")

// DecodeFunc turns an envelope's data field into a typed payload.
type DecodeFunc func(data json.RawMessage) (any, error)

type decoderKey struct {
	eventType enums.OutboxEventType
	version   int
}

// DecoderRegistry maps (event type, envelope version) to a DecodeFunc.
type DecoderRegistry struct {
	mu       sync.RWMutex
	decoders map[decoderKey]DecodeFunc
}

func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{decoders: make(map[decoderKey]DecodeFunc)}
}

// DecodeJSON returns a DecodeFunc that unmarshals into a fresh *T.
func DecodeJSON[T any]() DecodeFunc {
	return func(data json.RawMessage) (any, error) {
		v := new(T)
		if err := json.Unmarshal(data, v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

func (r *DecoderRegistry) Register(eventType enums.OutboxEventType, version int, fn DecodeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[decoderKey{eventType, version}] = fn
}

// Decode runs the decoder for eventType@version. Version 0 is read as 1.
func (r *DecoderRegistry) Decode(eventType enums.OutboxEventType, version int, data json.RawMessage) (any, error) {
	if version == 0 {
		version = 1
	}
	r.mu.RLock()
	fn, ok := r.decoders[decoderKey{eventType, version}]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w for %s@v%d", ErrNoDecoder, eventType, version)
	}
	return fn(data)
}

// Versions lists the registered versions for eventType in ascending order.
func (r *DecoderRegistry) Versions(eventType enums.OutboxEventType) []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []int
	for key := range r.decoders {
		if key.eventType == eventType {
			out = append(out, key.version)
		}
	}
	sort.Ints(out)
	return out
}
