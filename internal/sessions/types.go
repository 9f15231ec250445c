package sessions

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/shiplist-backend/pkg/enums"
	"github.com/angelmondragon/shiplist-backend/pkg/outbox"
)

// Editor identifies who owns a table session.
type Editor struct {
	ID   uuid.UUID
	Role enums.EditorRole
}

func (e Editor) actor() outbox.ActorRef {
	return outbox.ActorRef{EditorID: e.ID, Role: string(e.Role)}
}

// GestureKind names a pointer or touch event forwarded by the client.
type GestureKind string

const (
	GestureDragStart  GestureKind = "drag_start"
	GestureDragOver   GestureKind = "drag_over"
	GestureDrop       GestureKind = "drop"
	GestureDragEnd    GestureKind = "drag_end"
	GestureTouchStart GestureKind = "touch_start"
	GestureTouchMove  GestureKind = "touch_move"
	GestureTouchEnd   GestureKind = "touch_end"
)

var validGestureKinds = []GestureKind{
	GestureDragStart,
	GestureDragOver,
	GestureDrop,
	GestureDragEnd,
	GestureTouchStart,
	GestureTouchMove,
	GestureTouchEnd,
}

// IsValid reports whether the value is a known gesture.
func (k GestureKind) IsValid() bool {
	for _, candidate := range validGestureKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseGestureKind converts raw input into a GestureKind.
func ParseGestureKind(value string) (GestureKind, error) {
	for _, candidate := range validGestureKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid gesture %q", value)
}

// Gesture is one pointer or touch event. Index addresses the row the event
// happened on; Over is the row under a moving finger, if any.
type Gesture struct {
	Kind  GestureKind
	Index int
	X     float64
	Y     float64
	Over  *int
}
