package sessions

import (
	"github.com/angelmondragon/shiplist-backend/internal/manufacturing"
	"github.com/angelmondragon/shiplist-backend/pkg/enums"
)

type eventKind int

const (
	eventSortExited eventKind = iota
	eventOrderCommitted
	eventNoteAdded
	eventStatusChanged
)

type tableEvent struct {
	kind   eventKind
	rows   []manufacturing.Row
	rowID  manufacturing.RowID
	text   string
	status enums.RowStatus
}

// buffer collects table notifications so they can be dispatched after the
// transition returns.
type buffer struct {
	events []tableEvent
}

func (b *buffer) SortExited() {
	b.events = append(b.events, tableEvent{kind: eventSortExited})
}

func (b *buffer) OrderCommitted(rows []manufacturing.Row) {
	b.events = append(b.events, tableEvent{kind: eventOrderCommitted, rows: rows})
}

func (b *buffer) NoteAdded(rowID manufacturing.RowID, text string) {
	b.events = append(b.events, tableEvent{kind: eventNoteAdded, rowID: rowID, text: text})
}

func (b *buffer) StatusChanged(rowID manufacturing.RowID, status enums.RowStatus) {
	b.events = append(b.events, tableEvent{kind: eventStatusChanged, rowID: rowID, status: status})
}
