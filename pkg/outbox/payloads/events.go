package payloads

import (
	"github.com/angelmondragon/shiplist-backend/pkg/enums"
	"github.com/google/uuid"
)

// CommittedRow is one entry of a committed manufacturing order.
type CommittedRow struct {
	RowID      string `json:"row_id"`
	Position   int    `json:"position"`
	Quantity   int    `json:"quantity"`
	SplitTag   string `json:"split_tag,omitempty"`
	OriginalID string `json:"original_id,omitempty"`
}

// RowOrderCommittedEvent is emitted when an editor saves a new row order.
type RowOrderCommittedEvent struct {
	Rows        []CommittedRow `json:"rows"`
	SplitsSaved int            `json:"splits_saved"`
}

// RowStatusChangedEvent is emitted whenever a row status is persisted.
type RowStatusChangedEvent struct {
	RowID    string          `json:"row_id"`
	StoredID string          `json:"stored_id"`
	Status   enums.RowStatus `json:"status"`
	Previous enums.RowStatus `json:"previous"`
}

// RowNoteAddedEvent is emitted for every production note.
type RowNoteAddedEvent struct {
	NoteID uuid.UUID `json:"note_id"`
	RowID  string    `json:"row_id"`
	Body   string    `json:"body"`
}

// RowsImportedEvent summarises a shipment list import.
type RowsImportedEvent struct {
	Count           int      `json:"count"`
	FirstPosition   int      `json:"first_position"`
	ShipmentNumbers []string `json:"shipment_numbers"`
	Source          string   `json:"source,omitempty"`
}
