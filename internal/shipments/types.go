package shipments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shiplist-backend/pkg/enums"
)

// ListAggregateID is the aggregate id of events that concern the whole
// production list rather than a single row.
const ListAggregateID = "production-list"

// ImportRow is one shipment line read from an external list.
type ImportRow struct {
	ID             string
	Status         enums.RowStatus
	ShipmentNumber string
	Type           string
	Formula        string
	Size           string
	Quantity       int
	Tote           string
	Volume         decimal.Decimal
	Measure        string
}

// ImportResult summarises an import.
type ImportResult struct {
	Imported      int      `json:"imported"`
	FirstPosition int      `json:"first_position"`
	IDs           []string `json:"ids"`
}

// CommitResult summarises a committed order.
type CommitResult struct {
	Rows        int `json:"rows"`
	SplitsSaved int `json:"splits_saved"`
	Removed     int `json:"removed"`
}

// StatusResult reports where a status edit landed.
type StatusResult struct {
	RowID    string          `json:"row_id"`
	StoredID string          `json:"stored_id"`
	Status   enums.RowStatus `json:"status"`
	Previous enums.RowStatus `json:"previous"`
	Updated  int64           `json:"updated"`
}

// NoteDTO is the API shape of a row note.
type NoteDTO struct {
	ID        uuid.UUID `json:"id"`
	RowID     string    `json:"row_id"`
	EditorID  uuid.UUID `json:"editor_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
