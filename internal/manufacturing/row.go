// Package manufacturing holds the ordering, splitting and filtering state
// machine behind the manufacturing shipment list.
package manufacturing

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shiplist-backend/pkg/enums"
)

// RowID identifies a row within a materialized sequence.
type RowID string

// SplitTag labels the two halves of a split row.
type SplitTag string

const (
	SplitFirst  SplitTag = "1/2"
	SplitSecond SplitTag = "2/2"
)

// IsValid reports whether the tag is one of the known split tags.
func (t SplitTag) IsValid() bool {
	return t == SplitFirst || t == SplitSecond
}

// Line is the shipment line item shape shared by plain and split rows.
type Line struct {
	ID             RowID           `json:"id"`
	Status         enums.RowStatus `json:"status"`
	ShipmentNumber string          `json:"shipment_number"`
	Type           string          `json:"type"`
	Formula        string          `json:"formula"`
	Size           string          `json:"size"`
	Quantity       int             `json:"quantity"`
	Tote           string          `json:"tote"`
	Volume         decimal.Decimal `json:"volume"`
	Measure        string          `json:"measure"`
}

// SplitOrigin marks a row as one half of a split.
//
// OriginalID is the root row the chain of splits started from. SourceID is the
// nearest ancestor that exists in the source data, which is the row a local
// split replaces. Pending is true until the split has been committed and
// comes back from the source.
type SplitOrigin struct {
	Tag        SplitTag `json:"tag"`
	OriginalID RowID    `json:"original_id"`
	SourceID   RowID    `json:"source_id"`
	Pending    bool     `json:"pending,omitempty"`
}

// Row is either a plain line or a split line when Split is set.
type Row struct {
	Line
	Split *SplitOrigin `json:"split,omitempty"`
}

// IsSplit reports whether the row came from a split.
func (r Row) IsSplit() bool {
	return r.Split != nil
}

// IsPendingSplit reports whether the row is a split that only exists locally.
func (r Row) IsPendingSplit() bool {
	return r.Split != nil && r.Split.Pending
}

// OriginalID returns the root row id for split rows and "" otherwise.
func (r Row) OriginalID() RowID {
	if r.Split == nil {
		return ""
	}
	return r.Split.OriginalID
}

// Clone returns a copy that shares no memory with r.
func (r Row) Clone() Row {
	out := r
	if r.Split != nil {
		origin := *r.Split
		out.Split = &origin
	}
	return out
}

// Field returns the display string of a column value.
func (r Row) Field(col Column) string {
	switch col {
	case ColumnStatus:
		return string(r.Status)
	case ColumnShipmentNumber:
		return r.ShipmentNumber
	case ColumnType:
		return r.Type
	case ColumnFormula:
		return r.Formula
	case ColumnSize:
		return r.Size
	case ColumnQuantity:
		return strconv.Itoa(r.Quantity)
	case ColumnTote:
		return r.Tote
	case ColumnVolume:
		return r.Volume.String()
	case ColumnMeasure:
		return r.Measure
	default:
		return ""
	}
}

func cloneRows(rows []Row) []Row {
	if rows == nil {
		return nil
	}
	out := make([]Row, len(rows))
	for i, row := range rows {
		out[i] = row.Clone()
	}
	return out
}

func indexOf(rows []Row, id RowID) int {
	for i, row := range rows {
		if row.ID == id {
			return i
		}
	}
	return -1
}

func hasPendingSplits(rows []Row) bool {
	for _, row := range rows {
		if row.IsPendingSplit() {
			return true
		}
	}
	return false
}
