package shipments

import (
	"github.com/angelmondragon/shiplist-backend/internal/manufacturing"
	"github.com/angelmondragon/shiplist-backend/pkg/db/models"
)

// ToRow converts a stored row into the table row shape. Persisted splits are
// never pending.
func ToRow(m models.ShipmentRow) manufacturing.Row {
	row := manufacturing.Row{Line: manufacturing.Line{
		ID:             manufacturing.RowID(m.ID),
		Status:         m.Status,
		ShipmentNumber: m.ShipmentNumber,
		Type:           m.Type,
		Formula:        m.Formula,
		Size:           m.Size,
		Quantity:       m.Quantity,
		Tote:           m.Tote,
		Volume:         m.Volume,
		Measure:        m.Measure,
	}}
	if m.SplitTag != nil {
		row.Split = &manufacturing.SplitOrigin{
			Tag:        manufacturing.SplitTag(*m.SplitTag),
			OriginalID: manufacturing.RowID(deref(m.OriginalID)),
			SourceID:   manufacturing.RowID(deref(m.SourceID)),
		}
	}
	return row
}

// ToRows converts stored rows in order.
func ToRows(rows []models.ShipmentRow) []manufacturing.Row {
	out := make([]manufacturing.Row, len(rows))
	for i, m := range rows {
		out[i] = ToRow(m)
	}
	return out
}

func fromRow(row manufacturing.Row, position int) models.ShipmentRow {
	m := models.ShipmentRow{
		ID:             string(row.ID),
		Position:       position,
		Status:         row.Status,
		ShipmentNumber: row.ShipmentNumber,
		Type:           row.Type,
		Formula:        row.Formula,
		Size:           row.Size,
		Quantity:       row.Quantity,
		Tote:           row.Tote,
		Volume:         row.Volume,
		Measure:        row.Measure,
	}
	if row.Split != nil {
		m.SplitTag = ptr(string(row.Split.Tag))
		m.OriginalID = ptr(string(row.Split.OriginalID))
		m.SourceID = ptr(string(row.Split.SourceID))
	}
	return m
}

func toNoteDTO(n models.RowNote) NoteDTO {
	return NoteDTO{
		ID:        n.ID,
		RowID:     n.RowID,
		EditorID:  n.EditorID,
		Body:      n.Body,
		CreatedAt: n.CreatedAt,
	}
}

func ptr(s string) *string {
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
