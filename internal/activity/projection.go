package activity

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/angelmondragon/shiplist-backend/internal/shipments"
	"github.com/angelmondragon/shiplist-backend/pkg/db/models"
	"github.com/angelmondragon/shiplist-backend/pkg/enums"
	"github.com/angelmondragon/shiplist-backend/pkg/outbox"
	"github.com/angelmondragon/shiplist-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/shiplist-backend/pkg/outbox/registry"
)

const noteSummaryRunes = 80

// NewDecoders registers the payload versions this projection understands.
func NewDecoders() *registry.DecoderRegistry {
	reg := registry.NewDecoderRegistry()
	reg.Register(enums.EventRowOrderCommitted, 1, registry.DecodeJSON[payloads.RowOrderCommittedEvent]())
	reg.Register(enums.EventRowStatusChanged, 1, registry.DecodeJSON[payloads.RowStatusChangedEvent]())
	reg.Register(enums.EventRowNoteAdded, 1, registry.DecodeJSON[payloads.RowNoteAddedEvent]())
	reg.Register(enums.EventRowsImported, 1, registry.DecodeJSON[payloads.RowsImportedEvent]())
	return reg
}

// project turns one decoded event into the history entries it produces.
func project(eventID uuid.UUID, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope, payload interface{}) ([]models.RowActivity, error) {
	base := models.RowActivity{
		EventID:    eventID,
		EventType:  eventType,
		OccurredAt: envelope.OccurredAt.UTC(),
	}
	if envelope.Actor != nil && envelope.Actor.EditorID != uuid.Nil {
		id := envelope.Actor.EditorID
		base.EditorID = &id
	}
	entry := func(rowID, summary string, data any) (models.RowActivity, error) {
		e := base
		e.RowID = rowID
		e.Summary = summary
		raw, err := json.Marshal(data)
		if err != nil {
			return models.RowActivity{}, err
		}
		e.Data = raw
		return e, nil
	}

	var out []models.RowActivity
	add := func(rowID, summary string, data any) error {
		e, err := entry(rowID, summary, data)
		if err != nil {
			return err
		}
		out = append(out, e)
		return nil
	}

	switch p := payload.(type) {
	case *payloads.RowOrderCommittedEvent:
		for _, row := range p.Rows {
			summary := fmt.Sprintf("moved to position %d", row.Position)
			if row.SplitTag != "" {
				summary = fmt.Sprintf("saved as batch %s of %s with quantity %d at position %d", row.SplitTag, row.OriginalID, row.Quantity, row.Position)
			}
			if err := add(row.RowID, summary, row); err != nil {
				return nil, err
			}
		}
	case *payloads.RowStatusChangedEvent:
		summary := fmt.Sprintf("status changed from %s to %s", p.Previous, p.Status)
		if err := add(p.RowID, summary, p); err != nil {
			return nil, err
		}
		if p.StoredID != "" && p.StoredID != p.RowID {
			if err := add(p.StoredID, summary+" via "+p.RowID, p); err != nil {
				return nil, err
			}
		}
	case *payloads.RowNoteAddedEvent:
		if err := add(p.RowID, "note added: "+truncate(p.Body, noteSummaryRunes), p); err != nil {
			return nil, err
		}
	case *payloads.RowsImportedEvent:
		summary := fmt.Sprintf("%d rows imported", p.Count)
		if p.Source != "" {
			summary += " from " + p.Source
		}
		if err := add(shipments.ListAggregateID, summary, p); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported payload %T", payload)
	}
	return out, nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
