package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shiplist-backend/pkg/enums"
)

// RowActivity is one entry of a row's history, projected from a domain event.
type RowActivity struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	EventID    uuid.UUID             `gorm:"column:event_id;type:uuid;not null;uniqueIndex:row_activity_event_row_idx"`
	RowID      string                `gorm:"column:row_id;type:text;not null;uniqueIndex:row_activity_event_row_idx;index"`
	EventType  enums.OutboxEventType `gorm:"column:event_type;type:text;not null"`
	EditorID   *uuid.UUID            `gorm:"column:editor_id;type:uuid"`
	Summary    string                `gorm:"column:summary;type:text;not null"`
	Data       json.RawMessage       `gorm:"column:data;type:jsonb"`
	OccurredAt time.Time             `gorm:"column:occurred_at;not null"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (RowActivity) TableName() string { return "row_activity" }

func (a *RowActivity) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
