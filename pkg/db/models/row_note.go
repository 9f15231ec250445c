package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RowNote stores a production note attached to a shipment row.
type RowNote struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	RowID     string    `gorm:"column:row_id;type:text;not null;index"`
	EditorID  uuid.UUID `gorm:"column:editor_id;type:uuid;not null"`
	Body      string    `gorm:"column:body;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (RowNote) TableName() string { return "row_notes" }

func (n *RowNote) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
