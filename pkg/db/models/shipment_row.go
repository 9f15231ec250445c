package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shiplist-backend/pkg/enums"
)

// ShipmentRow is one manufacturing line item in the shared production list.
type ShipmentRow struct {
	ID             string          `gorm:"column:id;type:text;primaryKey"`
	Position       int             `gorm:"column:position;not null"`
	Status         enums.RowStatus `gorm:"column:status;type:text;not null"`
	ShipmentNumber string          `gorm:"column:shipment_number;type:text;not null"`
	Type           string          `gorm:"column:type;type:text;not null"`
	Formula        string          `gorm:"column:formula;type:text;not null"`
	Size           string          `gorm:"column:size;type:text;not null"`
	Quantity       int             `gorm:"column:quantity;not null"`
	Tote           string          `gorm:"column:tote;type:text"`
	Volume         decimal.Decimal `gorm:"column:volume;type:numeric(12,3);not null"`
	Measure        string          `gorm:"column:measure;type:text"`
	SplitTag       *string         `gorm:"column:split_tag;type:text"`
	OriginalID     *string         `gorm:"column:original_id;type:text"`
	SourceID       *string         `gorm:"column:source_id;type:text"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (ShipmentRow) TableName() string { return "shipment_rows" }
