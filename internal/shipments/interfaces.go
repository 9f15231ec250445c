package shipments

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/shiplist-backend/pkg/db/models"
	"github.com/angelmondragon/shiplist-backend/pkg/enums"
)

// Repository defines persistence operations for shipment rows and notes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListRows(ctx context.Context) ([]models.ShipmentRow, error)
	ListShipmentNumbers(ctx context.Context) ([]string, error)
	FindRow(ctx context.Context, id string) (*models.ShipmentRow, error)
	FindDescendant(ctx context.Context, originalID string) (*models.ShipmentRow, error)
	MaxPosition(ctx context.Context) (int, error)
	CreateRows(ctx context.Context, rows []models.ShipmentRow) error
	UpdatePositions(ctx context.Context, positions map[string]int) error
	DeleteRows(ctx context.Context, ids []string) error
	UpdateStatus(ctx context.Context, id string, status enums.RowStatus) (int64, error)
	CreateNote(ctx context.Context, note *models.RowNote) (*models.RowNote, error)
	ListNotes(ctx context.Context, rowID string) ([]models.RowNote, error)
}
