package shipments

import (
	"context"
	"database/sql"
	"sort"

	"gorm.io/gorm"

	"github.com/angelmondragon/shiplist-backend/pkg/db/models"
	"github.com/angelmondragon/shiplist-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a shipments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListRows(ctx context.Context) ([]models.ShipmentRow, error) {
	var rows []models.ShipmentRow
	err := r.db.WithContext(ctx).
		Order("position ASC").
		Order("id ASC").
		Find(&rows).
		Error
	return rows, err
}

func (r *repository) ListShipmentNumbers(ctx context.Context) ([]string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).
		Model(&models.ShipmentRow{}).
		Distinct("shipment_number").
		Pluck("shipment_number", &numbers).
		Error
	if err != nil {
		return nil, err
	}
	sort.Strings(numbers)
	return numbers, nil
}

func (r *repository) FindRow(ctx context.Context, id string) (*models.ShipmentRow, error) {
	var row models.ShipmentRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindDescendant returns the first stored split row, by position, whose
// root is originalID.
func (r *repository) FindDescendant(ctx context.Context, originalID string) (*models.ShipmentRow, error) {
	var row models.ShipmentRow
	err := r.db.WithContext(ctx).
		Where("original_id = ?", originalID).
		Order("position ASC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) MaxPosition(ctx context.Context) (int, error) {
	var max sql.NullInt64
	err := r.db.WithContext(ctx).
		Model(&models.ShipmentRow{}).
		Select("MAX(position)").
		Row().
		Scan(&max)
	if err != nil {
		return 0, err
	}
	return int(max.Int64), nil
}

func (r *repository) CreateRows(ctx context.Context, rows []models.ShipmentRow) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *repository) UpdatePositions(ctx context.Context, positions map[string]int) error {
	ids := make([]string, 0, len(positions))
	for id := range positions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		err := r.db.WithContext(ctx).
			Model(&models.ShipmentRow{}).
			Where("id = ?", id).
			Update("position", positions[id]).
			Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) DeleteRows(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&models.ShipmentRow{}).
		Error
}

// UpdateStatus sets the status of the row and of every persisted split that
// descends from it.
func (r *repository) UpdateStatus(ctx context.Context, id string, status enums.RowStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ShipmentRow{}).
		Where("id = ? OR original_id = ?", id, id).
		Update("status", status)
	return res.RowsAffected, res.Error
}

func (r *repository) CreateNote(ctx context.Context, note *models.RowNote) (*models.RowNote, error) {
	if err := r.db.WithContext(ctx).Create(note).Error; err != nil {
		return nil, err
	}
	return note, nil
}

func (r *repository) ListNotes(ctx context.Context, rowID string) ([]models.RowNote, error) {
	var notes []models.RowNote
	err := r.db.WithContext(ctx).
		Where("row_id = ?", rowID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&notes).
		Error
	return notes, err
}
