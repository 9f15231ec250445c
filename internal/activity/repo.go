package activity

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/shiplist-backend/pkg/db/models"
	"github.com/angelmondragon/shiplist-backend/pkg/enums"
)

// Repository persists projected row activity.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateBatch(ctx context.Context, entries []models.RowActivity) (int64, error)
	ListByRow(ctx context.Context, rowID string, limit int, types ...enums.OutboxEventType) ([]models.RowActivity, error)
	DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an activity repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// CreateBatch inserts entries, ignoring ones already projected for the same
// event and row. It returns the number of rows written.
func (r *repositoryImpl) CreateBatch(ctx context.Context, entries []models.RowActivity) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entries)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) ListByRow(ctx context.Context, rowID string, limit int, types ...enums.OutboxEventType) ([]models.RowActivity, error) {
	var entries []models.RowActivity
	q := r.db.WithContext(ctx).Where("row_id = ?", rowID)
	if len(types) > 0 {
		q = q.Where("event_type IN ?", types)
	}
	err := q.Order("occurred_at DESC, created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// DeleteOlderThan prunes entries whose event happened before cutoff.
func (r *repositoryImpl) DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	result := db.WithContext(ctx).
		Where("occurred_at < ?", cutoff).
		Delete(&models.RowActivity{})
	return result.RowsAffected, result.Error
}
