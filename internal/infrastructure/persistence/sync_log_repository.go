package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/vendorportal/backend/internal/domain/erp"
	"github.com/vendorportal/backend/internal/infrastructure/persistence/models"
)

// GormSyncLogRepository implements SyncLogRepository using GORM
type GormSyncLogRepository struct {
	db *gorm.DB
}

// NewGormSyncLogRepository creates a new GormSyncLogRepository
func NewGormSyncLogRepository(db *gorm.DB) *GormSyncLogRepository {
	return &GormSyncLogRepository{db: db}
}

// Create inserts the opening "running" row.
func (r *GormSyncLogRepository) Create(ctx context.Context, entry *erp.SyncLogEntry) error {
	return r.db.WithContext(ctx).Create(models.SyncLogModelFromDomain(entry)).Error
}

// Finalize writes the terminal status and counters. The audit trail is
// append-only; only the completion columns ever change.
func (r *GormSyncLogRepository) Finalize(ctx context.Context, entry *erp.SyncLogEntry) error {
	return r.db.WithContext(ctx).
		Model(&models.SyncLogModel{}).
		Where("id = ?", entry.ID).
		Updates(map[string]any{
			"status":            string(entry.Status),
			"finished_at":       entry.FinishedAt,
			"records_processed": entry.RecordsProcessed,
			"records_failed":    entry.RecordsFailed,
			"error":             entry.Error,
		}).Error
}

// List returns entries newest first plus the total count.
func (r *GormSyncLogRepository) List(ctx context.Context, filter erp.SyncLogFilter) ([]erp.SyncLogEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SyncLogModel{})

	if filter.Type != nil {
		query = query.Where("type = ?", string(*filter.Type))
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var logModels []models.SyncLogModel
	if err := query.Order("started_at DESC").Find(&logModels).Error; err != nil {
		return nil, 0, err
	}

	entries := make([]erp.SyncLogEntry, len(logModels))
	for i := range logModels {
		entries[i] = *logModels[i].ToDomain()
	}
	return entries, total, nil
}

// Ensure GormSyncLogRepository implements SyncLogRepository
var _ erp.SyncLogRepository = (*GormSyncLogRepository)(nil)
