package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendorportal/backend/internal/domain/erp"
	"github.com/vendorportal/backend/internal/domain/shared"
	"github.com/vendorportal/backend/internal/infrastructure/persistence/models"
)

// GormItemRepository implements ItemRepository using GORM
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GormItemRepository
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// FindByNetSuiteID finds an item by its NetSuite id
func (r *GormItemRepository) FindByNetSuiteID(ctx context.Context, netsuiteID int64) (*erp.Item, error) {
	var model models.ItemModel
	if err := r.db.WithContext(ctx).
		First(&model, "net_suite_id = ?", netsuiteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Upsert inserts the item or fully overwrites the existing row with the same
// NetSuite id.
func (r *GormItemRepository) Upsert(ctx context.Context, item *erp.Item) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.ItemModel
		err := tx.First(&existing, "net_suite_id = ?", item.NetSuiteID).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now()
		model := models.ItemModelFromDomain(item)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if model.ID == uuid.Nil {
				model.ID = uuid.New()
			}
			model.CreatedAt = now
			model.UpdatedAt = now
			return tx.Create(model).Error
		}

		model.ID = existing.ID
		model.CreatedAt = existing.CreatedAt
		model.UpdatedAt = now
		return tx.Save(model).Error
	})
}

// Ensure GormItemRepository implements ItemRepository
var _ erp.ItemRepository = (*GormItemRepository)(nil)
