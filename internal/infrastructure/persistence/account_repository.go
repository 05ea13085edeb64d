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

// GormAccountRepository implements AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindByNetSuiteID finds an account by its NetSuite id
func (r *GormAccountRepository) FindByNetSuiteID(ctx context.Context, netsuiteID int64) (*erp.Account, error) {
	var model models.AccountModel
	if err := r.db.WithContext(ctx).
		First(&model, "net_suite_id = ?", netsuiteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Upsert inserts the account or fully overwrites the existing row with the
// same NetSuite id. Accounts carry no local edits, so the overwrite is
// unconditional.
func (r *GormAccountRepository) Upsert(ctx context.Context, account *erp.Account) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.AccountModel
		err := tx.First(&existing, "net_suite_id = ?", account.NetSuiteID).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now()
		model := models.AccountModelFromDomain(account)
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

// Ensure GormAccountRepository implements AccountRepository
var _ erp.AccountRepository = (*GormAccountRepository)(nil)
