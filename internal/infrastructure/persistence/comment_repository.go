package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendorportal/backend/internal/domain/erp"
	"github.com/vendorportal/backend/internal/infrastructure/persistence/models"
)

// GormCommentRepository implements CommentRepository using GORM
type GormCommentRepository struct {
	db *gorm.DB
}

// NewGormCommentRepository creates a new GormCommentRepository
func NewGormCommentRepository(db *gorm.DB) *GormCommentRepository {
	return &GormCommentRepository{db: db}
}

// FindPendingForPush returns the non-internal comments for a purchase order
// that have not yet been replayed into NetSuite, oldest first.
func (r *GormCommentRepository) FindPendingForPush(ctx context.Context, purchaseOrderID uuid.UUID) ([]erp.PurchaseOrderComment, error) {
	var commentModels []models.PurchaseOrderCommentModel
	if err := r.db.WithContext(ctx).
		Where("purchase_order_id = ? AND internal = ? AND pushed_to_erp = ?", purchaseOrderID, false, false).
		Order("created_at ASC").
		Find(&commentModels).Error; err != nil {
		return nil, err
	}

	comments := make([]erp.PurchaseOrderComment, len(commentModels))
	for i := range commentModels {
		comments[i] = *commentModels[i].ToDomain()
	}
	return comments, nil
}

// MarkPushed flags the given comments as replayed.
func (r *GormCommentRepository) MarkPushed(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.PurchaseOrderCommentModel{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"pushed_to_erp": true,
			"pushed_at":     now,
		}).Error
}

// Ensure GormCommentRepository implements CommentRepository
var _ erp.CommentRepository = (*GormCommentRepository)(nil)
