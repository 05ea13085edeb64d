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

// GormPurchaseOrderRepository implements PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// FindByNetSuiteID finds a purchase order by its NetSuite id
func (r *GormPurchaseOrderRepository) FindByNetSuiteID(ctx context.Context, netsuiteID int64) (*erp.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&model, "net_suite_id = ?", netsuiteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Insert creates a new row mapped fully from NetSuite.
func (r *GormPurchaseOrderRepository) Insert(ctx context.Context, po *erp.PurchaseOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if po.ID == uuid.Nil {
			po.ID = uuid.New()
		}
		model := models.PurchaseOrderModelFromDomain(po)
		model.CreatedAt = now
		model.UpdatedAt = now

		if err := tx.Omit("Items").Create(model).Error; err != nil {
			return err
		}
		return r.replaceItems(tx, model.ID, po.Items, now)
	})
}

// UpsertBaseline writes an incoming NetSuite record. The has_vendor_updates
// flag is re-read inside the transaction: a vendor edit that landed between
// the page fetch and this write still wins. Returns true when the vendor
// fields were preserved.
func (r *GormPurchaseOrderRepository) UpsertBaseline(ctx context.Context, incoming *erp.PurchaseOrder) (bool, error) {
	var preserved bool

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.PurchaseOrderModel
		err := tx.First(&existing, "net_suite_id = ?", incoming.NetSuiteID).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now()

		if errors.Is(err, gorm.ErrRecordNotFound) {
			if incoming.ID == uuid.Nil {
				incoming.ID = uuid.New()
			}
			model := models.PurchaseOrderModelFromDomain(incoming)
			model.CreatedAt = now
			model.UpdatedAt = now
			if err := tx.Omit("Items").Create(model).Error; err != nil {
				return err
			}
			return r.replaceItems(tx, model.ID, incoming.Items, now)
		}

		updates := map[string]any{
			"tran_id":       incoming.TranID,
			"status":        incoming.Status,
			"status_name":   incoming.StatusName,
			"vendor_id":     incoming.Vendor.ID,
			"vendor_name":   incoming.Vendor.Name,
			"location_id":   incoming.Location.ID,
			"location_name": incoming.Location.Name,
			"currency_id":   incoming.Currency.ID,
			"currency_name": incoming.Currency.Name,
			"total":         incoming.Total,
			"tran_date":     incoming.TranDate,
			"due_date":      incoming.DueDate,
			"memo":          incoming.Memo,
			"updated_at":    now,
		}

		if existing.HasVendorUpdates {
			preserved = true
		} else {
			updates["vessel_name"] = incoming.VesselName
			updates["vessel_number"] = incoming.VesselNumber
			updates["expected_factory_date"] = incoming.ExpectedFactoryDate
			updates["port_eta"] = incoming.PortETA
			updates["delivery_eta"] = incoming.DeliveryETA
			updates["ship_date"] = incoming.ShipDate
		}

		if err := tx.Model(&models.PurchaseOrderModel{}).
			Where("id = ?", existing.ID).
			Updates(updates).Error; err != nil {
			return err
		}
		return r.replaceItems(tx, existing.ID, incoming.Items, now)
	})

	return preserved, err
}

// ClearVendorUpdates clears has_vendor_updates and marks the row as synced to
// NetSuite. Returns ErrNoVendorUpdates when the flag was already clear.
func (r *GormPurchaseOrderRepository) ClearVendorUpdates(ctx context.Context, netsuiteID int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.PurchaseOrderModel{}).
		Where("net_suite_id = ? AND has_vendor_updates = ?", netsuiteID, true).
		Updates(map[string]any{
			"has_vendor_updates": false,
			"synced_to_netsuite": true,
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.PurchaseOrderModel{}).
			Where("net_suite_id = ?", netsuiteID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return erp.ErrNoVendorUpdates
	}
	return nil
}

// replaceItems swaps a purchase order's line set wholesale. Lines are
// ERP-owned, so there is no merge.
func (r *GormPurchaseOrderRepository) replaceItems(tx *gorm.DB, orderID uuid.UUID, items []erp.PurchaseOrderItem, now time.Time) error {
	if err := tx.Where("purchase_order_id = ?", orderID).
		Delete(&models.PurchaseOrderItemModel{}).Error; err != nil {
		return err
	}
	for i := range items {
		model := models.PurchaseOrderItemModelFromDomain(orderID, &items[i])
		model.CreatedAt = now
		model.UpdatedAt = now
		if err := tx.Create(model).Error; err != nil {
			return err
		}
	}
	return nil
}

// Ensure GormPurchaseOrderRepository implements PurchaseOrderRepository
var _ erp.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
