package erp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is the portal-side mirror of a NetSuite inventory item. Like
// accounts, items are fully ERP-owned and overwritten on every sync.
type Item struct {
	ID          uuid.UUID
	NetSuiteID  int64
	ItemID      string // NetSuite item name/number, the business-facing SKU
	DisplayName string
	Description string
	BasePrice   decimal.Decimal
	Vendor      RecordRef
	IsInactive  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ItemRepository persists inventory item mirrors, keyed by NetSuite id.
type ItemRepository interface {
	// Upsert inserts the item or fully overwrites the existing row with the
	// same NetSuite id.
	Upsert(ctx context.Context, item *Item) error

	// FindByNetSuiteID returns shared.ErrNotFound when no row exists.
	FindByNetSuiteID(ctx context.Context, netsuiteID int64) (*Item, error)
}
