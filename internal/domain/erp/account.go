package erp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is the portal-side mirror of a NetSuite vendor record. Accounts
// are fully ERP-owned: every sync run overwrites the local row, no local
// edits are preserved.
type Account struct {
	ID          uuid.UUID
	NetSuiteID  int64
	EntityID    string
	CompanyName string
	Email       string
	Phone       string
	Currency    RecordRef
	Subsidiary  RecordRef
	Terms       RecordRef
	Balance     decimal.Decimal
	IsInactive  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AccountRepository persists vendor account mirrors, keyed by NetSuite id.
type AccountRepository interface {
	// Upsert inserts the account or fully overwrites the existing row with
	// the same NetSuite id.
	Upsert(ctx context.Context, account *Account) error

	// FindByNetSuiteID returns shared.ErrNotFound when no row exists.
	FindByNetSuiteID(ctx context.Context, netsuiteID int64) (*Account, error)
}
