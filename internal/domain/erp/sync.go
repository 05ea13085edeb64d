package erp

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Sync Types
// ---------------------------------------------------------------------------

// SyncType identifies what a sync run covers.
type SyncType string

const (
	// SyncTypeAccounts is a paginated full sync of vendor accounts.
	SyncTypeAccounts SyncType = "accounts"
	// SyncTypeItems is a paginated full sync of inventory items.
	SyncTypeItems SyncType = "items"
	// SyncTypePurchaseOrders is a full sync of open purchase orders.
	SyncTypePurchaseOrders SyncType = "purchase-orders"
	// SyncTypeSinglePurchaseOrder is a targeted re-sync of one purchase order.
	SyncTypeSinglePurchaseOrder SyncType = "purchase-order"
)

// IsValid returns true for the full-sync types accepted by the trigger
// endpoint. SyncTypeSinglePurchaseOrder has its own endpoint.
func (t SyncType) IsValid() bool {
	switch t {
	case SyncTypeAccounts, SyncTypeItems, SyncTypePurchaseOrders:
		return true
	default:
		return false
	}
}

// String returns the string representation of SyncType.
func (t SyncType) String() string {
	return string(t)
}

// SyncStatus is the lifecycle state of a sync run.
type SyncStatus string

const (
	SyncStatusRunning SyncStatus = "running"
	SyncStatusSuccess SyncStatus = "success"
	// SyncStatusPartial marks a run that finished with some records skipped.
	SyncStatusPartial SyncStatus = "partial"
	SyncStatusFailed  SyncStatus = "failed"
)

// String returns the string representation of SyncStatus.
func (s SyncStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// Sync Log
// ---------------------------------------------------------------------------

// SyncLogEntry is one row of the append-only sync audit trail. Created when
// a run starts, finalized exactly once when it ends, never mutated after.
type SyncLogEntry struct {
	ID               uuid.UUID
	Type             SyncType
	Status           SyncStatus
	Environment      string // "production" or "sandbox"
	TriggeredBy      string // operator id, "schedule" or "webhook"
	StartedAt        time.Time
	FinishedAt       *time.Time
	RecordsProcessed int
	RecordsFailed    int
	Error            string
}

// NewSyncLogEntry opens a log entry for a starting run.
func NewSyncLogEntry(syncType SyncType, environment, triggeredBy string) *SyncLogEntry {
	return &SyncLogEntry{
		ID:          uuid.New(),
		Type:        syncType,
		Status:      SyncStatusRunning,
		Environment: environment,
		TriggeredBy: triggeredBy,
		StartedAt:   time.Now(),
	}
}

// Complete finalizes the entry from the run's counters.
func (e *SyncLogEntry) Complete(processed, failed int) {
	now := time.Now()
	e.FinishedAt = &now
	e.RecordsProcessed = processed
	e.RecordsFailed = failed
	if failed == 0 {
		e.Status = SyncStatusSuccess
	} else {
		e.Status = SyncStatusPartial
	}
}

// Fail finalizes the entry after a run-level error, keeping the partial
// counters accumulated before the abort.
func (e *SyncLogEntry) Fail(processed, failed int, cause error) {
	now := time.Now()
	e.FinishedAt = &now
	e.RecordsProcessed = processed
	e.RecordsFailed = failed
	e.Status = SyncStatusFailed
	if cause != nil {
		e.Error = cause.Error()
	}
}

// SyncLogFilter narrows sync log listings.
type SyncLogFilter struct {
	Type     *SyncType
	Status   *SyncStatus
	Page     int
	PageSize int
}

// SyncLogRepository persists the audit trail.
type SyncLogRepository interface {
	// Create inserts the opening "running" row.
	Create(ctx context.Context, entry *SyncLogEntry) error

	// Finalize writes the terminal status and counters.
	Finalize(ctx context.Context, entry *SyncLogEntry) error

	// List returns entries newest first plus the total count.
	List(ctx context.Context, filter SyncLogFilter) ([]SyncLogEntry, int64, error)
}

// ---------------------------------------------------------------------------
// Sync Result
// ---------------------------------------------------------------------------

// SyncResult is the caller-facing outcome of one sync run.
type SyncResult struct {
	Type             SyncType
	Status           SyncStatus
	RecordsProcessed int
	RecordsFailed    int
	Message          string
}
