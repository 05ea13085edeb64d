package erp

import (
	"context"
	"time"
)

// RowLocker serializes writers on a shared key, typically "po:<netsuite-id>"
// for per-order writes and "sync:run:<type>" for single-flight sync runs.
type RowLocker interface {
	// Acquire blocks until the lock is held, the ttl elapses on a stale
	// holder, or ctx is done. The returned release function is safe to call
	// more than once.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// Notifier delivers the portal's outbound alerts. Implementations are
// fire-and-forget from the engine's point of view: failures are logged by
// the caller and never block a sync or approval flow.
type Notifier interface {
	// NotifyBuyerOfVendorUpdate alerts the buying team that a vendor edited
	// a purchase order and approval is pending.
	NotifyBuyerOfVendorUpdate(ctx context.Context, po *PurchaseOrder, changedFields []string) error

	// NotifyVendorOfApproval confirms to the vendor that their edits were
	// approved and pushed to the ERP.
	NotifyVendorOfApproval(ctx context.Context, po *PurchaseOrder) error
}
