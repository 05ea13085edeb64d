package erp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Purchase Order
// ---------------------------------------------------------------------------

// PurchaseOrder is the portal-side row for a NetSuite purchase order.
//
// Ownership is split: NetSuite owns the baseline fields (identity, amounts,
// line items, status), the vendor owns the logistics fields while the order
// is in an open status, and the buyer owns the approval transitions. When
// HasVendorUpdates is set, a sync run must not touch the logistics fields or
// the pending flags until a buyer approval clears them.
type PurchaseOrder struct {
	ID         uuid.UUID
	NetSuiteID int64
	TranID     string // NetSuite document number, e.g. "PO12345"

	// Baseline fields, refreshed from NetSuite on every sync.
	Status     string // NetSuite status code, e.g. "B" (Pending Receipt)
	StatusName string
	Vendor     RecordRef
	Location   RecordRef
	Currency   RecordRef
	Total      decimal.Decimal
	TranDate   time.Time
	DueDate    *time.Time
	Memo       string
	Items      []PurchaseOrderItem

	// Vendor-editable logistics fields. Nil means the ERP has no value and
	// the vendor has not supplied one; never defaulted.
	VesselName          *string
	VesselNumber        *string
	ExpectedFactoryDate *time.Time
	PortETA             *time.Time
	DeliveryETA         *time.Time
	ShipDate            *time.Time

	// Portal-only state.
	HasVendorUpdates bool
	SyncedToNetSuite bool
	VendorAccepted   bool
	VendorAcceptedAt *time.Time
	RejectionReason  string
	RejectedAt       *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PurchaseOrderItem is a purchase order line. Lines are ERP-owned and
// replaced wholesale whenever the baseline is refreshed.
type PurchaseOrderItem struct {
	ID          uuid.UUID
	LineID      int64 // NetSuite line sequence number
	Item        RecordRef
	Description string
	Quantity    decimal.Decimal
	Rate        decimal.Decimal
	Amount      decimal.Decimal
}

// VendorAction describes the single unresolved vendor action a purchase
// order may carry. Accept, reject and plain edits are mutually exclusive.
type VendorAction string

const (
	VendorActionNone   VendorAction = "none"
	VendorActionEdit   VendorAction = "edit"
	VendorActionAccept VendorAction = "accept"
	VendorActionReject VendorAction = "reject"
)

// PendingVendorAction returns the unresolved vendor action, if any.
func (p *PurchaseOrder) PendingVendorAction() VendorAction {
	if !p.HasVendorUpdates {
		return VendorActionNone
	}
	switch {
	case p.RejectedAt != nil:
		return VendorActionReject
	case p.VendorAccepted:
		return VendorActionAccept
	default:
		return VendorActionEdit
	}
}

// ApplyBaseline refreshes the ERP-owned fields from an incoming NetSuite
// record while leaving the vendor-editable fields and portal flags alone.
// Used when the conflict resolver decides the local edits must survive.
func (p *PurchaseOrder) ApplyBaseline(incoming *PurchaseOrder) {
	p.TranID = incoming.TranID
	p.Status = incoming.Status
	p.StatusName = incoming.StatusName
	p.Vendor = incoming.Vendor
	p.Location = incoming.Location
	p.Currency = incoming.Currency
	p.Total = incoming.Total
	p.TranDate = incoming.TranDate
	p.DueDate = incoming.DueDate
	p.Memo = incoming.Memo
	p.Items = incoming.Items
}

// VendorFieldNames lists the logistics fields currently carrying a vendor
// value, in stable order. Used for notification payloads and audit logs.
func (p *PurchaseOrder) VendorFieldNames() []string {
	fields := make([]string, 0, 6)
	if p.VesselName != nil {
		fields = append(fields, "vessel_name")
	}
	if p.VesselNumber != nil {
		fields = append(fields, "vessel_number")
	}
	if p.ExpectedFactoryDate != nil {
		fields = append(fields, "expected_factory_date")
	}
	if p.PortETA != nil {
		fields = append(fields, "port_eta")
	}
	if p.DeliveryETA != nil {
		fields = append(fields, "delivery_eta")
	}
	if p.ShipDate != nil {
		fields = append(fields, "ship_date")
	}
	return fields
}

// ---------------------------------------------------------------------------
// Patch
// ---------------------------------------------------------------------------

// PurchaseOrderPatch carries the vendor-edited fields pushed back to
// NetSuite by the approval gate. Nil fields are omitted from the outbound
// payload so unmanaged ERP fields are never cleared by accident.
type PurchaseOrderPatch struct {
	VesselName          *string
	VesselNumber        *string
	ExpectedFactoryDate *time.Time
	PortETA             *time.Time
	DeliveryETA         *time.Time
	ShipDate            *time.Time
}

// IsEmpty reports whether the patch carries no fields at all.
func (p PurchaseOrderPatch) IsEmpty() bool {
	return p.VesselName == nil && p.VesselNumber == nil &&
		p.ExpectedFactoryDate == nil && p.PortETA == nil &&
		p.DeliveryETA == nil && p.ShipDate == nil
}

// PatchFromVendorFields builds the outbound patch from the purchase order's
// stored vendor-edited values.
func (p *PurchaseOrder) PatchFromVendorFields() PurchaseOrderPatch {
	return PurchaseOrderPatch{
		VesselName:          p.VesselName,
		VesselNumber:        p.VesselNumber,
		ExpectedFactoryDate: p.ExpectedFactoryDate,
		PortETA:             p.PortETA,
		DeliveryETA:         p.DeliveryETA,
		ShipDate:            p.ShipDate,
	}
}

// ---------------------------------------------------------------------------
// Comments
// ---------------------------------------------------------------------------

// CommentAuthorRole identifies who wrote a purchase order comment.
type CommentAuthorRole string

const (
	CommentAuthorVendor CommentAuthorRole = "vendor"
	CommentAuthorBuyer  CommentAuthorRole = "buyer"
)

// PurchaseOrderComment is one message in the portal thread attached to a
// purchase order. Non-internal comments are replayed into NetSuite as
// messages when the buyer approves the vendor's edits; PushedToERP keeps a
// re-run from duplicating them.
type PurchaseOrderComment struct {
	ID              uuid.UUID
	PurchaseOrderID uuid.UUID
	AuthorRole      CommentAuthorRole
	Body            string
	Internal        bool
	PushedToERP     bool
	PushedAt        *time.Time
	CreatedAt       time.Time
}

// ---------------------------------------------------------------------------
// Repositories
// ---------------------------------------------------------------------------

// PurchaseOrderRepository persists purchase order mirrors.
type PurchaseOrderRepository interface {
	// FindByNetSuiteID returns shared.ErrNotFound when no row exists.
	FindByNetSuiteID(ctx context.Context, netsuiteID int64) (*PurchaseOrder, error)

	// Insert creates a new row mapped fully from NetSuite.
	Insert(ctx context.Context, po *PurchaseOrder) error

	// UpsertBaseline writes an incoming NetSuite record. Inside its
	// transaction it re-reads has_vendor_updates and, when the flag is set,
	// refreshes only the baseline fields, leaving the vendor-editable
	// fields and pending flags untouched. Returns true when the vendor
	// fields were preserved.
	UpsertBaseline(ctx context.Context, incoming *PurchaseOrder) (preserved bool, err error)

	// ClearVendorUpdates clears has_vendor_updates and marks the row as
	// synced to NetSuite. Called by the approval gate after a successful
	// push; no-op error when the flag was already clear.
	ClearVendorUpdates(ctx context.Context, netsuiteID int64) error
}

// CommentRepository persists the purchase order message thread.
type CommentRepository interface {
	// FindPendingForPush returns the non-internal comments for a purchase
	// order that have not yet been replayed into NetSuite, oldest first.
	FindPendingForPush(ctx context.Context, purchaseOrderID uuid.UUID) ([]PurchaseOrderComment, error)

	// MarkPushed flags the given comments as replayed.
	MarkPushed(ctx context.Context, ids []uuid.UUID) error
}
