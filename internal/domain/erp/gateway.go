package erp

import "context"

// ---------------------------------------------------------------------------
// Gateway Port
// ---------------------------------------------------------------------------

// RecordError describes one record in a page that could not be mapped from
// the remote payload. The record is skipped; the rest of the page stands.
type RecordError struct {
	RecordID string
	Err      error
}

// AccountPage is one page of a paginated vendor listing.
type AccountPage struct {
	Accounts   []Account
	Failures   []RecordError
	HasMore    bool
	NextOffset int
	Total      int64
}

// ItemPage is one page of a paginated item listing.
type ItemPage struct {
	Items      []Item
	Failures   []RecordError
	HasMore    bool
	NextOffset int
	Total      int64
}

// PurchaseOrderPage is one page of a paginated purchase order listing.
type PurchaseOrderPage struct {
	Orders     []PurchaseOrder
	Failures   []RecordError
	HasMore    bool
	NextOffset int
	Total      int64
}

// OutboundMessage is a message pushed into the ERP's conversation thread for
// a purchase order, mirroring the portal comment thread.
type OutboundMessage struct {
	PurchaseOrderID int64 // NetSuite transaction id
	AuthorID        int64 // NetSuite entity id of the sender
	RecipientID     int64 // NetSuite entity id of the recipient
	Subject         string
	Body            string
}

// Gateway is the signed, rate-limited connection into the ERP's REST API.
// Implementations classify remote failures into ErrAuth, ErrThrottled,
// ErrTransient and ErrRemoteRejected so callers can decide between
// aborting a run and skipping a record.
type Gateway interface {
	// Environment returns "production" or "sandbox" for audit logging.
	Environment() string

	// ListVendors returns one page of vendor records.
	ListVendors(ctx context.Context, offset, limit int) (*AccountPage, error)

	// ListItems returns one page of inventory item records.
	ListItems(ctx context.Context, offset, limit int) (*ItemPage, error)

	// ListPurchaseOrders returns one page of purchase orders restricted to
	// the given NetSuite status codes.
	ListPurchaseOrders(ctx context.Context, statuses []string, offset, limit int) (*PurchaseOrderPage, error)

	// GetPurchaseOrder pulls a single purchase order by NetSuite id.
	GetPurchaseOrder(ctx context.Context, netsuiteID int64) (*PurchaseOrder, error)

	// UpdatePurchaseOrder pushes a minimal patch of vendor-edited fields.
	// The patch is idempotent: re-sending the same values is safe.
	UpdatePurchaseOrder(ctx context.Context, netsuiteID int64, patch PurchaseOrderPatch) error

	// CreateMessage appends a message to the ERP-side conversation.
	CreateMessage(ctx context.Context, msg *OutboundMessage) error
}

// GatewayProvider builds a Gateway from the currently configured ERP
// credentials. Called at the start of every sync run so an operator's
// environment switch takes effect on the next run without a restart.
type GatewayProvider interface {
	Gateway(ctx context.Context) (Gateway, error)
}
