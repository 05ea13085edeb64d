package sync

import "github.com/vendorportal/backend/internal/domain/erp"

// Decision is the conflict resolution outcome for one incoming purchase
// order record.
type Decision string

const (
	// DecisionInsert creates a new local row mapped fully from NetSuite.
	DecisionInsert Decision = "insert"
	// DecisionOverwrite refreshes the whole row, vendor fields included.
	DecisionOverwrite Decision = "overwrite"
	// DecisionPreserveVendorFields refreshes only the ERP-owned baseline,
	// keeping the vendor's unapproved edits intact.
	DecisionPreserveVendorFields Decision = "preserve_vendor_fields"
)

// String returns the string representation of Decision.
func (d Decision) String() string {
	return string(d)
}

// ResolveConflict decides how an incoming NetSuite record is applied over
// the local row. The repository re-checks the pending flag inside its write
// transaction, so a vendor edit landing after this pre-read still downgrades
// an overwrite to a preserve.
func ResolveConflict(existing *erp.PurchaseOrder) Decision {
	switch {
	case existing == nil:
		return DecisionInsert
	case existing.HasVendorUpdates:
		return DecisionPreserveVendorFields
	default:
		return DecisionOverwrite
	}
}
