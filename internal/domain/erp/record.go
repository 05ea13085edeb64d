package erp

// RecordRef is a flattened NetSuite reference sub-object. NetSuite nests
// references as {"id": "123", "refName": "..."}; locally we keep the scalar
// id and the display name.
type RecordRef struct {
	ID   int64
	Name string
}

// IsZero reports whether the reference is absent.
func (r RecordRef) IsZero() bool {
	return r.ID == 0 && r.Name == ""
}

// EntityType identifies a synchronized NetSuite record type.
type EntityType string

const (
	// EntityTypeAccount is a vendor account record.
	EntityTypeAccount EntityType = "account"
	// EntityTypeItem is an inventory item record.
	EntityTypeItem EntityType = "item"
	// EntityTypePurchaseOrder is a purchase order transaction record.
	EntityTypePurchaseOrder EntityType = "purchase-order"
)

// IsValid returns true if the entity type is one of the synchronized types.
func (t EntityType) IsValid() bool {
	switch t {
	case EntityTypeAccount, EntityTypeItem, EntityTypePurchaseOrder:
		return true
	default:
		return false
	}
}

// String returns the string representation of EntityType.
func (t EntityType) String() string {
	return string(t)
}
