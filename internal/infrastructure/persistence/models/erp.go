package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendorportal/backend/internal/domain/erp"
)

// AccountModel is the persistence model for the vendor account mirror.
// NetSuite references are flattened into id/name column pairs.
type AccountModel struct {
	BaseModel
	NetSuiteID     int64           `gorm:"not null;uniqueIndex"`
	EntityID       string          `gorm:"type:varchar(100);not null;index"`
	CompanyName    string          `gorm:"type:varchar(200);not null"`
	Email          string          `gorm:"type:varchar(200)"`
	Phone          string          `gorm:"type:varchar(50)"`
	CurrencyID     int64           `gorm:"not null;default:0"`
	CurrencyName   string          `gorm:"type:varchar(100)"`
	SubsidiaryID   int64           `gorm:"not null;default:0"`
	SubsidiaryName string          `gorm:"type:varchar(200)"`
	TermsID        int64           `gorm:"not null;default:0"`
	TermsName      string          `gorm:"type:varchar(100)"`
	Balance        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	IsInactive     bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the persistence model to a domain Account.
func (m *AccountModel) ToDomain() *erp.Account {
	return &erp.Account{
		ID:          m.ID,
		NetSuiteID:  m.NetSuiteID,
		EntityID:    m.EntityID,
		CompanyName: m.CompanyName,
		Email:       m.Email,
		Phone:       m.Phone,
		Currency:    erp.RecordRef{ID: m.CurrencyID, Name: m.CurrencyName},
		Subsidiary:  erp.RecordRef{ID: m.SubsidiaryID, Name: m.SubsidiaryName},
		Terms:       erp.RecordRef{ID: m.TermsID, Name: m.TermsName},
		Balance:     m.Balance,
		IsInactive:  m.IsInactive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Account.
func (m *AccountModel) FromDomain(a *erp.Account) {
	m.ID = a.ID
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
	m.NetSuiteID = a.NetSuiteID
	m.EntityID = a.EntityID
	m.CompanyName = a.CompanyName
	m.Email = a.Email
	m.Phone = a.Phone
	m.CurrencyID = a.Currency.ID
	m.CurrencyName = a.Currency.Name
	m.SubsidiaryID = a.Subsidiary.ID
	m.SubsidiaryName = a.Subsidiary.Name
	m.TermsID = a.Terms.ID
	m.TermsName = a.Terms.Name
	m.Balance = a.Balance
	m.IsInactive = a.IsInactive
}

// AccountModelFromDomain creates a new persistence model from a domain Account.
func AccountModelFromDomain(a *erp.Account) *AccountModel {
	m := &AccountModel{}
	m.FromDomain(a)
	return m
}

// ItemModel is the persistence model for the inventory item mirror.
type ItemModel struct {
	BaseModel
	NetSuiteID  int64           `gorm:"not null;uniqueIndex"`
	ItemID      string          `gorm:"type:varchar(100);not null;index"`
	DisplayName string          `gorm:"type:varchar(200)"`
	Description string          `gorm:"type:text"`
	BasePrice   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	VendorID    int64           `gorm:"not null;default:0;index"`
	VendorName  string          `gorm:"type:varchar(200)"`
	IsInactive  bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (ItemModel) TableName() string {
	return "items"
}

// ToDomain converts the persistence model to a domain Item.
func (m *ItemModel) ToDomain() *erp.Item {
	return &erp.Item{
		ID:          m.ID,
		NetSuiteID:  m.NetSuiteID,
		ItemID:      m.ItemID,
		DisplayName: m.DisplayName,
		Description: m.Description,
		BasePrice:   m.BasePrice,
		Vendor:      erp.RecordRef{ID: m.VendorID, Name: m.VendorName},
		IsInactive:  m.IsInactive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Item.
func (m *ItemModel) FromDomain(i *erp.Item) {
	m.ID = i.ID
	m.CreatedAt = i.CreatedAt
	m.UpdatedAt = i.UpdatedAt
	m.NetSuiteID = i.NetSuiteID
	m.ItemID = i.ItemID
	m.DisplayName = i.DisplayName
	m.Description = i.Description
	m.BasePrice = i.BasePrice
	m.VendorID = i.Vendor.ID
	m.VendorName = i.Vendor.Name
	m.IsInactive = i.IsInactive
}

// ItemModelFromDomain creates a new persistence model from a domain Item.
func ItemModelFromDomain(i *erp.Item) *ItemModel {
	m := &ItemModel{}
	m.FromDomain(i)
	return m
}

// PurchaseOrderModel is the persistence model for the purchase order mirror.
// Baseline columns are overwritten on every sync; the custbody columns and
// the portal flags survive a refresh while has_vendor_updates is set.
type PurchaseOrderModel struct {
	BaseModel
	NetSuiteID   int64                    `gorm:"not null;uniqueIndex"`
	TranID       string                   `gorm:"type:varchar(50);not null;index"`
	Status       string                   `gorm:"type:varchar(10);not null;index"`
	StatusName   string                   `gorm:"type:varchar(100)"`
	VendorID     int64                    `gorm:"not null;default:0;index"`
	VendorName   string                   `gorm:"type:varchar(200)"`
	LocationID   int64                    `gorm:"not null;default:0"`
	LocationName string                   `gorm:"type:varchar(200)"`
	CurrencyID   int64                    `gorm:"not null;default:0"`
	CurrencyName string                   `gorm:"type:varchar(100)"`
	Total        decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	TranDate     time.Time                `gorm:"not null"`
	DueDate      *time.Time               `gorm:"index"`
	Memo         string                   `gorm:"type:text"`
	Items        []PurchaseOrderItemModel `gorm:"foreignKey:PurchaseOrderID;references:ID"`

	VesselName          *string    `gorm:"type:varchar(200)"`
	VesselNumber        *string    `gorm:"type:varchar(100)"`
	ExpectedFactoryDate *time.Time
	PortETA             *time.Time
	DeliveryETA         *time.Time
	ShipDate            *time.Time

	HasVendorUpdates bool       `gorm:"not null;default:false;index"`
	// GORM would split this into synced_to_net_suite; the schema spells the
	// product name as one word.
	SyncedToNetSuite bool       `gorm:"column:synced_to_netsuite;not null;default:false"`
	VendorAccepted   bool       `gorm:"not null;default:false"`
	VendorAcceptedAt *time.Time
	RejectionReason  string     `gorm:"type:varchar(500)"`
	RejectedAt       *time.Time
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the persistence model to a domain PurchaseOrder.
func (m *PurchaseOrderModel) ToDomain() *erp.PurchaseOrder {
	po := &erp.PurchaseOrder{
		ID:         m.ID,
		NetSuiteID: m.NetSuiteID,
		TranID:     m.TranID,
		Status:     m.Status,
		StatusName: m.StatusName,
		Vendor:     erp.RecordRef{ID: m.VendorID, Name: m.VendorName},
		Location:   erp.RecordRef{ID: m.LocationID, Name: m.LocationName},
		Currency:   erp.RecordRef{ID: m.CurrencyID, Name: m.CurrencyName},
		Total:      m.Total,
		TranDate:   m.TranDate,
		DueDate:    m.DueDate,
		Memo:       m.Memo,

		VesselName:          m.VesselName,
		VesselNumber:        m.VesselNumber,
		ExpectedFactoryDate: m.ExpectedFactoryDate,
		PortETA:             m.PortETA,
		DeliveryETA:         m.DeliveryETA,
		ShipDate:            m.ShipDate,

		HasVendorUpdates: m.HasVendorUpdates,
		SyncedToNetSuite: m.SyncedToNetSuite,
		VendorAccepted:   m.VendorAccepted,
		VendorAcceptedAt: m.VendorAcceptedAt,
		RejectionReason:  m.RejectionReason,
		RejectedAt:       m.RejectedAt,

		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,

		Items: make([]erp.PurchaseOrderItem, len(m.Items)),
	}
	for i, item := range m.Items {
		po.Items[i] = *item.ToDomain()
	}
	return po
}

// FromDomain populates the persistence model from a domain PurchaseOrder.
func (m *PurchaseOrderModel) FromDomain(po *erp.PurchaseOrder) {
	m.ID = po.ID
	m.CreatedAt = po.CreatedAt
	m.UpdatedAt = po.UpdatedAt
	m.NetSuiteID = po.NetSuiteID
	m.TranID = po.TranID
	m.Status = po.Status
	m.StatusName = po.StatusName
	m.VendorID = po.Vendor.ID
	m.VendorName = po.Vendor.Name
	m.LocationID = po.Location.ID
	m.LocationName = po.Location.Name
	m.CurrencyID = po.Currency.ID
	m.CurrencyName = po.Currency.Name
	m.Total = po.Total
	m.TranDate = po.TranDate
	m.DueDate = po.DueDate
	m.Memo = po.Memo

	m.VesselName = po.VesselName
	m.VesselNumber = po.VesselNumber
	m.ExpectedFactoryDate = po.ExpectedFactoryDate
	m.PortETA = po.PortETA
	m.DeliveryETA = po.DeliveryETA
	m.ShipDate = po.ShipDate

	m.HasVendorUpdates = po.HasVendorUpdates
	m.SyncedToNetSuite = po.SyncedToNetSuite
	m.VendorAccepted = po.VendorAccepted
	m.VendorAcceptedAt = po.VendorAcceptedAt
	m.RejectionReason = po.RejectionReason
	m.RejectedAt = po.RejectedAt

	m.Items = make([]PurchaseOrderItemModel, len(po.Items))
	for i := range po.Items {
		m.Items[i] = *PurchaseOrderItemModelFromDomain(po.ID, &po.Items[i])
	}
}

// PurchaseOrderModelFromDomain creates a new persistence model from a domain PurchaseOrder.
func PurchaseOrderModelFromDomain(po *erp.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{}
	m.FromDomain(po)
	return m
}

// PurchaseOrderItemModel is the persistence model for a purchase order line.
type PurchaseOrderItemModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineID          int64           `gorm:"not null"`
	ItemID          int64           `gorm:"not null;default:0"`
	ItemName        string          `gorm:"type:varchar(200)"`
	Description     string          `gorm:"type:text"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Rate            decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PurchaseOrderItemModel) TableName() string {
	return "purchase_order_items"
}

// ToDomain converts the persistence model to a domain PurchaseOrderItem.
func (m *PurchaseOrderItemModel) ToDomain() *erp.PurchaseOrderItem {
	return &erp.PurchaseOrderItem{
		ID:          m.ID,
		LineID:      m.LineID,
		Item:        erp.RecordRef{ID: m.ItemID, Name: m.ItemName},
		Description: m.Description,
		Quantity:    m.Quantity,
		Rate:        m.Rate,
		Amount:      m.Amount,
	}
}

// PurchaseOrderItemModelFromDomain creates a new persistence model from a domain line.
func PurchaseOrderItemModelFromDomain(orderID uuid.UUID, item *erp.PurchaseOrderItem) *PurchaseOrderItemModel {
	id := item.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &PurchaseOrderItemModel{
		ID:              id,
		PurchaseOrderID: orderID,
		LineID:          item.LineID,
		ItemID:          item.Item.ID,
		ItemName:        item.Item.Name,
		Description:     item.Description,
		Quantity:        item.Quantity,
		Rate:            item.Rate,
		Amount:          item.Amount,
	}
}

// PurchaseOrderCommentModel is the persistence model for the comment thread.
type PurchaseOrderCommentModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key"`
	PurchaseOrderID uuid.UUID  `gorm:"type:uuid;not null;index"`
	AuthorRole      string     `gorm:"type:varchar(20);not null"`
	Body            string     `gorm:"type:text;not null"`
	Internal        bool       `gorm:"not null;default:false"`
	PushedToERP     bool       `gorm:"not null;default:false;index"`
	PushedAt        *time.Time
	CreatedAt       time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PurchaseOrderCommentModel) TableName() string {
	return "purchase_order_comments"
}

// ToDomain converts the persistence model to a domain comment.
func (m *PurchaseOrderCommentModel) ToDomain() *erp.PurchaseOrderComment {
	return &erp.PurchaseOrderComment{
		ID:              m.ID,
		PurchaseOrderID: m.PurchaseOrderID,
		AuthorRole:      erp.CommentAuthorRole(m.AuthorRole),
		Body:            m.Body,
		Internal:        m.Internal,
		PushedToERP:     m.PushedToERP,
		PushedAt:        m.PushedAt,
		CreatedAt:       m.CreatedAt,
	}
}

// PurchaseOrderCommentModelFromDomain creates a new persistence model from a domain comment.
func PurchaseOrderCommentModelFromDomain(c *erp.PurchaseOrderComment) *PurchaseOrderCommentModel {
	return &PurchaseOrderCommentModel{
		ID:              c.ID,
		PurchaseOrderID: c.PurchaseOrderID,
		AuthorRole:      string(c.AuthorRole),
		Body:            c.Body,
		Internal:        c.Internal,
		PushedToERP:     c.PushedToERP,
		PushedAt:        c.PushedAt,
		CreatedAt:       c.CreatedAt,
	}
}

// SyncLogModel is the persistence model for the append-only sync audit trail.
type SyncLogModel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key"`
	Type             string     `gorm:"type:varchar(30);not null;index"`
	Status           string     `gorm:"type:varchar(20);not null;index"`
	Environment      string     `gorm:"type:varchar(20);not null"`
	TriggeredBy      string     `gorm:"type:varchar(100);not null"`
	StartedAt        time.Time  `gorm:"not null;index"`
	FinishedAt       *time.Time
	RecordsProcessed int        `gorm:"not null;default:0"`
	RecordsFailed    int        `gorm:"not null;default:0"`
	Error            string     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (SyncLogModel) TableName() string {
	return "sync_logs"
}

// ToDomain converts the persistence model to a domain SyncLogEntry.
func (m *SyncLogModel) ToDomain() *erp.SyncLogEntry {
	return &erp.SyncLogEntry{
		ID:               m.ID,
		Type:             erp.SyncType(m.Type),
		Status:           erp.SyncStatus(m.Status),
		Environment:      m.Environment,
		TriggeredBy:      m.TriggeredBy,
		StartedAt:        m.StartedAt,
		FinishedAt:       m.FinishedAt,
		RecordsProcessed: m.RecordsProcessed,
		RecordsFailed:    m.RecordsFailed,
		Error:            m.Error,
	}
}

// SyncLogModelFromDomain creates a new persistence model from a domain SyncLogEntry.
func SyncLogModelFromDomain(e *erp.SyncLogEntry) *SyncLogModel {
	return &SyncLogModel{
		ID:               e.ID,
		Type:             string(e.Type),
		Status:           string(e.Status),
		Environment:      e.Environment,
		TriggeredBy:      e.TriggeredBy,
		StartedAt:        e.StartedAt,
		FinishedAt:       e.FinishedAt,
		RecordsProcessed: e.RecordsProcessed,
		RecordsFailed:    e.RecordsFailed,
		Error:            e.Error,
	}
}
