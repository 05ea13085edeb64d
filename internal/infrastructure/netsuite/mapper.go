package netsuite

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vendorportal/backend/internal/domain/erp"
)

// wireDateLayout is the date format of NetSuite REST date fields.
const wireDateLayout = "2006-01-02"

// fieldKind describes how a vendor-editable field is encoded on the wire.
type fieldKind int

const (
	fieldText fieldKind = iota
	fieldDate
)

// vendorFieldSpec binds one vendor-editable logistics field to its custom
// body field id. The table is the single source for both read and patch
// directions; NewMapper rejects duplicates so a copy-paste mistake fails at
// startup instead of silently dropping a field.
type vendorFieldSpec struct {
	name    string
	wireKey string
	kind    fieldKind
}

var vendorFieldSpecs = []vendorFieldSpec{
	{name: "vessel_name", wireKey: "custbody_vessel_name", kind: fieldText},
	{name: "vessel_number", wireKey: "custbody_vessel_number", kind: fieldText},
	{name: "expected_factory_date", wireKey: "custbody_factory_date", kind: fieldDate},
	{name: "port_eta", wireKey: "custbody_port_eta", kind: fieldDate},
	{name: "delivery_eta", wireKey: "custbody_delivery_eta", kind: fieldDate},
	{name: "ship_date", wireKey: "custbody_ship_date", kind: fieldDate},
}

// Mapper converts between NetSuite wire records and domain entities.
type Mapper struct {
	specsByName map[string]vendorFieldSpec
}

// NewMapper validates the field mapping table and builds the mapper.
func NewMapper() (*Mapper, error) {
	byName := make(map[string]vendorFieldSpec, len(vendorFieldSpecs))
	byKey := make(map[string]struct{}, len(vendorFieldSpecs))
	for _, spec := range vendorFieldSpecs {
		if spec.name == "" || spec.wireKey == "" {
			return nil, fmt.Errorf("netsuite: vendor field spec with empty name or wire key")
		}
		if _, dup := byName[spec.name]; dup {
			return nil, fmt.Errorf("netsuite: duplicate vendor field name %q", spec.name)
		}
		if _, dup := byKey[spec.wireKey]; dup {
			return nil, fmt.Errorf("netsuite: duplicate vendor field wire key %q", spec.wireKey)
		}
		byName[spec.name] = spec
		byKey[spec.wireKey] = struct{}{}
	}
	return &Mapper{specsByName: byName}, nil
}

// ---------------------------------------------------------------------------
// Wire to Domain
// ---------------------------------------------------------------------------

// AccountFromWire converts a vendor record to the domain account.
func (m *Mapper) AccountFromWire(rec *vendorRecord) (*erp.Account, error) {
	id, err := parseWireID(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: vendor %q: %v", erp.ErrMapping, rec.ID, err)
	}

	balance, err := parseWireDecimal(rec.Balance)
	if err != nil {
		return nil, fmt.Errorf("%w: vendor %d: bad balance %q", erp.ErrMapping, id, rec.Balance)
	}

	currency, err := refFromWire(rec.Currency)
	if err != nil {
		return nil, fmt.Errorf("%w: vendor %d: bad currency ref: %v", erp.ErrMapping, id, err)
	}
	subsidiary, err := refFromWire(rec.Subsidiary)
	if err != nil {
		return nil, fmt.Errorf("%w: vendor %d: bad subsidiary ref: %v", erp.ErrMapping, id, err)
	}
	terms, err := refFromWire(rec.Terms)
	if err != nil {
		return nil, fmt.Errorf("%w: vendor %d: bad terms ref: %v", erp.ErrMapping, id, err)
	}

	return &erp.Account{
		NetSuiteID:  id,
		EntityID:    rec.EntityID,
		CompanyName: rec.CompanyName,
		Email:       rec.Email,
		Phone:       rec.Phone,
		Currency:    currency,
		Subsidiary:  subsidiary,
		Terms:       terms,
		Balance:     balance,
		IsInactive:  rec.IsInactive,
	}, nil
}

// ItemFromWire converts an item record to the domain item.
func (m *Mapper) ItemFromWire(rec *itemRecord) (*erp.Item, error) {
	id, err := parseWireID(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: item %q: %v", erp.ErrMapping, rec.ID, err)
	}
	if rec.ItemID == "" {
		return nil, fmt.Errorf("%w: item %d: missing item id", erp.ErrMapping, id)
	}

	basePrice, err := parseWireDecimal(rec.BasePrice)
	if err != nil {
		return nil, fmt.Errorf("%w: item %d: bad base price %q", erp.ErrMapping, id, rec.BasePrice)
	}

	vendor, err := refFromWire(rec.Vendor)
	if err != nil {
		return nil, fmt.Errorf("%w: item %d: bad vendor ref: %v", erp.ErrMapping, id, err)
	}

	return &erp.Item{
		NetSuiteID:  id,
		ItemID:      rec.ItemID,
		DisplayName: rec.DisplayName,
		Description: rec.Description,
		BasePrice:   basePrice,
		Vendor:      vendor,
		IsInactive:  rec.IsInactive,
	}, nil
}

// PurchaseOrderFromWire converts a purchase order record, lines and custom
// body fields included, to the domain purchase order.
func (m *Mapper) PurchaseOrderFromWire(rec *purchaseOrderRecord) (*erp.PurchaseOrder, error) {
	id, err := parseWireID(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: purchase order %q: %v", erp.ErrMapping, rec.ID, err)
	}
	if rec.TranID == "" {
		return nil, fmt.Errorf("%w: purchase order %d: missing tranId", erp.ErrMapping, id)
	}
	if rec.Status == nil || rec.Status.ID == "" {
		return nil, fmt.Errorf("%w: purchase order %d: missing status", erp.ErrMapping, id)
	}

	vendor, err := refFromWire(rec.Entity)
	if err != nil {
		return nil, fmt.Errorf("%w: purchase order %d: bad entity ref: %v", erp.ErrMapping, id, err)
	}
	location, err := refFromWire(rec.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: purchase order %d: bad location ref: %v", erp.ErrMapping, id, err)
	}
	currency, err := refFromWire(rec.Currency)
	if err != nil {
		return nil, fmt.Errorf("%w: purchase order %d: bad currency ref: %v", erp.ErrMapping, id, err)
	}

	total, err := parseWireDecimal(rec.Total)
	if err != nil {
		return nil, fmt.Errorf("%w: purchase order %d: bad total %q", erp.ErrMapping, id, rec.Total)
	}

	tranDate, err := parseWireDate(rec.TranDate)
	if err != nil {
		return nil, fmt.Errorf("%w: purchase order %d: bad tranDate %q", erp.ErrMapping, id, rec.TranDate)
	}
	dueDate, err := parseWireDatePtr(rec.DueDate)
	if err != nil {
		return nil, fmt.Errorf("%w: purchase order %d: bad dueDate %q", erp.ErrMapping, id, rec.DueDate)
	}

	po := &erp.PurchaseOrder{
		NetSuiteID: id,
		TranID:     rec.TranID,
		Status:     rec.Status.ID,
		StatusName: rec.Status.RefName,
		Vendor:     vendor,
		Location:   location,
		Currency:   currency,
		Total:      total,
		TranDate:   tranDate,
		DueDate:    dueDate,
		Memo:       rec.Memo,
	}

	if rec.Item != nil {
		po.Items = make([]erp.PurchaseOrderItem, 0, len(rec.Item.Items))
		for _, line := range rec.Item.Items {
			item, err := m.lineFromWire(id, &line)
			if err != nil {
				return nil, err
			}
			po.Items = append(po.Items, item)
		}
	}

	po.VesselName = copyStringPtr(rec.VesselName)
	po.VesselNumber = copyStringPtr(rec.VesselNumber)
	if po.ExpectedFactoryDate, err = parseWireDateOpt(rec.FactoryDate); err != nil {
		return nil, fmt.Errorf("%w: purchase order %d: bad factory date: %v", erp.ErrMapping, id, err)
	}
	if po.PortETA, err = parseWireDateOpt(rec.PortETA); err != nil {
		return nil, fmt.Errorf("%w: purchase order %d: bad port eta: %v", erp.ErrMapping, id, err)
	}
	if po.DeliveryETA, err = parseWireDateOpt(rec.DeliveryETA); err != nil {
		return nil, fmt.Errorf("%w: purchase order %d: bad delivery eta: %v", erp.ErrMapping, id, err)
	}
	if po.ShipDate, err = parseWireDateOpt(rec.ShipDate); err != nil {
		return nil, fmt.Errorf("%w: purchase order %d: bad ship date: %v", erp.ErrMapping, id, err)
	}

	return po, nil
}

// lineFromWire converts one purchase order line.
func (m *Mapper) lineFromWire(poID int64, line *poLineRecord) (erp.PurchaseOrderItem, error) {
	item, err := refFromWire(line.Item)
	if err != nil {
		return erp.PurchaseOrderItem{}, fmt.Errorf("%w: purchase order %d line %d: bad item ref: %v", erp.ErrMapping, poID, line.Line, err)
	}

	quantity, err := parseWireDecimal(line.Quantity)
	if err != nil {
		return erp.PurchaseOrderItem{}, fmt.Errorf("%w: purchase order %d line %d: bad quantity %q", erp.ErrMapping, poID, line.Line, line.Quantity)
	}
	rate, err := parseWireDecimal(line.Rate)
	if err != nil {
		return erp.PurchaseOrderItem{}, fmt.Errorf("%w: purchase order %d line %d: bad rate %q", erp.ErrMapping, poID, line.Line, line.Rate)
	}
	amount, err := parseWireDecimal(line.Amount)
	if err != nil {
		return erp.PurchaseOrderItem{}, fmt.Errorf("%w: purchase order %d line %d: bad amount %q", erp.ErrMapping, poID, line.Line, line.Amount)
	}

	return erp.PurchaseOrderItem{
		LineID:   line.Line,
		Item:     item,
		Quantity: quantity,
		Rate:     rate,
		Amount:   amount,
	}, nil
}

// ---------------------------------------------------------------------------
// Domain to Wire
// ---------------------------------------------------------------------------

// PatchToWire builds the minimal PATCH body for vendor-edited fields. Only
// fields set on the patch appear in the body, so unrelated ERP-side values
// stay untouched.
func (m *Mapper) PatchToWire(patch erp.PurchaseOrderPatch) map[string]any {
	body := make(map[string]any)

	setText := func(name string, value *string) {
		if value == nil {
			return
		}
		body[m.specsByName[name].wireKey] = *value
	}
	setDate := func(name string, value *time.Time) {
		if value == nil {
			return
		}
		body[m.specsByName[name].wireKey] = value.Format(wireDateLayout)
	}

	setText("vessel_name", patch.VesselName)
	setText("vessel_number", patch.VesselNumber)
	setDate("expected_factory_date", patch.ExpectedFactoryDate)
	setDate("port_eta", patch.PortETA)
	setDate("delivery_eta", patch.DeliveryETA)
	setDate("ship_date", patch.ShipDate)

	return body
}

// MessageToWire builds the POST body for an ERP-side conversation message.
func (m *Mapper) MessageToWire(msg *erp.OutboundMessage) map[string]any {
	body := map[string]any{
		"transaction": map[string]any{"id": strconv.FormatInt(msg.PurchaseOrderID, 10)},
		"author":      map[string]any{"id": strconv.FormatInt(msg.AuthorID, 10)},
		"subject":     msg.Subject,
		"message":     msg.Body,
	}
	if msg.RecipientID != 0 {
		body["recipient"] = map[string]any{"id": strconv.FormatInt(msg.RecipientID, 10)}
	}
	return body
}

// ---------------------------------------------------------------------------
// Parse Helpers
// ---------------------------------------------------------------------------

func parseWireID(raw string) (int64, error) {
	if raw == "" {
		return 0, fmt.Errorf("empty id")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("non-numeric id %q", raw)
	}
	return id, nil
}

func refFromWire(ref *wireRef) (erp.RecordRef, error) {
	if ref == nil || ref.ID == "" {
		return erp.RecordRef{}, nil
	}
	id, err := parseWireID(ref.ID)
	if err != nil {
		return erp.RecordRef{}, err
	}
	return erp.RecordRef{ID: id, Name: ref.RefName}, nil
}

func parseWireDecimal(n json.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(n.String())
}

func parseWireDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(wireDateLayout, raw, time.UTC)
}

func parseWireDatePtr(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := parseWireDate(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseWireDateOpt(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	return parseWireDatePtr(*raw)
}

func copyStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
