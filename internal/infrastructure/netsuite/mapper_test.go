package netsuite

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendorportal/backend/internal/domain/erp"
)

func newTestMapper(t *testing.T) *Mapper {
	t.Helper()
	m, err := NewMapper()
	require.NoError(t, err)
	return m
}

func TestNewMapper(t *testing.T) {
	m, err := NewMapper()
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestMapper_AccountFromWire(t *testing.T) {
	m := newTestMapper(t)

	t.Run("maps full record", func(t *testing.T) {
		rec := &vendorRecord{
			ID:          "88",
			EntityID:    "V-0088",
			CompanyName: "Acme Textiles",
			Email:       "orders@acme.example",
			Phone:       "+852 1234 5678",
			Currency:    &wireRef{ID: "1", RefName: "USD"},
			Subsidiary:  &wireRef{ID: "3", RefName: "HK"},
			Terms:       &wireRef{ID: "5", RefName: "Net 30"},
			Balance:     json.Number("10250.75"),
		}

		account, err := m.AccountFromWire(rec)
		require.NoError(t, err)
		assert.Equal(t, int64(88), account.NetSuiteID)
		assert.Equal(t, "V-0088", account.EntityID)
		assert.Equal(t, erp.RecordRef{ID: 1, Name: "USD"}, account.Currency)
		assert.True(t, account.Balance.Equal(mustDecimal(t, "10250.75")))
		assert.False(t, account.IsInactive)
	})

	t.Run("rejects non numeric id", func(t *testing.T) {
		_, err := m.AccountFromWire(&vendorRecord{ID: "abc"})
		assert.ErrorIs(t, err, erp.ErrMapping)
	})

	t.Run("rejects bad balance", func(t *testing.T) {
		_, err := m.AccountFromWire(&vendorRecord{ID: "88", Balance: json.Number("not-a-number")})
		assert.ErrorIs(t, err, erp.ErrMapping)
	})
}

func TestMapper_ItemFromWire(t *testing.T) {
	m := newTestMapper(t)

	t.Run("maps full record", func(t *testing.T) {
		rec := &itemRecord{
			ID:          "412",
			ItemID:      "SKU-TEE-L",
			DisplayName: "T-Shirt Large",
			BasePrice:   json.Number("12.50"),
			Vendor:      &wireRef{ID: "88", RefName: "Acme Textiles"},
		}

		item, err := m.ItemFromWire(rec)
		require.NoError(t, err)
		assert.Equal(t, int64(412), item.NetSuiteID)
		assert.Equal(t, "SKU-TEE-L", item.ItemID)
		assert.Equal(t, int64(88), item.Vendor.ID)
	})

	t.Run("rejects missing sku", func(t *testing.T) {
		_, err := m.ItemFromWire(&itemRecord{ID: "412"})
		assert.ErrorIs(t, err, erp.ErrMapping)
	})
}

func TestMapper_PurchaseOrderFromWire(t *testing.T) {
	m := newTestMapper(t)

	vesselName := "MV Northern Star"
	factoryDate := "2026-03-14"

	rec := &purchaseOrderRecord{
		ID:       "607632",
		TranID:   "PO607632",
		Status:   &wireRef{ID: "B", RefName: "Pending Receipt"},
		Entity:   &wireRef{ID: "88", RefName: "Acme Textiles"},
		Location: &wireRef{ID: "2", RefName: "Main Warehouse"},
		Currency: &wireRef{ID: "1", RefName: "USD"},
		Total:    json.Number("1310.00"),
		TranDate: "2026-02-01",
		DueDate:  "2026-04-15",
		Memo:     "Spring restock",
		Item: &poLineSublist{Items: []poLineRecord{
			{Line: 1, Item: &wireRef{ID: "412", RefName: "SKU-TEE-L"}, Quantity: json.Number("40"), Rate: json.Number("12.50"), Amount: json.Number("500.00")},
			{Line: 2, Item: &wireRef{ID: "413", RefName: "SKU-TEE-XL"}, Quantity: json.Number("60"), Rate: json.Number("13.50"), Amount: json.Number("810.00")},
		}},
		VesselName:  &vesselName,
		FactoryDate: &factoryDate,
	}

	po, err := m.PurchaseOrderFromWire(rec)
	require.NoError(t, err)

	assert.Equal(t, int64(607632), po.NetSuiteID)
	assert.Equal(t, "PO607632", po.TranID)
	assert.Equal(t, "B", po.Status)
	assert.Equal(t, "Pending Receipt", po.StatusName)
	assert.Equal(t, int64(88), po.Vendor.ID)
	assert.True(t, po.Total.Equal(mustDecimal(t, "1310.00")))
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), po.TranDate)
	require.NotNil(t, po.DueDate)
	assert.Equal(t, time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC), *po.DueDate)

	require.Len(t, po.Items, 2)
	assert.Equal(t, int64(1), po.Items[0].LineID)
	assert.True(t, po.Items[0].Quantity.Equal(mustDecimal(t, "40")))
	assert.Equal(t, int64(413), po.Items[1].Item.ID)

	require.NotNil(t, po.VesselName)
	assert.Equal(t, "MV Northern Star", *po.VesselName)
	require.NotNil(t, po.ExpectedFactoryDate)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), *po.ExpectedFactoryDate)
	assert.Nil(t, po.PortETA)
}

func TestMapper_PurchaseOrderFromWire_Errors(t *testing.T) {
	m := newTestMapper(t)

	tests := []struct {
		name string
		rec  purchaseOrderRecord
	}{
		{
			name: "missing tranId",
			rec:  purchaseOrderRecord{ID: "1", Status: &wireRef{ID: "B"}},
		},
		{
			name: "missing status",
			rec:  purchaseOrderRecord{ID: "1", TranID: "PO1"},
		},
		{
			name: "bad total",
			rec:  purchaseOrderRecord{ID: "1", TranID: "PO1", Status: &wireRef{ID: "B"}, Total: json.Number("oops")},
		},
		{
			name: "bad custom date",
			rec: purchaseOrderRecord{
				ID: "1", TranID: "PO1", Status: &wireRef{ID: "B"},
				ShipDate: strPtr("04/02/2026"),
			},
		},
		{
			name: "bad line quantity",
			rec: purchaseOrderRecord{
				ID: "1", TranID: "PO1", Status: &wireRef{ID: "B"},
				Item: &poLineSublist{Items: []poLineRecord{{Line: 1, Quantity: json.Number("x")}}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.PurchaseOrderFromWire(&tt.rec)
			assert.ErrorIs(t, err, erp.ErrMapping)
		})
	}
}

func TestMapper_PatchToWire(t *testing.T) {
	m := newTestMapper(t)

	t.Run("includes only set fields", func(t *testing.T) {
		shipDate := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
		patch := erp.PurchaseOrderPatch{
			VesselName: strPtr("MV Northern Star"),
			ShipDate:   &shipDate,
		}

		body := m.PatchToWire(patch)
		assert.Equal(t, map[string]any{
			"custbody_vessel_name": "MV Northern Star",
			"custbody_ship_date":   "2026-04-02",
		}, body)
	})

	t.Run("empty patch yields empty body", func(t *testing.T) {
		assert.Empty(t, m.PatchToWire(erp.PurchaseOrderPatch{}))
	})
}

func TestMapper_MessageToWire(t *testing.T) {
	m := newTestMapper(t)

	body := m.MessageToWire(&erp.OutboundMessage{
		PurchaseOrderID: 607632,
		AuthorID:        501,
		RecipientID:     88,
		Subject:         "Vendor update approved",
		Body:            "Vessel details confirmed.",
	})

	assert.Equal(t, map[string]any{"id": "607632"}, body["transaction"])
	assert.Equal(t, map[string]any{"id": "501"}, body["author"])
	assert.Equal(t, map[string]any{"id": "88"}, body["recipient"])
	assert.Equal(t, "Vendor update approved", body["subject"])

	// Recipient is omitted when unknown.
	noRecipient := m.MessageToWire(&erp.OutboundMessage{PurchaseOrderID: 1, AuthorID: 2})
	_, hasRecipient := noRecipient["recipient"]
	assert.False(t, hasRecipient)
}

func TestRefFromWire(t *testing.T) {
	t.Run("nil ref maps to zero", func(t *testing.T) {
		ref, err := refFromWire(nil)
		require.NoError(t, err)
		assert.True(t, ref.IsZero())
	})

	t.Run("bad id fails", func(t *testing.T) {
		_, err := refFromWire(&wireRef{ID: "abc"})
		assert.Error(t, err)
	})
}
