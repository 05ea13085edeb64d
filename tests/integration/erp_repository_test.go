package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendorportal/backend/internal/domain/erp"
	"github.com/vendorportal/backend/internal/domain/shared"
	"github.com/vendorportal/backend/internal/infrastructure/persistence"
)

func baselineOrder(netsuiteID int64) *erp.PurchaseOrder {
	due := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	return &erp.PurchaseOrder{
		ID:         uuid.New(),
		NetSuiteID: netsuiteID,
		TranID:     "PO607632",
		Status:     "B",
		StatusName: "Pending Receipt",
		Vendor:     erp.RecordRef{ID: 88, Name: "Acme Textiles"},
		Location:   erp.RecordRef{ID: 3, Name: "Main Warehouse"},
		Currency:   erp.RecordRef{ID: 1, Name: "USD"},
		Total:      decimal.NewFromInt(500),
		TranDate:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		DueDate:    &due,
		Memo:       "Summer order",
		Items: []erp.PurchaseOrderItem{
			{
				LineID:   1,
				Item:     erp.RecordRef{ID: 412, Name: "SKU-TEE-L"},
				Quantity: decimal.NewFromInt(40),
				Rate:     decimal.RequireFromString("12.5"),
				Amount:   decimal.NewFromInt(500),
			},
		},
	}
}

func TestPurchaseOrderRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := NewTestDB(t)
	repo := persistence.NewGormPurchaseOrderRepository(tdb.DB)
	ctx := context.Background()

	t.Run("upsert inserts a new mirror row", func(t *testing.T) {
		tdb.CleanTables()

		preserved, err := repo.UpsertBaseline(ctx, baselineOrder(607632))
		require.NoError(t, err)
		assert.False(t, preserved)

		po, err := repo.FindByNetSuiteID(ctx, 607632)
		require.NoError(t, err)
		assert.Equal(t, "PO607632", po.TranID)
		assert.False(t, po.HasVendorUpdates)
		require.Len(t, po.Items, 1)
		assert.True(t, po.Items[0].Quantity.Equal(decimal.NewFromInt(40)))
	})

	t.Run("baseline refresh preserves pending vendor edits", func(t *testing.T) {
		tdb.CleanTables()

		_, err := repo.UpsertBaseline(ctx, baselineOrder(607632))
		require.NoError(t, err)

		// Simulate a vendor edit landing through the portal.
		vessel := "MV Ever Given"
		err = tdb.DB.Exec(`
			UPDATE purchase_orders
			SET vessel_name = ?, has_vendor_updates = TRUE, synced_to_netsuite = FALSE
			WHERE net_suite_id = ?
		`, vessel, int64(607632)).Error
		require.NoError(t, err)

		refreshed := baselineOrder(607632)
		refreshed.Total = decimal.NewFromInt(750)
		refreshed.Status = "D"
		refreshed.StatusName = "Partially Received"

		preserved, err := repo.UpsertBaseline(ctx, refreshed)
		require.NoError(t, err)
		assert.True(t, preserved)

		po, err := repo.FindByNetSuiteID(ctx, 607632)
		require.NoError(t, err)
		assert.True(t, po.Total.Equal(decimal.NewFromInt(750)), "baseline fields must refresh")
		assert.Equal(t, "D", po.Status)
		require.NotNil(t, po.VesselName, "vendor fields must survive the refresh")
		assert.Equal(t, vessel, *po.VesselName)
		assert.True(t, po.HasVendorUpdates)
	})

	t.Run("clear vendor updates flips both flags", func(t *testing.T) {
		tdb.CleanTables()

		_, err := repo.UpsertBaseline(ctx, baselineOrder(607632))
		require.NoError(t, err)
		err = tdb.DB.Exec(`
			UPDATE purchase_orders SET has_vendor_updates = TRUE WHERE net_suite_id = ?
		`, int64(607632)).Error
		require.NoError(t, err)

		require.NoError(t, repo.ClearVendorUpdates(ctx, 607632))

		po, err := repo.FindByNetSuiteID(ctx, 607632)
		require.NoError(t, err)
		assert.False(t, po.HasVendorUpdates)
		assert.True(t, po.SyncedToNetSuite)

		err = repo.ClearVendorUpdates(ctx, 607632)
		assert.ErrorIs(t, err, erp.ErrNoVendorUpdates)
	})

	t.Run("missing order maps to not found", func(t *testing.T) {
		tdb.CleanTables()

		_, err := repo.FindByNetSuiteID(ctx, 999999)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestAccountAndItemRepositories(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := NewTestDB(t)
	accounts := persistence.NewGormAccountRepository(tdb.DB)
	items := persistence.NewGormItemRepository(tdb.DB)
	ctx := context.Background()

	t.Run("account upsert overwrites by netsuite id", func(t *testing.T) {
		tdb.CleanTables()

		account := &erp.Account{
			ID:          uuid.New(),
			NetSuiteID:  88,
			EntityID:    "V-088",
			CompanyName: "Acme Textiles",
			Email:       "ops@acme.example",
			Currency:    erp.RecordRef{ID: 1, Name: "USD"},
			Balance:     decimal.NewFromInt(1200),
		}
		require.NoError(t, accounts.Upsert(ctx, account))

		account.CompanyName = "Acme Textiles Ltd"
		account.Balance = decimal.NewFromInt(900)
		require.NoError(t, accounts.Upsert(ctx, account))

		got, err := accounts.FindByNetSuiteID(ctx, 88)
		require.NoError(t, err)
		assert.Equal(t, "Acme Textiles Ltd", got.CompanyName)
		assert.True(t, got.Balance.Equal(decimal.NewFromInt(900)))
	})

	t.Run("item round trip", func(t *testing.T) {
		tdb.CleanTables()

		item := &erp.Item{
			ID:          uuid.New(),
			NetSuiteID:  412,
			ItemID:      "SKU-TEE-L",
			DisplayName: "T-Shirt Large",
			BasePrice:   decimal.RequireFromString("12.5"),
			Vendor:      erp.RecordRef{ID: 88, Name: "Acme Textiles"},
		}
		require.NoError(t, items.Upsert(ctx, item))

		got, err := items.FindByNetSuiteID(ctx, 412)
		require.NoError(t, err)
		assert.Equal(t, "SKU-TEE-L", got.ItemID)
		assert.True(t, got.BasePrice.Equal(decimal.RequireFromString("12.5")))
	})
}

func TestSyncLogRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := NewTestDB(t)
	repo := persistence.NewGormSyncLogRepository(tdb.DB)
	ctx := context.Background()

	t.Run("lifecycle and filtered listing", func(t *testing.T) {
		tdb.CleanTables()

		first := erp.NewSyncLogEntry(erp.SyncTypeAccounts, "sandbox", "op-7")
		require.NoError(t, repo.Create(ctx, first))
		first.Complete(25, 0)
		require.NoError(t, repo.Finalize(ctx, first))

		second := erp.NewSyncLogEntry(erp.SyncTypePurchaseOrders, "sandbox", "schedule")
		require.NoError(t, repo.Create(ctx, second))
		second.Fail(3, 1, context.DeadlineExceeded)
		require.NoError(t, repo.Finalize(ctx, second))

		entries, total, err := repo.List(ctx, erp.SyncLogFilter{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, entries, 2)
		// Newest first.
		assert.Equal(t, erp.SyncTypePurchaseOrders, entries[0].Type)

		failed := erp.SyncStatusFailed
		entries, total, err = repo.List(ctx, erp.SyncLogFilter{Status: &failed, Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, entries, 1)
		assert.Equal(t, 1, entries[0].RecordsFailed)
		assert.Contains(t, entries[0].Error, "deadline")
	})
}
