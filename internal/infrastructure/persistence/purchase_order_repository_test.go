package persistence

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/vendorportal/backend/internal/domain/erp"
	"github.com/vendorportal/backend/internal/domain/shared"
)

// newMockDB creates a GORM connection backed by sqlmock
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

// anyArgs builds a placeholder argument list of the given size. Used where
// the test cares about how many columns a statement writes, not their values.
func anyArgs(n int) []driver.Value {
	args := make([]driver.Value, n)
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	return args
}

func testIncomingPurchaseOrder() *erp.PurchaseOrder {
	vessel := "MV Incoming"
	return &erp.PurchaseOrder{
		NetSuiteID: 607632,
		TranID:     "PO607632",
		Status:     "B",
		StatusName: "Pending Receipt",
		Vendor:     erp.RecordRef{ID: 88, Name: "Acme Textiles"},
		Currency:   erp.RecordRef{ID: 1, Name: "USD"},
		Total:      decimal.NewFromInt(1310),
		TranDate:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		VesselName: &vessel,
		Items: []erp.PurchaseOrderItem{
			{LineID: 1, Item: erp.RecordRef{ID: 412, Name: "SKU-TEE-L"}, Quantity: decimal.NewFromInt(40), Rate: decimal.NewFromFloat(12.5), Amount: decimal.NewFromInt(500)},
		},
	}
}

func TestGormPurchaseOrderRepository_FindByNetSuiteID(t *testing.T) {
	t.Run("finds existing order with items", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormPurchaseOrderRepository(db)

		orderID := uuid.New()
		rows := sqlmock.NewRows([]string{"id", "net_suite_id", "tran_id", "status", "has_vendor_updates", "total", "tran_date"}).
			AddRow(orderID, int64(607632), "PO607632", "B", false, decimal.NewFromInt(1310), time.Now())

		mock.ExpectQuery(`SELECT \* FROM "purchase_orders" WHERE net_suite_id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(int64(607632), 1).
			WillReturnRows(rows)

		itemRows := sqlmock.NewRows([]string{"id", "purchase_order_id", "line_id", "item_id", "quantity"}).
			AddRow(uuid.New(), orderID, int64(1), int64(412), decimal.NewFromInt(40))
		mock.ExpectQuery(`SELECT \* FROM "purchase_order_items" WHERE "purchase_order_items"\."purchase_order_id" = \$1`).
			WithArgs(orderID).
			WillReturnRows(itemRows)

		po, err := repo.FindByNetSuiteID(context.Background(), 607632)

		require.NoError(t, err)
		assert.Equal(t, "PO607632", po.TranID)
		require.Len(t, po.Items, 1)
		assert.Equal(t, int64(412), po.Items[0].Item.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing order", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormPurchaseOrderRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "purchase_orders" WHERE net_suite_id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(int64(42), 1).
			WillReturnError(gorm.ErrRecordNotFound)

		po, err := repo.FindByNetSuiteID(context.Background(), 42)

		assert.Nil(t, po)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPurchaseOrderRepository_UpsertBaseline(t *testing.T) {
	t.Run("inserts when no row exists", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormPurchaseOrderRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "purchase_orders" WHERE net_suite_id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(int64(607632), 1).
			WillReturnError(gorm.ErrRecordNotFound)
		// Pin the flag columns to the names the migrations create.
		mock.ExpectExec(`INSERT INTO "purchase_orders" \(.*"net_suite_id".*"has_vendor_updates","synced_to_netsuite".*\)`).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`DELETE FROM "purchase_order_items" WHERE purchase_order_id = \$1`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO "purchase_order_items"`).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		preserved, err := repo.UpsertBaseline(context.Background(), testIncomingPurchaseOrder())

		require.NoError(t, err)
		assert.False(t, preserved)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("overwrites vendor fields when flag is clear", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormPurchaseOrderRepository(db)

		orderID := uuid.New()
		rows := sqlmock.NewRows([]string{"id", "net_suite_id", "has_vendor_updates"}).
			AddRow(orderID, int64(607632), false)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "purchase_orders" WHERE net_suite_id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(int64(607632), 1).
			WillReturnRows(rows)
		// 14 baseline columns plus 6 vendor columns, then the id.
		mock.ExpectExec(`UPDATE "purchase_orders" SET`).
			WithArgs(anyArgs(21)...).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM "purchase_order_items" WHERE purchase_order_id = \$1`).
			WithArgs(orderID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO "purchase_order_items"`).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		preserved, err := repo.UpsertBaseline(context.Background(), testIncomingPurchaseOrder())

		require.NoError(t, err)
		assert.False(t, preserved)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("preserves vendor fields when flag is set", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormPurchaseOrderRepository(db)

		orderID := uuid.New()
		rows := sqlmock.NewRows([]string{"id", "net_suite_id", "has_vendor_updates", "vessel_name"}).
			AddRow(orderID, int64(607632), true, "MV Vendor Edit")

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "purchase_orders" WHERE net_suite_id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(int64(607632), 1).
			WillReturnRows(rows)
		// Only the 14 baseline columns plus the id; the vendor columns stay.
		mock.ExpectExec(`UPDATE "purchase_orders" SET`).
			WithArgs(anyArgs(15)...).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM "purchase_order_items" WHERE purchase_order_id = \$1`).
			WithArgs(orderID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO "purchase_order_items"`).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		preserved, err := repo.UpsertBaseline(context.Background(), testIncomingPurchaseOrder())

		require.NoError(t, err)
		assert.True(t, preserved)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPurchaseOrderRepository_ClearVendorUpdates(t *testing.T) {
	t.Run("clears the flag and marks synced", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormPurchaseOrderRepository(db)

		mock.ExpectExec(`UPDATE "purchase_orders" SET`).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), int64(607632), true).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.ClearVendorUpdates(context.Background(), 607632)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNoVendorUpdates when flag already clear", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormPurchaseOrderRepository(db)

		mock.ExpectExec(`UPDATE "purchase_orders" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "purchase_orders" WHERE net_suite_id = \$1`).
			WithArgs(int64(607632)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		err := repo.ClearVendorUpdates(context.Background(), 607632)

		assert.ErrorIs(t, err, erp.ErrNoVendorUpdates)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing order", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormPurchaseOrderRepository(db)

		mock.ExpectExec(`UPDATE "purchase_orders" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "purchase_orders" WHERE net_suite_id = \$1`).
			WithArgs(int64(999)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		err := repo.ClearVendorUpdates(context.Background(), 999)

		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
