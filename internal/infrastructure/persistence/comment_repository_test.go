package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendorportal/backend/internal/domain/erp"
)

func TestGormCommentRepository_FindPendingForPush(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormCommentRepository(db)

	orderID := uuid.New()
	rows := sqlmock.NewRows([]string{"id", "purchase_order_id", "author_role", "body", "internal", "pushed_to_erp", "created_at"}).
		AddRow(uuid.New(), orderID, "vendor", "Shipment delayed one week.", false, false, time.Now())

	mock.ExpectQuery(`SELECT \* FROM "purchase_order_comments" WHERE purchase_order_id = \$1 AND internal = \$2 AND pushed_to_erp = \$3 ORDER BY created_at ASC`).
		WithArgs(orderID, false, false).
		WillReturnRows(rows)

	comments, err := repo.FindPendingForPush(context.Background(), orderID)

	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, erp.CommentAuthorVendor, comments[0].AuthorRole)
	assert.False(t, comments[0].PushedToERP)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormCommentRepository_MarkPushed(t *testing.T) {
	t.Run("flags the given comments", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormCommentRepository(db)

		ids := []uuid.UUID{uuid.New(), uuid.New()}

		mock.ExpectExec(`UPDATE "purchase_order_comments" SET`).
			WillReturnResult(sqlmock.NewResult(0, 2))

		err := repo.MarkPushed(context.Background(), ids)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no-op for empty id list", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormCommentRepository(db)

		err := repo.MarkPushed(context.Background(), nil)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
