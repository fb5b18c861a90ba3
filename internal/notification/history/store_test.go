package history

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concrnt-notifier/internal/common/logger"
	"concrnt-notifier/internal/concrnt"
	"concrnt-notifier/internal/notification/classify"
)

// ==========================
// Test Helper Functions
// ==========================

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// ==========================
// Core Functionality Tests
// ==========================

func TestShouldAnnounce(t *testing.T) {
	tests := []struct {
		name   string
		exists bool
		want   bool
	}{
		{"unseen event", false, true},
		{"already announced", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			store := New(db, logger.NewTestLogger(t))

			mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM announced_notifications`).
				WithArgs("con1me", "assoc-1").
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tt.exists))

			got, err := store.ShouldAnnounce(context.Background(), "con1me", "assoc-1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRecord(t *testing.T) {
	db, mock := setupMockDB(t)
	store := New(db, logger.NewTestLogger(t))

	ev := concrnt.AssociationEvent{
		ID:     "assoc-1",
		Schema: concrnt.SchemaLikeAssociation,
		Target: "msg-1",
	}

	mock.ExpectExec(`INSERT INTO announced_notifications`).
		WithArgs(sqlmock.AnyArg(), "con1me", "assoc-1", "like", "msg-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Record(context.Background(), "con1me", ev, classify.KindLike)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCleanOlderThan(t *testing.T) {
	db, mock := setupMockDB(t)
	store := New(db, logger.NewTestLogger(t))

	mock.ExpectExec(`DELETE FROM announced_notifications WHERE announced_at <`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 42))

	deleted, err := store.CleanOlderThan(context.Background(), 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(42), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShouldAnnounce_QueryError(t *testing.T) {
	db, mock := setupMockDB(t)
	store := New(db, logger.NewTestLogger(t))

	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnError(sql.ErrConnDone)

	_, err := store.ShouldAnnounce(context.Background(), "con1me", "assoc-1")
	assert.Error(t, err)
}
