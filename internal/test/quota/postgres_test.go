package quota_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backsnap-backend/internal/models"
	"backsnap-backend/internal/quota"
	"backsnap-backend/internal/supabase"
)

func newPostgresStore(t *testing.T, limit int) (*quota.PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	client := supabase.NewDatabaseClientWithDB(db)
	return quota.NewPostgresStore(client, limit), mock
}

func TestPostgresStore_TryConsume_Allowed(t *testing.T) {
	store, mock := newPostgresStore(t, 20)
	userID := uuid.New()
	windowEnd := time.Now().UTC().Add(20 * time.Hour)

	mock.ExpectQuery(`INSERT INTO quota_windows`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "count", "window_start", "window_end"}).
			AddRow(userID, 1, windowEnd.Add(-24*time.Hour), windowEnd))

	res, err := store.TryConsume(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 19, res.Remaining)
	assert.Equal(t, windowEnd, res.ResetAt.UTC())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_TryConsume_Denied(t *testing.T) {
	store, mock := newPostgresStore(t, 20)
	userID := uuid.New()
	windowEnd := time.Now().UTC().Add(3 * time.Hour)

	// The conditional upsert refuses to touch an exhausted live window.
	mock.ExpectQuery(`INSERT INTO quota_windows`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT user_id, count, window_start, window_end`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "count", "window_start", "window_end"}).
			AddRow(userID, 20, windowEnd.Add(-24*time.Hour), windowEnd))

	res, err := store.TryConsume(context.Background(), userID)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, windowEnd, res.ResetAt.UTC())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Status_NoWindowYet(t *testing.T) {
	store, mock := newPostgresStore(t, 20)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT user_id, count, window_start, window_end`).
		WillReturnError(sql.ErrNoRows)

	res, err := store.Status(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 20, res.Remaining)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Status_ElapsedWindowReadsFresh(t *testing.T) {
	store, mock := newPostgresStore(t, 20)
	userID := uuid.New()
	windowEnd := time.Now().UTC().Add(-time.Minute)

	mock.ExpectQuery(`SELECT user_id, count, window_start, window_end`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "count", "window_start", "window_end"}).
			AddRow(userID, 20, windowEnd.Add(-24*time.Hour), windowEnd))

	res, err := store.Status(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 20, res.Remaining)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_TryConsume_DatabaseError(t *testing.T) {
	store, mock := newPostgresStore(t, 20)
	userID := uuid.New()

	mock.ExpectQuery(`INSERT INTO quota_windows`).
		WillReturnError(sql.ErrConnDone)

	_, err := store.TryConsume(context.Background(), userID)
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindStorage))
	require.NoError(t, mock.ExpectationsWereMet())
}
