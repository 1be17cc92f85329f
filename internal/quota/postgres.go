package quota

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"backsnap-backend/internal/models"
	"backsnap-backend/internal/supabase"
)

// PostgresStore keeps the counter in the quota_windows table. Admission is
// a single conditional upsert, so concurrent requests from two sessions of
// the same user serialize in the database instead of racing a read and a
// write here.
type PostgresStore struct {
	db    *supabase.DatabaseClient
	limit int
	now   func() time.Time
}

func NewPostgresStore(db *supabase.DatabaseClient, limit int) *PostgresStore {
	return &PostgresStore{db: db, limit: limit, now: time.Now}
}

func (s *PostgresStore) TryConsume(ctx context.Context, userID uuid.UUID) (*Result, error) {
	now := s.now().UTC()

	qw, err := s.db.ConsumeQuota(ctx, userID, s.limit, now, Window)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The upsert refused: window still live and count at limit.
			return s.denied(ctx, userID, now)
		}
		return nil, models.WrapError(models.KindStorage, "quota consume failed", err)
	}

	return &Result{
		Allowed:   true,
		Remaining: s.limit - qw.Count,
		ResetAt:   qw.WindowEnd,
	}, nil
}

func (s *PostgresStore) denied(ctx context.Context, userID uuid.UUID, now time.Time) (*Result, error) {
	qw, err := s.db.GetQuotaWindow(ctx, userID)
	if err != nil {
		return nil, models.WrapError(models.KindStorage, "quota window lookup failed", err)
	}
	return &Result{
		Allowed:   false,
		Remaining: 0,
		ResetAt:   qw.WindowEnd,
	}, nil
}

func (s *PostgresStore) Status(ctx context.Context, userID uuid.UUID) (*Result, error) {
	now := s.now().UTC()

	qw, err := s.db.GetQuotaWindow(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &Result{Allowed: true, Remaining: s.limit, ResetAt: now.Add(Window)}, nil
		}
		return nil, models.WrapError(models.KindStorage, "quota window lookup failed", err)
	}

	// An elapsed window reads as fresh; the reset itself happens on the
	// next consume.
	if !now.Before(qw.WindowEnd) {
		return &Result{Allowed: true, Remaining: s.limit, ResetAt: now.Add(Window)}, nil
	}

	remaining := s.limit - qw.Count
	if remaining < 0 {
		remaining = 0
	}
	return &Result{
		Allowed:   remaining > 0,
		Remaining: remaining,
		ResetAt:   qw.WindowEnd,
	}, nil
}

func (s *PostgresStore) Limit() int {
	return s.limit
}
