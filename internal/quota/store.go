// Package quota enforces the per-user daily request limit. Exactly one
// store is authoritative for admission; the Redis cache only serves reads.
package quota

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Window is the rolling counting period, anchored at the first consume
// after the previous window elapsed.
const Window = 24 * time.Hour

// Result reports the outcome of a consume attempt. Remaining is only
// meaningful when Allowed; ResetAt is always set.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Store is the authoritative per-user counter. TryConsume increments and
// checks in one atomic step; a denied call must not increment. Rollover is
// lazy: a call at or past the window end resets before evaluating.
type Store interface {
	TryConsume(ctx context.Context, userID uuid.UUID) (*Result, error)
	// Status reads the current window without consuming.
	Status(ctx context.Context, userID uuid.UUID) (*Result, error)
	// Limit is the configured maximum per window.
	Limit() int
}
