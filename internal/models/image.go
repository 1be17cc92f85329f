package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// ImageRecord is one background-removal job owned by a user. The owner is
// fixed at creation; processed fields are set exactly once when the external
// API returns a result.
type ImageRecord struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	OriginalPath  string
	OriginalURL   string
	ProcessedPath sql.NullString
	ProcessedURL  sql.NullString
	CreatedAt     time.Time
}

// Completed reports whether the processed blob has been attached.
func (r *ImageRecord) Completed() bool {
	return r.ProcessedURL.Valid
}

// QuotaWindow is the authoritative per-user request counter. count only
// grows within [window_start, window_end); the first consume at or after
// window_end starts a fresh 24-hour span anchored at that call.
type QuotaWindow struct {
	UserID      uuid.UUID
	Count       int
	WindowStart time.Time
	WindowEnd   time.Time
}
