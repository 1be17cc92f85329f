package quota

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a process-local Store used when no database is configured
// and by tests. The mutex covers the whole check-and-increment, preserving
// the never-over-limit property under concurrent calls.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[uuid.UUID]*memWindow
	limit   int
	now     func() time.Time
}

type memWindow struct {
	count       int
	windowStart time.Time
	windowEnd   time.Time
}

func NewMemoryStore(limit int) *MemoryStore {
	return &MemoryStore{
		windows: make(map[uuid.UUID]*memWindow),
		limit:   limit,
		now:     time.Now,
	}
}

// SetNowFunc overrides the clock, used by tests to drive window rollover.
func (s *MemoryStore) SetNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) TryConsume(ctx context.Context, userID uuid.UUID) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	w, ok := s.windows[userID]
	if !ok || !now.Before(w.windowEnd) {
		w = &memWindow{windowStart: now, windowEnd: now.Add(Window)}
		s.windows[userID] = w
	}

	if w.count >= s.limit {
		return &Result{Allowed: false, Remaining: 0, ResetAt: w.windowEnd}, nil
	}

	w.count++
	return &Result{
		Allowed:   true,
		Remaining: s.limit - w.count,
		ResetAt:   w.windowEnd,
	}, nil
}

func (s *MemoryStore) Status(ctx context.Context, userID uuid.UUID) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	w, ok := s.windows[userID]
	if !ok || !now.Before(w.windowEnd) {
		return &Result{Allowed: true, Remaining: s.limit, ResetAt: now.Add(Window)}, nil
	}

	remaining := s.limit - w.count
	if remaining < 0 {
		remaining = 0
	}
	return &Result{
		Allowed:   remaining > 0,
		Remaining: remaining,
		ResetAt:   w.windowEnd,
	}, nil
}

func (s *MemoryStore) Limit() int {
	return s.limit
}
