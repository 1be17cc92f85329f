package quota

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CachedStore layers a Redis cache over an authoritative Store. Only Status
// reads go through the cache; TryConsume always hits the backing store and
// refreshes the cached value from its result, so the cache can lag but can
// never admit a request the store would deny.
type CachedStore struct {
	store Store
	rdb   *redis.Client
	ttl   time.Duration
}

func NewCachedStore(store Store, rdb *redis.Client) *CachedStore {
	return &CachedStore{store: store, rdb: rdb, ttl: time.Minute}
}

func (s *CachedStore) TryConsume(ctx context.Context, userID uuid.UUID) (*Result, error) {
	res, err := s.store.TryConsume(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, userID, res)
	return res, nil
}

func (s *CachedStore) Status(ctx context.Context, userID uuid.UUID) (*Result, error) {
	key := statusKey(userID)
	vals, err := s.rdb.HGetAll(ctx, key).Result()
	if err == nil && len(vals) > 0 {
		if res, ok := parseCached(vals); ok {
			return res, nil
		}
	}

	res, err := s.store.Status(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, userID, res)
	return res, nil
}

func (s *CachedStore) Limit() int {
	return s.store.Limit()
}

func (s *CachedStore) cache(ctx context.Context, userID uuid.UUID, res *Result) {
	key := statusKey(userID)
	err := s.rdb.HSet(ctx, key,
		"remaining", res.Remaining,
		"reset_at", res.ResetAt.UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		// Cache failures are not admission failures.
		log.Printf("Warning: failed to cache quota status: %v", err)
		return
	}
	if err := s.rdb.Expire(ctx, key, s.ttl).Err(); err != nil {
		log.Printf("Warning: failed to set quota cache TTL: %v", err)
	}
}

func parseCached(vals map[string]string) (*Result, bool) {
	remainingStr, ok := vals["remaining"]
	if !ok {
		return nil, false
	}
	resetStr, ok := vals["reset_at"]
	if !ok {
		return nil, false
	}

	var remaining int
	if _, err := fmt.Sscanf(remainingStr, "%d", &remaining); err != nil {
		return nil, false
	}
	resetAt, err := time.Parse(time.RFC3339Nano, resetStr)
	if err != nil {
		return nil, false
	}

	// An expired window means the cached entry is stale.
	if !time.Now().UTC().Before(resetAt) {
		return nil, false
	}

	return &Result{
		Allowed:   remaining > 0,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, true
}

func statusKey(userID uuid.UUID) string {
	return "quota:" + userID.String()
}
