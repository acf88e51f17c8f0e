package metrics

import (
	"context"
	"time"

	"github.com/teamwiki/authd/internal/core"
)

// CacheWrapper provides a read-through cache for the gauge update job.
// It queries the database on cache miss and stores the result for
// subsequent updates, keeping multi-instance deployments from hammering
// the counts on every tick.
type CacheWrapper struct {
	store core.MetricsStore
	cache core.Cache[int64]
}

// NewCacheWrapper creates a new cache wrapper for gauge metrics.
func NewCacheWrapper(store core.MetricsStore, cache core.Cache[int64]) *CacheWrapper {
	return &CacheWrapper{
		store: store,
		cache: cache,
	}
}

// GetUsersCount retrieves the user count via the cache-aside pattern.
func (w *CacheWrapper) GetUsersCount(ctx context.Context, ttl time.Duration) (int64, error) {
	return w.getCountWithCache(ctx, "counts:users", ttl, w.store.CountUsers)
}

// GetTeamsCount retrieves the team count via the cache-aside pattern.
func (w *CacheWrapper) GetTeamsCount(ctx context.Context, ttl time.Duration) (int64, error) {
	return w.getCountWithCache(ctx, "counts:teams", ttl, w.store.CountTeams)
}

// GetOutstandingResetTokensCount retrieves the count of unconsumed,
// unexpired reset tokens via the cache-aside pattern.
func (w *CacheWrapper) GetOutstandingResetTokensCount(
	ctx context.Context,
	ttl time.Duration,
) (int64, error) {
	return w.getCountWithCache(
		ctx, "counts:reset_tokens", ttl, w.store.CountOutstandingResetTokens,
	)
}

func (w *CacheWrapper) getCountWithCache(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fetchFunc func() (int64, error),
) (int64, error) {
	return w.cache.GetWithFetch(
		ctx,
		key,
		ttl,
		func(ctx context.Context, key string) (int64, error) {
			return fetchFunc()
		},
	)
}
