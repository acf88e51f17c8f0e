// Package ratelimit bounds request rates per (client key, route) using
// named policies over a shared limiter store. Counter increments are
// atomic in the store, and windows reset lazily on the first request
// after expiry.
package ratelimit

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/redis/go-redis/v9"
)

// Policy is a named request ceiling over a rolling window.
type Policy struct {
	Name   string
	Limit  int64
	Window time.Duration
}

// Named policies. TenPerHour is the default for authentication routes.
var (
	TenPerHour    = Policy{Name: "ten-per-hour", Limit: 10, Window: time.Hour}
	FivePerMinute = Policy{Name: "five-per-minute", Limit: 5, Window: time.Minute}
	SixtyPerHour  = Policy{Name: "sixty-per-hour", Limit: 60, Window: time.Hour}
)

// PolicyByName resolves a configured policy name. Unknown names fall
// back to TenPerHour so a config typo tightens rather than disables
// protection.
func PolicyByName(name string) Policy {
	switch name {
	case FivePerMinute.Name:
		return FivePerMinute
	case SixtyPerHour.Name:
		return SixtyPerHour
	case TenPerHour.Name:
		return TenPerHour
	default:
		log.Printf("Unknown rate limit policy %q, using %s", name, TenPerHour.Name)
		return TenPerHour
	}
}

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter admits or denies requests per (client key, route). Each route
// is bound to one policy; all routes share a single authoritative
// counter store.
type Limiter struct {
	store  limiter.Store
	routes map[string]*limiter.Limiter
}

// NewMemoryStore returns an in-process limiter store (single instance only).
func NewMemoryStore() limiter.Store {
	return memory.NewStore()
}

// NewRedisStore returns a Redis-backed limiter store for multi-instance
// deployments.
func NewRedisStore(client *redis.Client) (limiter.Store, error) {
	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix:          "ratelimit",
		CleanUpInterval: 5 * time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis rate limit store: %w", err)
	}
	return store, nil
}

func New(store limiter.Store) *Limiter {
	return &Limiter{
		store:  store,
		routes: make(map[string]*limiter.Limiter),
	}
}

// Bind attaches a policy to a route. Must be called during setup,
// before the limiter serves requests.
func (l *Limiter) Bind(route string, p Policy) {
	l.routes[route] = limiter.New(l.store, limiter.Rate{
		Period: p.Window,
		Limit:  p.Limit,
	})
}

// Admit checks and counts one request for (clientKey, route). The
// increment is atomic in the underlying store. Routes without a bound
// policy are admitted unconditionally. Storage failure denies the
// request: rate limiting fails closed.
func (l *Limiter) Admit(ctx context.Context, clientKey, route string) Decision {
	instance, ok := l.routes[route]
	if !ok {
		return Decision{Allowed: true}
	}

	lctx, err := instance.Get(ctx, route+":"+clientKey)
	if err != nil {
		log.Printf("Rate limit store unavailable for %s, denying request: %v", route, err)
		return Decision{Allowed: false, RetryAfter: time.Minute}
	}

	if lctx.Reached {
		return Decision{
			Allowed:    false,
			Remaining:  lctx.Remaining,
			RetryAfter: time.Until(time.Unix(lctx.Reset, 0)),
		}
	}

	return Decision{Allowed: true, Remaining: lctx.Remaining}
}
