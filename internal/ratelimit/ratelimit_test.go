package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ulule/limiter/v3"
)

func TestPolicyByName(t *testing.T) {
	assert.Equal(t, TenPerHour, PolicyByName("ten-per-hour"))
	assert.Equal(t, FivePerMinute, PolicyByName("five-per-minute"))
	assert.Equal(t, SixtyPerHour, PolicyByName("sixty-per-hour"))

	// Unknown names fall back to the default policy
	assert.Equal(t, TenPerHour, PolicyByName("no-such-policy"))
}

func TestAdmitEnforcesCeiling(t *testing.T) {
	l := New(NewMemoryStore())
	l.Bind("/auth/password", TenPerHour)

	ctx := context.Background()

	// The first ten requests in the window are admitted
	for i := 0; i < 10; i++ {
		decision := l.Admit(ctx, "203.0.113.7", "/auth/password")
		assert.True(t, decision.Allowed, "request %d should be allowed", i+1)
	}

	// The eleventh is denied with a retry hint
	decision := l.Admit(ctx, "203.0.113.7", "/auth/password")
	assert.False(t, decision.Allowed)
	assert.Greater(t, decision.RetryAfter, time.Duration(0))
}

func TestAdmitKeysAreIndependent(t *testing.T) {
	l := New(NewMemoryStore())
	l.Bind("/auth/password", TenPerHour)

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		l.Admit(ctx, "203.0.113.7", "/auth/password")
	}
	assert.False(t, l.Admit(ctx, "203.0.113.7", "/auth/password").Allowed)

	// A different client key is unaffected
	assert.True(t, l.Admit(ctx, "198.51.100.9", "/auth/password").Allowed)
}

func TestAdmitRoutesAreIndependent(t *testing.T) {
	l := New(NewMemoryStore())
	l.Bind("/auth/password", TenPerHour)
	l.Bind("/auth/password.reset", TenPerHour)

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		l.Admit(ctx, "203.0.113.7", "/auth/password")
	}
	assert.False(t, l.Admit(ctx, "203.0.113.7", "/auth/password").Allowed)

	// The same key on a different route has its own bucket
	assert.True(t, l.Admit(ctx, "203.0.113.7", "/auth/password.reset").Allowed)
}

func TestAdmitNewWindowAllows(t *testing.T) {
	l := New(NewMemoryStore())
	l.Bind("/auth/password", Policy{Name: "test", Limit: 2, Window: 50 * time.Millisecond})

	ctx := context.Background()
	assert.True(t, l.Admit(ctx, "203.0.113.7", "/auth/password").Allowed)
	assert.True(t, l.Admit(ctx, "203.0.113.7", "/auth/password").Allowed)
	assert.False(t, l.Admit(ctx, "203.0.113.7", "/auth/password").Allowed)

	// The first request after window expiry is admitted again
	time.Sleep(60 * time.Millisecond)
	assert.True(t, l.Admit(ctx, "203.0.113.7", "/auth/password").Allowed)
}

func TestAdmitUnboundRouteAllowed(t *testing.T) {
	l := New(NewMemoryStore())
	assert.True(t, l.Admit(context.Background(), "203.0.113.7", "/health").Allowed)
}

// failingStore simulates storage unavailability.
type failingStore struct{}

func (failingStore) Get(ctx context.Context, key string, rate limiter.Rate) (limiter.Context, error) {
	return limiter.Context{}, errors.New("store down")
}

func (failingStore) Peek(ctx context.Context, key string, rate limiter.Rate) (limiter.Context, error) {
	return limiter.Context{}, errors.New("store down")
}

func (failingStore) Reset(ctx context.Context, key string, rate limiter.Rate) (limiter.Context, error) {
	return limiter.Context{}, errors.New("store down")
}

func (failingStore) Increment(
	ctx context.Context,
	key string,
	count int64,
	rate limiter.Rate,
) (limiter.Context, error) {
	return limiter.Context{}, errors.New("store down")
}

// Storage failure denies the request rather than letting it through.
func TestAdmitFailsClosedOnStoreError(t *testing.T) {
	l := New(failingStore{})
	l.Bind("/auth/password", TenPerHour)

	decision := l.Admit(context.Background(), "203.0.113.7", "/auth/password")
	assert.False(t, decision.Allowed)
	assert.Greater(t, decision.RetryAfter, time.Duration(0))
}
