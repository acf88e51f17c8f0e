package bootstrap

import (
	"log"

	"github.com/teamwiki/authd/internal/config"
	"github.com/teamwiki/authd/internal/core"
	"github.com/teamwiki/authd/internal/middleware"
	"github.com/teamwiki/authd/internal/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Routes gated by the rate limiter. The route id doubles as the bucket
// namespace and the denial metric label.
const (
	RoutePassword      = "/auth/password"
	RoutePasswordReset = "/auth/password.reset"
	RouteResetCallback = "/auth/password.callback"
)

// rateLimitMiddlewares holds rate limiting middlewares for the auth endpoints
type rateLimitMiddlewares struct {
	password      gin.HandlerFunc
	passwordReset gin.HandlerFunc
	resetCallback gin.HandlerFunc
}

// setupRateLimiting configures rate limiting middlewares based on
// configuration. Accepts an optional go-redis client.
func setupRateLimiting(
	cfg *config.Config,
	redisClient *redis.Client,
	m core.Recorder,
) rateLimitMiddlewares {
	// Return no-op middlewares when rate limiting is disabled
	noOpMiddleware := func(c *gin.Context) { c.Next() }
	disabledLimiters := rateLimitMiddlewares{
		password:      noOpMiddleware,
		passwordReset: noOpMiddleware,
		resetCallback: noOpMiddleware,
	}

	switch {
	case !cfg.EnableRateLimit:
		log.Println("Rate limiting disabled")
		return disabledLimiters
	default:
		return createRateLimiters(cfg, redisClient, m)
	}
}

// createRateLimiters builds one shared limiter and binds the configured
// policy to every auth route.
func createRateLimiters(
	cfg *config.Config,
	redisClient *redis.Client,
	m core.Recorder,
) rateLimitMiddlewares {
	log.Printf("Rate limiting enabled (store: %s)", cfg.RateLimitStore)

	var limiterStore = ratelimit.NewMemoryStore()
	if cfg.RateLimitStore == config.RateLimitStoreRedis {
		redisStore, err := ratelimit.NewRedisStore(redisClient)
		if err != nil {
			log.Fatalf("Failed to create Redis rate limit store: %v", err)
		}
		limiterStore = redisStore
		log.Printf("Using shared Redis client for rate limiting")
	} else {
		log.Printf("In-memory rate limiting configured (single instance only)")
	}

	policy := ratelimit.PolicyByName(cfg.RateLimitPolicy)
	log.Printf(
		"Auth route policy: %s (%d requests per %s)",
		policy.Name, policy.Limit, policy.Window,
	)

	limiter := ratelimit.New(limiterStore)
	limiter.Bind(RoutePassword, policy)
	limiter.Bind(RoutePasswordReset, policy)
	limiter.Bind(RouteResetCallback, policy)

	return rateLimitMiddlewares{
		password:      middleware.RateLimit(limiter, RoutePassword, m),
		passwordReset: middleware.RateLimit(limiter, RoutePasswordReset, m),
		resetCallback: middleware.RateLimit(limiter, RouteResetCallback, m),
	}
}
