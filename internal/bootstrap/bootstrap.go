package bootstrap

import (
	"context"
	"net/http"

	"github.com/teamwiki/authd/internal/auth"
	"github.com/teamwiki/authd/internal/config"
	"github.com/teamwiki/authd/internal/core"
	"github.com/teamwiki/authd/internal/services"
	"github.com/teamwiki/authd/internal/store"
	"github.com/teamwiki/authd/internal/tasks"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB                   *store.Store
	MetricsRecorder      core.Recorder
	MetricsCache         core.Cache[int64]
	MetricsCacheCloser   func() error
	RateLimitRedisClient *redis.Client

	// Background tasks
	Scheduler       tasks.Scheduler
	SchedulerCloser func() error
	TaskWorker      *tasks.Worker

	// Services
	Verifier      *auth.Verifier
	Provisioner   *services.Provisioner
	ResetService  *services.ResetService
	SessionIssuer *services.SessionIssuer

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

// Run initializes and starts the application
func Run(ctx context.Context, cfg *config.Config) error {
	app := &Application{Config: cfg}

	// Phase 1: Initialize infrastructure
	if err := app.initializeInfrastructure(ctx); err != nil {
		return err
	}

	// Phase 2: Initialize business layer
	app.initializeBusinessLayer()

	// Phase 3: Initialize HTTP layer
	app.initializeHTTPLayer()

	// Phase 4: Start server with graceful shutdown
	app.startWithGracefulShutdown()

	return nil
}

// initializeInfrastructure sets up database, metrics, cache, Redis, and
// the task queue
func (app *Application) initializeInfrastructure(ctx context.Context) error {
	var err error

	// Database
	app.DB, err = initializeDatabase(ctx, app.Config)
	if err != nil {
		return err
	}

	// Metrics
	app.MetricsRecorder = initializeMetrics(app.Config)
	app.MetricsCache, app.MetricsCacheCloser, err = initializeMetricsCache(ctx, app.Config)
	if err != nil {
		return err
	}

	// Redis (for rate limiting)
	app.RateLimitRedisClient, err = initializeRateLimitRedisClient(ctx, app.Config)
	if err != nil {
		return err
	}

	// Task queue
	app.Scheduler, app.SchedulerCloser, app.TaskWorker = initializeTaskQueue(app.Config)

	return nil
}

// initializeBusinessLayer sets up services
func (app *Application) initializeBusinessLayer() {
	app.Verifier = auth.NewVerifier(app.DB, app.Config.LocalLogin)
	app.Provisioner = services.NewProvisioner(app.DB, app.MetricsRecorder)
	app.ResetService = services.NewResetService(
		app.DB, app.Config.ResetTokenTTL, app.MetricsRecorder,
	)
	app.SessionIssuer = services.NewSessionIssuer(app.Config)
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() {
	app.HandlerSet = initializeHandlers(
		app.Config,
		app.DB,
		app.Verifier,
		app.Provisioner,
		app.ResetService,
		app.SessionIssuer,
		app.Scheduler,
		app.MetricsRecorder,
	)

	app.Router = setupRouter(
		app.Config,
		app.DB,
		app.HandlerSet,
		app.MetricsRecorder,
		app.RateLimitRedisClient,
	)

	app.Server = createHTTPServer(app.Config, app.Router)
}
