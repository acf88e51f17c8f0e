package bootstrap

import (
	"github.com/teamwiki/authd/internal/auth"
	"github.com/teamwiki/authd/internal/config"
	"github.com/teamwiki/authd/internal/core"
	"github.com/teamwiki/authd/internal/handlers"
	"github.com/teamwiki/authd/internal/services"
	"github.com/teamwiki/authd/internal/store"
	"github.com/teamwiki/authd/internal/tasks"
)

// handlerSet holds all HTTP handlers
type handlerSet struct {
	password *handlers.PasswordHandler
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(
	cfg *config.Config,
	db *store.Store,
	verifier *auth.Verifier,
	provisioner *services.Provisioner,
	resetService *services.ResetService,
	issuer *services.SessionIssuer,
	scheduler tasks.Scheduler,
	m core.Recorder,
) handlerSet {
	return handlerSet{
		password: handlers.NewPasswordHandler(
			verifier,
			provisioner,
			resetService,
			issuer,
			scheduler,
			db,
			cfg,
			m,
		),
	}
}
