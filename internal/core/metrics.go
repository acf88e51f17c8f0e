package core

import "time"

// Login outcome labels recorded by RecordLogin.
const (
	LoginVerified  = "verified"
	LoginBootstrap = "bootstrap"
	LoginSuspended = "suspended"
	LoginFailed    = "failed"
)

// Reset verification result labels recorded by RecordResetTokenVerified.
const (
	ResetVerifyOK        = "ok"
	ResetVerifyInvalid   = "invalid"
	ResetVerifyExpired   = "expired"
	ResetVerifySuspended = "suspended"
)

// Recorder defines the interface for recording application metrics.
// Implementations include Metrics (Prometheus-based) and NoopMetrics (no-op).
type Recorder interface {
	// Authentication
	RecordLogin(outcome string)
	RecordLoginDuration(duration time.Duration)

	// Password reset
	RecordResetTokenIssued()
	RecordResetTokenVerified(result string)

	// Provisioning
	RecordProvision(isNewUser, isNewTeam bool)

	// Rate limiting
	RecordRateLimitDenied(route string)

	// HTTP
	RecordHTTPRequest(method, path string, status int, duration time.Duration)

	// Gauge setters (for periodic updates)
	SetUsersCount(count int)
	SetTeamsCount(count int)
	SetOutstandingResetTokensCount(count int)

	// Database operations
	RecordDatabaseQueryError(operation string)
}

// MetricsStore defines the DB operations needed by the gauge update job.
type MetricsStore interface {
	CountUsers() (int64, error)
	CountTeams() (int64, error)
	CountOutstandingResetTokens() (int64, error)
}
