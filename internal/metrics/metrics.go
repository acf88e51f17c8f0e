package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/teamwiki/authd/internal/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ensure Metrics implements Recorder interface at compile time
var _ core.Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Authentication
	LoginsTotal   *prometheus.CounterVec
	LoginDuration prometheus.Histogram

	// Password reset
	ResetTokensIssuedTotal   prometheus.Counter
	ResetTokenVerifyTotal    *prometheus.CounterVec
	ResetTokensOutstanding   prometheus.Gauge

	// Provisioning
	ProvisionsTotal *prometheus.CounterVec

	// Rate limiting
	RateLimitDeniedTotal *prometheus.CounterVec

	// HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Gauges updated periodically
	UsersTotal prometheus.Gauge
	TeamsTotal prometheus.Gauge

	// Database
	DatabaseQueryErrorsTotal *prometheus.CounterVec
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag.
// If enabled=true, returns Prometheus-based Metrics.
// If enabled=false, returns NoopMetrics (zero overhead).
// Uses sync.Once to ensure Prometheus metrics are only registered once.
func Init(enabled bool) core.Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	return &Metrics{
		LoginsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_logins_total",
				Help: "Total number of login attempts",
			},
			[]string{"outcome"}, // verified, bootstrap, suspended, failed
		),
		LoginDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "auth_login_duration_seconds",
				Help:    "Time taken to verify credentials and establish a session",
				Buckets: prometheus.DefBuckets,
			},
		),

		ResetTokensIssuedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "auth_reset_tokens_issued_total",
				Help: "Total number of password reset tokens issued",
			},
		),
		ResetTokenVerifyTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_reset_token_verify_total",
				Help: "Total number of password reset token verifications",
			},
			[]string{"result"}, // ok, invalid, expired, suspended
		),
		ResetTokensOutstanding: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "auth_reset_tokens_outstanding",
				Help: "Current number of unconsumed, unexpired reset tokens",
			},
		),

		ProvisionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_provisions_total",
				Help: "Total number of account provisioning calls",
			},
			[]string{"new_user", "new_team"},
		),

		RateLimitDeniedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_rate_limit_denied_total",
				Help: "Total number of requests denied by rate limiting",
			},
			[]string{"route"},
		),

		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of in-flight HTTP requests",
			},
		),

		UsersTotal: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "auth_users_total",
				Help: "Current number of users",
			},
		),
		TeamsTotal: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "auth_teams_total",
				Help: "Current number of teams",
			},
		),

		DatabaseQueryErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_query_errors_total",
				Help: "Total number of database query errors",
			},
			[]string{"operation"},
		),
	}
}

// RecordLogin records a login attempt outcome
func (m *Metrics) RecordLogin(outcome string) {
	m.LoginsTotal.WithLabelValues(outcome).Inc()
}

// RecordLoginDuration records how long a login took end to end
func (m *Metrics) RecordLoginDuration(duration time.Duration) {
	m.LoginDuration.Observe(duration.Seconds())
}

// RecordResetTokenIssued records a reset token issuance
func (m *Metrics) RecordResetTokenIssued() {
	m.ResetTokensIssuedTotal.Inc()
}

// RecordResetTokenVerified records a reset token verification result
func (m *Metrics) RecordResetTokenVerified(result string) {
	m.ResetTokenVerifyTotal.WithLabelValues(result).Inc()
}

// RecordProvision records an account provisioning call
func (m *Metrics) RecordProvision(isNewUser, isNewTeam bool) {
	m.ProvisionsTotal.WithLabelValues(
		boolLabel(isNewUser), boolLabel(isNewTeam),
	).Inc()
}

// RecordRateLimitDenied records a rate limit denial
func (m *Metrics) RecordRateLimitDenied(route string) {
	m.RateLimitDeniedTotal.WithLabelValues(route).Inc()
}

// SetUsersCount sets the user count gauge
func (m *Metrics) SetUsersCount(count int) {
	m.UsersTotal.Set(float64(count))
}

// SetTeamsCount sets the team count gauge
func (m *Metrics) SetTeamsCount(count int) {
	m.TeamsTotal.Set(float64(count))
}

// SetOutstandingResetTokensCount sets the outstanding reset token gauge
func (m *Metrics) SetOutstandingResetTokensCount(count int) {
	m.ResetTokensOutstanding.Set(float64(count))
}

// RecordDatabaseQueryError records a database query error
func (m *Metrics) RecordDatabaseQueryError(operation string) {
	m.DatabaseQueryErrorsTotal.WithLabelValues(operation).Inc()
}

// RecordHTTPRequest records a completed HTTP request
func (m *Metrics) RecordHTTPRequest(
	method, path string,
	status int,
	duration time.Duration,
) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
