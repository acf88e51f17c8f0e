package metrics

import (
	"time"

	"github.com/teamwiki/authd/internal/core"
)

// NoopMetrics is a no-operation implementation of core.Recorder.
// All methods are empty and do nothing, providing zero overhead when metrics are disabled.
type NoopMetrics struct{}

// Ensure NoopMetrics implements Recorder interface at compile time
var _ core.Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() core.Recorder {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordLogin(outcome string)                  {}
func (n *NoopMetrics) RecordLoginDuration(duration time.Duration)  {}
func (n *NoopMetrics) RecordResetTokenIssued()                     {}
func (n *NoopMetrics) RecordResetTokenVerified(result string)      {}
func (n *NoopMetrics) RecordProvision(isNewUser, isNewTeam bool)   {}
func (n *NoopMetrics) RecordRateLimitDenied(route string)          {}
func (n *NoopMetrics) SetUsersCount(count int)                     {}
func (n *NoopMetrics) SetTeamsCount(count int)                     {}
func (n *NoopMetrics) SetOutstandingResetTokensCount(count int)    {}
func (n *NoopMetrics) RecordDatabaseQueryError(operation string)   {}

func (n *NoopMetrics) RecordHTTPRequest(
	method, path string,
	status int,
	duration time.Duration,
) {
}
