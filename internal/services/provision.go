package services

import (
	"context"
	"fmt"

	"github.com/teamwiki/authd/internal/core"
	"github.com/teamwiki/authd/internal/store"
)

// Provisioner idempotently creates or resolves the (Team, User,
// UserAuthentication) rows for a provider identity. It serves both the
// bootstrap login path and just-in-time provisioning.
type Provisioner struct {
	store   *store.Store
	metrics core.Recorder
}

func NewProvisioner(s *store.Store, m core.Recorder) *Provisioner {
	return &Provisioner{store: s, metrics: m}
}

// Provision resolves or creates the account rows. Concurrent first-time
// requests for the same provider identity yield exactly one set of rows;
// the store retries constraint losers internally, so a conflict is never
// surfaced to the caller.
func (p *Provisioner) Provision(
	ctx context.Context,
	team store.TeamDescriptor,
	user store.UserDescriptor,
	auth store.AuthenticationDescriptor,
) (*store.ProvisionResult, error) {
	result, err := p.store.ProvisionAccount(team, user, auth)
	if err != nil {
		p.metrics.RecordDatabaseQueryError("provision_account")
		return nil, fmt.Errorf("account provisioning failed: %w", err)
	}

	p.metrics.RecordProvision(result.IsNewUser, result.IsNewTeam)
	return result, nil
}
