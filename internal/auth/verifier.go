package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/teamwiki/authd/internal/config"
	"github.com/teamwiki/authd/internal/models"
	"github.com/teamwiki/authd/internal/store"
	"github.com/teamwiki/authd/internal/util"

	"golang.org/x/crypto/bcrypt"
)

// Outcome classifies the result of a credential check.
type Outcome string

const (
	// OutcomeVerified means the stored credential matched.
	OutcomeVerified Outcome = "verified"
	// OutcomeBootstrap means no user exists and the supplied pair
	// matched the configured admin identity; the caller must provision.
	OutcomeBootstrap Outcome = "bootstrap"
	// OutcomeSuspended means the account exists but is suspended.
	// Reported before any secret comparison.
	OutcomeSuspended Outcome = "suspended"
	// OutcomeFailed covers every credential mismatch. It never reveals
	// whether the user, the record, or the password was the problem.
	OutcomeFailed Outcome = "failed"
)

// Result holds the outcome of a verification attempt. User is set only
// for OutcomeVerified and OutcomeSuspended.
type Result struct {
	Outcome Outcome
	User    *models.User
}

// Verifier checks an email/password pair against stored credentials or
// the configured bootstrap identity. It never mutates state.
type Verifier struct {
	store *store.Store
	local config.LocalLoginConfig
}

func NewVerifier(s *store.Store, local config.LocalLoginConfig) *Verifier {
	return &Verifier{store: s, local: local}
}

// Verify resolves the user by normalized email and compares credentials.
// Errors are returned only for storage failures; every credential
// decision is expressed as an Outcome.
func (v *Verifier) Verify(ctx context.Context, email, password string) (*Result, error) {
	email = models.NormalizeEmail(email)

	user, err := v.store.GetUserByEmail(email)
	if errors.Is(err, store.ErrRecordNotFound) {
		return v.verifyBootstrap(email, password), nil
	}
	if err != nil {
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}

	record, err := v.store.GetAuthentication(user.ID, config.ProviderPassword)
	if errors.Is(err, store.ErrRecordNotFound) {
		// The user exists but cannot sign in with a password. Reported
		// identically to a wrong password.
		return &Result{Outcome: OutcomeFailed}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("authentication lookup failed: %w", err)
	}

	// Suspension is checked before the secret comparison: no point
	// burning bcrypt work on an account that cannot sign in.
	if user.Suspended {
		return &Result{Outcome: OutcomeSuspended, User: user}, nil
	}

	if bcrypt.CompareHashAndPassword([]byte(record.SecretHash), []byte(password)) != nil {
		return &Result{Outcome: OutcomeFailed}, nil
	}

	return &Result{Outcome: OutcomeVerified, User: user}, nil
}

// verifyBootstrap compares the supplied pair against the configured
// admin identity in constant time.
func (v *Verifier) verifyBootstrap(email, password string) *Result {
	if !v.local.BootstrapEnabled() {
		return &Result{Outcome: OutcomeFailed}
	}

	emailMatch := util.ConstantTimeEquals(models.NormalizeEmail(v.local.AdminEmail), email)
	passwordMatch := util.ConstantTimeEquals(v.local.AdminPassword, password)
	if !emailMatch || !passwordMatch {
		return &Result{Outcome: OutcomeFailed}
	}

	return &Result{Outcome: OutcomeBootstrap}
}
