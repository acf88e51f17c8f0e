package auth

import (
	"context"
	"fmt"
	"testing"

	"github.com/teamwiki/authd/internal/config"
	"github.com/teamwiki/authd/internal/models"
	"github.com/teamwiki/authd/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String()[:8])
	s, err := store.New(context.Background(), "sqlite", dsn)
	require.NoError(t, err)
	return s
}

func seedUser(t *testing.T, s *store.Store, email, password string, suspended bool) *models.User {
	t.Helper()

	team := &models.Team{
		ID:        uuid.New().String(),
		Name:      "Test Wiki",
		Subdomain: "sub-" + uuid.New().String()[:8],
	}
	require.NoError(t, s.CreateTeam(team))

	user := &models.User{
		ID:        uuid.New().String(),
		TeamID:    team.ID,
		Email:     email,
		Name:      "Test User",
		Suspended: suspended,
	}
	require.NoError(t, s.CreateUser(user))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, s.CreateAuthentication(&models.UserAuthentication{
		ID:             uuid.New().String(),
		UserID:         user.ID,
		Provider:       config.ProviderPassword,
		ProviderUserID: models.NormalizeEmail(email),
		SecretHash:     string(hash),
	}))

	return user
}

func TestVerifyCorrectPassword(t *testing.T) {
	s := newTestStore(t)
	user := seedUser(t, s, "alice@example.com", "correct horse", false)

	v := NewVerifier(s, config.LocalLoginConfig{})
	result, err := v.Verify(context.Background(), "alice@example.com", "correct horse")
	require.NoError(t, err)

	assert.Equal(t, OutcomeVerified, result.Outcome)
	require.NotNil(t, result.User)
	assert.Equal(t, user.ID, result.User.ID)
}

func TestVerifyNormalizesEmail(t *testing.T) {
	s := newTestStore(t)
	seedUser(t, s, "Alice@Example.COM", "correct horse", false)

	v := NewVerifier(s, config.LocalLoginConfig{})
	result, err := v.Verify(context.Background(), "  ALICE@example.com ", "correct horse")
	require.NoError(t, err)

	assert.Equal(t, OutcomeVerified, result.Outcome)
}

func TestVerifyWrongPassword(t *testing.T) {
	s := newTestStore(t)
	seedUser(t, s, "alice@example.com", "correct horse", false)

	v := NewVerifier(s, config.LocalLoginConfig{})
	result, err := v.Verify(context.Background(), "alice@example.com", "wrong")
	require.NoError(t, err)

	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.Nil(t, result.User)
}

func TestVerifyUnknownUser(t *testing.T) {
	s := newTestStore(t)

	v := NewVerifier(s, config.LocalLoginConfig{})
	result, err := v.Verify(context.Background(), "nobody@example.com", "anything")
	require.NoError(t, err)

	assert.Equal(t, OutcomeFailed, result.Outcome)
}

// A suspended user with a correct password is reported distinctly from
// a non-existent user with any password.
func TestVerifySuspendedDistinctFromUnknown(t *testing.T) {
	s := newTestStore(t)
	user := seedUser(t, s, "suspended@example.com", "correct horse", true)

	v := NewVerifier(s, config.LocalLoginConfig{})

	suspended, err := v.Verify(context.Background(), "suspended@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuspended, suspended.Outcome)
	require.NotNil(t, suspended.User)
	assert.Equal(t, user.ID, suspended.User.ID)

	unknown, err := v.Verify(context.Background(), "ghost@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, unknown.Outcome)

	assert.NotEqual(t, suspended.Outcome, unknown.Outcome)
}

func TestVerifyUserWithoutPasswordRecord(t *testing.T) {
	s := newTestStore(t)

	team := &models.Team{
		ID:        uuid.New().String(),
		Name:      "Test Wiki",
		Subdomain: "sub-" + uuid.New().String()[:8],
	}
	require.NoError(t, s.CreateTeam(team))
	require.NoError(t, s.CreateUser(&models.User{
		ID:     uuid.New().String(),
		TeamID: team.ID,
		Email:  "oidc-only@example.com",
		Name:   "No Password",
	}))

	v := NewVerifier(s, config.LocalLoginConfig{})
	result, err := v.Verify(context.Background(), "oidc-only@example.com", "anything")
	require.NoError(t, err)

	// Reported identically to a wrong password
	assert.Equal(t, OutcomeFailed, result.Outcome)
}

func TestVerifyBootstrapMatch(t *testing.T) {
	s := newTestStore(t)

	local := config.LocalLoginConfig{
		Enabled:       true,
		AdminEmail:    "Admin@Example.com",
		AdminPassword: "bootstrap-secret",
	}
	v := NewVerifier(s, local)

	result, err := v.Verify(context.Background(), "admin@example.com", "bootstrap-secret")
	require.NoError(t, err)
	assert.Equal(t, OutcomeBootstrap, result.Outcome)

	mismatch, err := v.Verify(context.Background(), "admin@example.com", "wrong")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, mismatch.Outcome)

	wrongEmail, err := v.Verify(context.Background(), "other@example.com", "bootstrap-secret")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, wrongEmail.Outcome)
}

func TestVerifyBootstrapDisabledWithoutCredentials(t *testing.T) {
	s := newTestStore(t)

	v := NewVerifier(s, config.LocalLoginConfig{Enabled: true})
	result, err := v.Verify(context.Background(), "admin@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, result.Outcome)
}

// Once a stored user exists for the email, the bootstrap identity no
// longer matches; stored credentials win.
func TestVerifyStoredUserShadowsBootstrap(t *testing.T) {
	s := newTestStore(t)
	seedUser(t, s, "admin@example.com", "stored-password", false)

	local := config.LocalLoginConfig{
		Enabled:       true,
		AdminEmail:    "admin@example.com",
		AdminPassword: "bootstrap-secret",
	}
	v := NewVerifier(s, local)

	result, err := v.Verify(context.Background(), "admin@example.com", "bootstrap-secret")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, result.Outcome)

	stored, err := v.Verify(context.Background(), "admin@example.com", "stored-password")
	require.NoError(t, err)
	assert.Equal(t, OutcomeVerified, stored.Outcome)
}
