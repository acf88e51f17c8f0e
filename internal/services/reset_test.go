package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/teamwiki/authd/internal/config"
	"github.com/teamwiki/authd/internal/metrics"
	"github.com/teamwiki/authd/internal/models"
	"github.com/teamwiki/authd/internal/store"
	"github.com/teamwiki/authd/internal/util"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String()[:8])
	s, err := store.New(context.Background(), "sqlite", dsn)
	require.NoError(t, err)
	return s
}

func seedUser(t *testing.T, s *store.Store, email string, suspended bool) *models.User {
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

	require.NoError(t, s.CreateAuthentication(&models.UserAuthentication{
		ID:             uuid.New().String(),
		UserID:         user.ID,
		Provider:       config.ProviderPassword,
		ProviderUserID: models.NormalizeEmail(email),
		SecretHash:     "$2a$10$fakehashfakehashfakehash",
	}))

	return user
}

func newResetService(s *store.Store, ttl time.Duration) *ResetService {
	return NewResetService(s, ttl, metrics.NewNoopMetrics())
}

func TestIssueReturnsRawTokenAndStoresHash(t *testing.T) {
	s := newTestStore(t)
	user := seedUser(t, s, "alice@example.com", false)
	svc := newResetService(s, 30*time.Minute)

	token, err := svc.Issue(context.Background(), user)
	require.NoError(t, err)
	assert.Len(t, token, 64)

	record, err := s.GetAuthentication(user.ID, config.ProviderPassword)
	require.NoError(t, err)
	assert.Equal(t, util.SHA256Hex(token), record.ResetTokenHash)
	assert.NotEqual(t, token, record.ResetTokenHash)
	assert.False(t, record.ResetTokenConsumed)
	require.NotNil(t, record.ResetTokenExpiresAt)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), *record.ResetTokenExpiresAt, time.Minute)
}

func TestIssueNotEligibleWithoutPasswordRecord(t *testing.T) {
	s := newTestStore(t)

	team := &models.Team{
		ID:        uuid.New().String(),
		Name:      "Test Wiki",
		Subdomain: "sub-" + uuid.New().String()[:8],
	}
	require.NoError(t, s.CreateTeam(team))
	user := &models.User{
		ID:     uuid.New().String(),
		TeamID: team.ID,
		Email:  "oidc-only@example.com",
		Name:   "No Password",
	}
	require.NoError(t, s.CreateUser(user))

	svc := newResetService(s, 30*time.Minute)
	_, err := svc.Issue(context.Background(), user)
	assert.ErrorIs(t, err, ErrResetNotEligible)
}

func TestVerifyConsumesTokenExactlyOnce(t *testing.T) {
	s := newTestStore(t)
	user := seedUser(t, s, "alice@example.com", false)
	svc := newResetService(s, 30*time.Minute)

	token, err := svc.Issue(context.Background(), user)
	require.NoError(t, err)

	resolved, err := svc.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)

	// Second use of the same raw token fails as consumed
	_, err = svc.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyUnknownToken(t *testing.T) {
	s := newTestStore(t)
	seedUser(t, s, "alice@example.com", false)
	svc := newResetService(s, 30*time.Minute)

	_, err := svc.Verify(context.Background(), "never-issued")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyExpiredTokenEvenOnFirstUse(t *testing.T) {
	s := newTestStore(t)
	user := seedUser(t, s, "alice@example.com", false)

	// Negative TTL issues an already-expired token
	svc := newResetService(s, -time.Minute)
	token, err := svc.Issue(context.Background(), user)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestReissueInvalidatesPriorToken(t *testing.T) {
	s := newTestStore(t)
	user := seedUser(t, s, "alice@example.com", false)
	svc := newResetService(s, 30*time.Minute)

	first, err := svc.Issue(context.Background(), user)
	require.NoError(t, err)
	second, err := svc.Issue(context.Background(), user)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	// Only the latest issued token verifies
	_, err = svc.Verify(context.Background(), first)
	assert.ErrorIs(t, err, ErrInvalidToken)

	resolved, err := svc.Verify(context.Background(), second)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
}

func TestVerifySuspendedUserKeepsTokenIssued(t *testing.T) {
	s := newTestStore(t)
	user := seedUser(t, s, "suspended@example.com", true)
	svc := newResetService(s, 30*time.Minute)

	token, err := svc.Issue(context.Background(), user)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrUserSuspended)

	// The token was not burned; it verifies once the suspension lifts
	user.Suspended = false
	require.NoError(t, s.UpdateUser(user))

	resolved, err := svc.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
}
