package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/teamwiki/authd/internal/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDescriptors() (TeamDescriptor, UserDescriptor, AuthenticationDescriptor) {
	team := TeamDescriptor{
		Name:      "Test Wiki",
		Domain:    "wiki.example.com",
		Subdomain: "wiki",
	}
	user := UserDescriptor{
		Email: "admin@example.com",
		Name:  "admin",
	}
	auth := AuthenticationDescriptor{
		Provider:       config.ProviderPassword,
		ProviderUserID: "admin@example.com",
		SecretHash:     "$2a$10$fakehashfakehashfakehash",
	}
	return team, user, auth
}

func newProvisionStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String()[:8])
	s, err := New(context.Background(), "sqlite", dsn)
	require.NoError(t, err)
	return s
}

func TestProvisionAccountCreatesAllRows(t *testing.T) {
	s := newProvisionStore(t)
	td, ud, ad := testDescriptors()

	result, err := s.ProvisionAccount(td, ud, ad)
	require.NoError(t, err)

	assert.True(t, result.IsNewTeam)
	assert.True(t, result.IsNewUser)
	assert.Equal(t, "wiki", result.Team.Subdomain)
	assert.Equal(t, "admin@example.com", result.User.Email)
	assert.Equal(t, result.User.ID, result.Auth.UserID)
	assert.Equal(t, ad.SecretHash, result.Auth.SecretHash)
}

func TestProvisionAccountIsIdempotent(t *testing.T) {
	s := newProvisionStore(t)
	td, ud, ad := testDescriptors()

	first, err := s.ProvisionAccount(td, ud, ad)
	require.NoError(t, err)

	// Second call with a different secret resolves the same rows and
	// keeps the originally stored secret.
	ad2 := ad
	ad2.SecretHash = "$2a$10$differenthash"
	second, err := s.ProvisionAccount(td, ud, ad2)
	require.NoError(t, err)

	assert.False(t, second.IsNewTeam)
	assert.False(t, second.IsNewUser)
	assert.Equal(t, first.Team.ID, second.Team.ID)
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, first.Auth.ID, second.Auth.ID)
	assert.Equal(t, ad.SecretHash, second.Auth.SecretHash)

	users, err := s.CountUsers()
	require.NoError(t, err)
	assert.Equal(t, int64(1), users)

	teams, err := s.CountTeams()
	require.NoError(t, err)
	assert.Equal(t, int64(1), teams)
}

func TestProvisionAccountExistingTeamNewUser(t *testing.T) {
	s := newProvisionStore(t)
	td, ud, ad := testDescriptors()

	_, err := s.ProvisionAccount(td, ud, ad)
	require.NoError(t, err)

	ud2 := UserDescriptor{Email: "second@example.com", Name: "second"}
	ad2 := AuthenticationDescriptor{
		Provider:       config.ProviderPassword,
		ProviderUserID: "second@example.com",
		SecretHash:     "$2a$10$otherhash",
	}
	result, err := s.ProvisionAccount(td, ud2, ad2)
	require.NoError(t, err)

	assert.False(t, result.IsNewTeam)
	assert.True(t, result.IsNewUser)
}

func TestProvisionAccountConcurrent(t *testing.T) {
	s := newProvisionStore(t)
	td, ud, ad := testDescriptors()

	const workers = 4
	results := make([]*ProvisionResult, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.ProvisionAccount(td, ud, ad)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
	}

	// All callers resolved the same rows
	for i := 1; i < workers; i++ {
		assert.Equal(t, results[0].Team.ID, results[i].Team.ID)
		assert.Equal(t, results[0].User.ID, results[i].User.ID)
		assert.Equal(t, results[0].Auth.ID, results[i].Auth.ID)
	}

	users, err := s.CountUsers()
	require.NoError(t, err)
	assert.Equal(t, int64(1), users)

	teams, err := s.CountTeams()
	require.NoError(t, err)
	assert.Equal(t, int64(1), teams)
}
