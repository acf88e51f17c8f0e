package store

import (
	"errors"
	"fmt"

	"github.com/teamwiki/authd/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TeamDescriptor identifies or describes the tenant to resolve.
type TeamDescriptor struct {
	Name      string
	Domain    string
	Subdomain string
}

// UserDescriptor identifies or describes the user to resolve.
type UserDescriptor struct {
	Email string
	Name  string
}

// AuthenticationDescriptor carries the provider identity and the
// credential secret hash to attach on first creation.
type AuthenticationDescriptor struct {
	Provider       string
	ProviderUserID string
	SecretHash     string
}

// ProvisionResult reports the resolved rows. The IsNew flags exist for
// caller-side UX only and must never gate authorization.
type ProvisionResult struct {
	Team      *models.Team
	User      *models.User
	Auth      *models.UserAuthentication
	IsNewTeam bool
	IsNewUser bool
}

// provisionAttempts bounds constraint-conflict retries. One retry is
// enough: after a unique violation the winning writer's rows exist and
// the re-read resolves them.
const provisionAttempts = 2

// ProvisionAccount idempotently resolves or creates the (Team, User,
// UserAuthentication) rows for a provider identity. Creation runs in a
// transaction; a concurrent writer losing the race on any unique index
// retries once and resolves the rows the winner created.
func (s *Store) ProvisionAccount(
	team TeamDescriptor,
	user UserDescriptor,
	auth AuthenticationDescriptor,
) (*ProvisionResult, error) {
	var lastErr error
	for attempt := 0; attempt < provisionAttempts; attempt++ {
		result, err := s.provisionOnce(team, user, auth)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("provisioning conflict not resolved: %w", lastErr)
}

func (s *Store) provisionOnce(
	td TeamDescriptor,
	ud UserDescriptor,
	ad AuthenticationDescriptor,
) (*ProvisionResult, error) {
	result := &ProvisionResult{}

	// Fast path: the provider identity already exists.
	if auth, err := s.GetAuthenticationByProviderUser(ad.Provider, ad.ProviderUserID); err == nil {
		return s.resolveExisting(auth)
	} else if !errors.Is(err, ErrRecordNotFound) {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		team, isNewTeam, err := resolveTeam(tx, td)
		if err != nil {
			return err
		}

		user, isNewUser, err := resolveUser(tx, team, ud)
		if err != nil {
			return err
		}

		auth, err := resolveAuthentication(tx, user, ad)
		if err != nil {
			return err
		}

		result.Team = team
		result.User = user
		result.Auth = auth
		result.IsNewTeam = isNewTeam
		result.IsNewUser = isNewUser
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// resolveExisting loads the user and team rows for an authentication
// record that was found outside the creation path.
func (s *Store) resolveExisting(auth *models.UserAuthentication) (*ProvisionResult, error) {
	user, err := s.GetUserByID(auth.UserID)
	if err != nil {
		return nil, err
	}
	team, err := s.GetTeamByID(user.TeamID)
	if err != nil {
		return nil, err
	}
	return &ProvisionResult{
		Team: team,
		User: user,
		Auth: auth,
	}, nil
}

func resolveTeam(tx *gorm.DB, td TeamDescriptor) (*models.Team, bool, error) {
	var team models.Team
	err := tx.Where("subdomain = ?", td.Subdomain).First(&team).Error
	if err == nil {
		return &team, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	team = models.Team{
		ID:        uuid.New().String(),
		Name:      td.Name,
		Domain:    td.Domain,
		Subdomain: td.Subdomain,
	}
	if err := tx.Create(&team).Error; err != nil {
		return nil, false, err
	}
	return &team, true, nil
}

func resolveUser(tx *gorm.DB, team *models.Team, ud UserDescriptor) (*models.User, bool, error) {
	email := models.NormalizeEmail(ud.Email)

	var user models.User
	err := tx.Where("email = ?", email).First(&user).Error
	if err == nil {
		return &user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	user = models.User{
		ID:     uuid.New().String(),
		TeamID: team.ID,
		Email:  email,
		Name:   ud.Name,
	}
	if err := tx.Create(&user).Error; err != nil {
		return nil, false, err
	}
	return &user, true, nil
}

// resolveAuthentication creates the provider binding. The secret hash is
// attached only on creation; an existing record keeps its stored secret.
func resolveAuthentication(
	tx *gorm.DB,
	user *models.User,
	ad AuthenticationDescriptor,
) (*models.UserAuthentication, error) {
	var auth models.UserAuthentication
	err := tx.Where("provider = ? AND provider_user_id = ?", ad.Provider, ad.ProviderUserID).
		First(&auth).Error
	if err == nil {
		return &auth, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	auth = models.UserAuthentication{
		ID:             uuid.New().String(),
		UserID:         user.ID,
		Provider:       ad.Provider,
		ProviderUserID: ad.ProviderUserID,
		SecretHash:     ad.SecretHash,
	}
	if err := tx.Create(&auth).Error; err != nil {
		return nil, err
	}
	return &auth, nil
}
