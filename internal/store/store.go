package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/teamwiki/authd/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB
}

func New(ctx context.Context, driver, dsn string) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// Unique violations must be recognizable so concurrent
		// provisioning can re-read instead of erroring.
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	db = db.WithContext(ctx)

	// SQLite allows a single writer; one pooled connection avoids lock
	// contention between concurrent transactions.
	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	// Auto migrate
	if err := db.AutoMigrate(
		&models.Team{},
		&models.User{},
		&models.UserAuthentication{},
	); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// User operations

func (s *Store) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.db.Where("email = ?", models.NormalizeEmail(email)).First(&user).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

func (s *Store) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

func (s *Store) CreateUser(user *models.User) error {
	user.Email = models.NormalizeEmail(user.Email)
	return s.db.Create(user).Error
}

func (s *Store) UpdateUser(user *models.User) error {
	user.Email = models.NormalizeEmail(user.Email)
	return s.db.Save(user).Error
}

// Team operations

func (s *Store) GetTeamByID(id string) (*models.Team, error) {
	var team models.Team
	if err := s.db.Where("id = ?", id).First(&team).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &team, nil
}

func (s *Store) GetTeamBySubdomain(subdomain string) (*models.Team, error) {
	var team models.Team
	if err := s.db.Where("subdomain = ?", subdomain).First(&team).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &team, nil
}

func (s *Store) CreateTeam(team *models.Team) error {
	return s.db.Create(team).Error
}

// Authentication record operations

// GetAuthentication finds the authentication record for a user and provider.
func (s *Store) GetAuthentication(userID, provider string) (*models.UserAuthentication, error) {
	var auth models.UserAuthentication
	err := s.db.Where("user_id = ? AND provider = ?", userID, provider).
		First(&auth).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &auth, nil
}

// GetAuthenticationByProviderUser finds an authentication record by its
// provider-scoped identity, the provisioning idempotency key.
func (s *Store) GetAuthenticationByProviderUser(
	provider, providerUserID string,
) (*models.UserAuthentication, error) {
	var auth models.UserAuthentication
	err := s.db.Where("provider = ? AND provider_user_id = ?", provider, providerUserID).
		First(&auth).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &auth, nil
}

func (s *Store) CreateAuthentication(auth *models.UserAuthentication) error {
	return s.db.Create(auth).Error
}

func (s *Store) UpdateAuthentication(auth *models.UserAuthentication) error {
	return s.db.Save(auth).Error
}

// SetResetToken stores the hash and lifetime of a freshly issued reset
// token, discarding any previously outstanding token for the record.
func (s *Store) SetResetToken(
	authID, tokenHash string,
	issuedAt, expiresAt time.Time,
) error {
	return s.db.Model(&models.UserAuthentication{}).
		Where("id = ?", authID).
		Updates(map[string]any{
			"reset_token_hash":       tokenHash,
			"reset_token_issued_at":  issuedAt,
			"reset_token_expires_at": expiresAt,
			"reset_token_consumed":   false,
		}).Error
}

// GetAuthenticationByResetTokenHash resolves the record holding the
// given token hash, regardless of expiry or consumed state.
func (s *Store) GetAuthenticationByResetTokenHash(
	tokenHash string,
) (*models.UserAuthentication, error) {
	var auth models.UserAuthentication
	err := s.db.Where("reset_token_hash = ?", tokenHash).First(&auth).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &auth, nil
}

// ConsumeResetToken marks a reset token consumed. The conditional UPDATE
// is the single-use guarantee: under concurrent verification only one
// request observes an affected row, the rest get ErrTokenAlreadyConsumed.
func (s *Store) ConsumeResetToken(authID, tokenHash string) error {
	result := s.db.Model(&models.UserAuthentication{}).
		Where("id = ? AND reset_token_hash = ? AND reset_token_consumed = ?", authID, tokenHash, false).
		Update("reset_token_consumed", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTokenAlreadyConsumed
	}
	return nil
}

// Counts used by the metrics gauge job

func (s *Store) CountUsers() (int64, error) {
	var count int64
	err := s.db.Model(&models.User{}).Count(&count).Error
	return count, err
}

func (s *Store) CountTeams() (int64, error) {
	var count int64
	err := s.db.Model(&models.Team{}).Count(&count).Error
	return count, err
}

// CountOutstandingResetTokens counts unconsumed, unexpired reset tokens.
func (s *Store) CountOutstandingResetTokens() (int64, error) {
	var count int64
	err := s.db.Model(&models.UserAuthentication{}).
		Where("reset_token_hash <> '' AND reset_token_consumed = ? AND reset_token_expires_at > ?",
			false, time.Now()).
		Count(&count).Error
	return count, err
}

// Health checks the database connection
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// DB returns the underlying GORM database connection (for transactions)
func (s *Store) DB() *gorm.DB {
	return s.db
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	return fmt.Errorf("store query failed: %w", err)
}
