package models

import (
	"time"
)

// UserAuthentication binds a user to one authentication provider.
// At most one record exists per (UserID, Provider), and the
// (Provider, ProviderUserID) pair is the provisioning idempotency key.
type UserAuthentication struct {
	ID             string `gorm:"primaryKey"`
	UserID         string `gorm:"not null;uniqueIndex:idx_auth_user_provider,priority:1"`
	Provider       string `gorm:"not null;uniqueIndex:idx_auth_user_provider,priority:2;uniqueIndex:idx_auth_provider_user,priority:1"`
	ProviderUserID string `gorm:"not null;uniqueIndex:idx_auth_provider_user,priority:2"`

	// SecretHash holds the bcrypt hash of the credential secret.
	// Never the plaintext, never a reversible encoding.
	SecretHash string `gorm:"type:text"`

	// Password reset state. Only the hash of the latest issued token is
	// kept; re-issuing overwrites these fields and invalidates the
	// previous token.
	ResetTokenHash      string `gorm:"index"`
	ResetTokenIssuedAt  *time.Time
	ResetTokenExpiresAt *time.Time
	ResetTokenConsumed  bool `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (UserAuthentication) TableName() string {
	return "user_authentications"
}

// HasResetToken reports whether an unconsumed reset token is outstanding.
func (a *UserAuthentication) HasResetToken() bool {
	return a.ResetTokenHash != "" && !a.ResetTokenConsumed
}
