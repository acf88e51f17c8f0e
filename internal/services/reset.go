package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/teamwiki/authd/internal/config"
	"github.com/teamwiki/authd/internal/core"
	"github.com/teamwiki/authd/internal/models"
	"github.com/teamwiki/authd/internal/store"
	"github.com/teamwiki/authd/internal/util"
)

// resetTokenLength is the hex length of a raw reset token (32 bytes of
// entropy).
const resetTokenLength = 64

// ResetService issues and verifies single-use, expiring password reset
// tokens. Only the SHA-256 hash of a token is ever persisted; the raw
// value exists solely in the outbound notification.
type ResetService struct {
	store   *store.Store
	ttl     time.Duration
	metrics core.Recorder
}

func NewResetService(s *store.Store, ttl time.Duration, m core.Recorder) *ResetService {
	return &ResetService{store: s, ttl: ttl, metrics: m}
}

// Issue generates a fresh reset token for the user's password
// authentication record and returns the raw token. Any previously
// outstanding token is overwritten and thereby invalidated; only the
// latest issued token can verify.
func (r *ResetService) Issue(ctx context.Context, user *models.User) (string, error) {
	record, err := r.store.GetAuthentication(user.ID, config.ProviderPassword)
	if errors.Is(err, store.ErrRecordNotFound) {
		return "", ErrResetNotEligible
	}
	if err != nil {
		return "", fmt.Errorf("authentication lookup failed: %w", err)
	}

	token, err := util.CryptoRandomString(resetTokenLength)
	if err != nil {
		return "", fmt.Errorf("token generation failed: %w", err)
	}

	issuedAt := time.Now()
	expiresAt := issuedAt.Add(r.ttl)
	if err := r.store.SetResetToken(record.ID, util.SHA256Hex(token), issuedAt, expiresAt); err != nil {
		return "", fmt.Errorf("storing reset token failed: %w", err)
	}

	r.metrics.RecordResetTokenIssued()
	return token, nil
}

// Verify hashes the supplied token, resolves the owning record, and
// consumes the token. A token verifies successfully at most once and
// only before its expiry.
func (r *ResetService) Verify(ctx context.Context, token string) (*models.User, error) {
	hash := util.SHA256Hex(token)

	record, err := r.store.GetAuthenticationByResetTokenHash(hash)
	if errors.Is(err, store.ErrRecordNotFound) {
		r.metrics.RecordResetTokenVerified(core.ResetVerifyInvalid)
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("token lookup failed: %w", err)
	}

	// The indexed lookup already matched on the hash; the explicit
	// constant-time comparison keeps the decision independent of how
	// the row was found.
	if !util.ConstantTimeEquals(record.ResetTokenHash, hash) {
		r.metrics.RecordResetTokenVerified(core.ResetVerifyInvalid)
		return nil, ErrInvalidToken
	}

	if record.ResetTokenConsumed ||
		record.ResetTokenExpiresAt == nil ||
		time.Now().After(*record.ResetTokenExpiresAt) {
		r.metrics.RecordResetTokenVerified(core.ResetVerifyExpired)
		return nil, ErrExpiredToken
	}

	user, err := r.store.GetUserByID(record.UserID)
	if err != nil {
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}

	// Suspension is checked before the token is consumed: a suspended
	// account never transitions the token out of Issued.
	if user.Suspended {
		r.metrics.RecordResetTokenVerified(core.ResetVerifySuspended)
		return nil, ErrUserSuspended
	}

	// The conditional update is the single-use guarantee under
	// concurrent verification.
	if err := r.store.ConsumeResetToken(record.ID, hash); err != nil {
		if errors.Is(err, store.ErrTokenAlreadyConsumed) {
			r.metrics.RecordResetTokenVerified(core.ResetVerifyExpired)
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("consuming reset token failed: %w", err)
	}

	r.metrics.RecordResetTokenVerified(core.ResetVerifyOK)
	return user, nil
}
