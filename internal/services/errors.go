package services

import "errors"

var (
	// ErrInvalidToken is returned when a reset token does not match any
	// outstanding token.
	ErrInvalidToken = errors.New("invalid reset token")

	// ErrExpiredToken is returned when a reset token matched but is past
	// its TTL or was already consumed.
	ErrExpiredToken = errors.New("expired reset token")

	// ErrUserSuspended is returned when the resolved account is suspended.
	ErrUserSuspended = errors.New("user is suspended")

	// ErrResetNotEligible is returned by Issue when the user has no
	// password authentication record to attach a token to.
	ErrResetNotEligible = errors.New("user has no password authentication")
)
