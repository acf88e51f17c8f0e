package store

import "errors"

var (
	// ErrRecordNotFound wraps GORM's not found error for consistency
	ErrRecordNotFound = errors.New("record not found")

	// ErrTokenAlreadyConsumed is returned by ConsumeResetToken when the
	// token was already consumed by a concurrent request (0 rows updated).
	ErrTokenAlreadyConsumed = errors.New("reset token already consumed")
)
