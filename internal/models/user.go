package models

import (
	"strings"
	"time"
)

type User struct {
	ID     string `gorm:"primaryKey"`
	TeamID string `gorm:"index;not null"`
	Email  string `gorm:"uniqueIndex;not null"` // stored lowercase, compared case-insensitively
	Name   string `gorm:"not null"`

	// Suspended users keep their rows but cannot sign in or reset passwords.
	Suspended bool `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeEmail lowercases and trims an email address for lookup and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
