package models

import (
	"time"
)

// Team is the tenant boundary. Every user belongs to exactly one team.
type Team struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Domain    string `gorm:"index"`
	Subdomain string `gorm:"uniqueIndex;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
