package models

import (
	"time"
)

const StatusActive = "active"

type User struct {
	ID               string     `gorm:"primaryKey;size:36"         json:"id"`
	Email            string     `gorm:"uniqueIndex;not null"       json:"email"`
	Username         string     `gorm:"not null"                   json:"username"`
	PasswordHash     string     `gorm:"not null"                   json:"-"`
	Status           string     `gorm:"not null;default:active"    json:"status"`
	CreatedAt        time.Time  `gorm:"not null"                   json:"createdAt"`
	ResetTokenHash   *string    `gorm:"index;size:64"              json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`
}

type RefreshToken struct {
	TokenHash string    `gorm:"primaryKey;size:64"   json:"-"`
	UserID    string    `gorm:"index;not null"       json:"userId"`
	ExpiresAt time.Time `gorm:"not null"             json:"expiresAt"`
	CreatedAt time.Time `gorm:"not null"             json:"createdAt"`
}

// Expired reports whether the token is past its expiry at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
