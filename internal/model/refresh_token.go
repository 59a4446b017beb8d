package model

import (
	"time"

	"gorm.io/gorm"
)

// RefreshToken is one row in the refresh-token ledger. Once revoked a row is
// never reactivated; rotation always inserts a fresh row and links it through
// ReplacedByToken so token families stay reconstructable.
type RefreshToken struct {
	gorm.Model
	UserID          uint       `gorm:"column:user_id;not null;index"`
	Token           string     `gorm:"column:token;unique;not null"`
	ExpiresAt       time.Time  `gorm:"column:expires_at;not null"`
	IsRevoked       bool       `gorm:"column:is_revoked;default:false;not null"`
	RevokedAt       *time.Time `gorm:"column:revoked_at"`
	RevokedReason   string     `gorm:"column:revoked_reason"`
	ReplacedByToken string     `gorm:"column:replaced_by_token"`

	User User `gorm:"foreignKey:UserID"`
}

// Active reports whether the token can still be redeemed at the given time.
func (t *RefreshToken) Active(now time.Time) bool {
	return !t.IsRevoked && now.Before(t.ExpiresAt)
}

// Expired reports whether the token is past its expiry timestamp.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
