package model

import (
	"time"

	"gorm.io/gorm"
)

// OtpToken is a single-use one-time code, stored hashed. One table serves both
// registration verification and password reset, discriminated by Purpose; the
// two flows never see each other's rows. At most one active token per user and
// purpose is the intended invariant, enforced by deleting prior active tokens
// before issuing a new one.
type OtpToken struct {
	gorm.Model
	UserID    uint       `gorm:"column:user_id;not null;index"`
	Purpose   string     `gorm:"column:purpose;not null;index"`
	CodeHash  string     `gorm:"column:code_hash;not null"`
	ExpiresAt time.Time  `gorm:"column:expires_at;not null"`
	UsedAt    *time.Time `gorm:"column:used_at"`

	User User `gorm:"foreignKey:UserID"`
}

// Active reports whether the code is still redeemable at the given time.
func (t *OtpToken) Active(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}
