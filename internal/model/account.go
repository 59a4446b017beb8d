package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Account is a login identity for a User: either a credential account
// (AuthProvider empty, PasswordHash set) or a federated one (AuthProvider
// "google", PasswordHash empty). Username, once assigned, is immutable.
type Account struct {
	gorm.Model
	UserID         uint   `gorm:"column:user_id;not null;index"`
	Username       string `gorm:"column:username;unique;not null"`
	PasswordHash   string `gorm:"column:password_hash"`
	AuthProvider   string `gorm:"column:auth_provider;index:idx_accounts_provider_subject,unique,where:auth_provider <> ''"`
	ProviderUserID string `gorm:"column:provider_user_id;index:idx_accounts_provider_subject,unique,where:auth_provider <> ''"`

	// Cached provider token material, informational only; nothing validates
	// against TokenExpiresAt after it is stored.
	AccessToken    string         `gorm:"column:access_token"`
	TokenExpiresAt *time.Time     `gorm:"column:token_expires_at"`
	ProviderClaims datatypes.JSON `gorm:"column:provider_claims"`

	User User `gorm:"foreignKey:UserID"`
}

// IsFederated reports whether the account's identity is asserted by an
// external provider rather than a local password.
func (a *Account) IsFederated() bool {
	return a.AuthProvider != ""
}

// HasPassword reports whether the account can be used for credential login.
func (a *Account) HasPassword() bool {
	return a.PasswordHash != ""
}
