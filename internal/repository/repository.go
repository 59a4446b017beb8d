package repository

import (
	"context"
	"time"

	"github.com/lumina-platform/auth-service/internal/model"
	"gorm.io/datatypes"
)

// Store bundles the persistence surface the services depend on. Transaction
// runs the callback against a store bound to one database transaction; any
// error rolls back every write issued within it.
type Store interface {
	Users() UserRepository
	Accounts() AccountRepository
	RefreshTokens() RefreshTokenRepository
	OtpTokens() OtpTokenRepository
	Transaction(ctx context.Context, fn func(Store) error) error
}

// UserRepository persists Users. Lookups that miss return
// gorm.ErrRecordNotFound.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetActiveByEmail(ctx context.Context, email string) (*model.User, error)
	GetPendingByEmail(ctx context.Context, email string) (*model.User, error)
	ActiveEmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *model.User) error
	Activate(ctx context.Context, id uint, fullName string) error
	Delete(ctx context.Context, id uint) error
}

// AccountRepository persists Accounts.
type AccountRepository interface {
	GetByUsername(ctx context.Context, username string) (*model.Account, error)
	GetCredentialByEmail(ctx context.Context, email string) (*model.Account, error)
	GetCredentialByUserID(ctx context.Context, userID uint) (*model.Account, error)
	GetPrimaryByUserID(ctx context.Context, userID uint) (*model.Account, error)
	GetByProvider(ctx context.Context, provider, providerUserID string) (*model.Account, error)
	GetByUserAndProvider(ctx context.Context, userID uint, provider string) (*model.Account, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, account *model.Account) error
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
	UpdateUsername(ctx context.Context, id uint, username string) error
	UpdateProviderToken(ctx context.Context, id uint, accessToken string, expiresAt *time.Time, claims datatypes.JSON) error
}

// RefreshTokenRepository is the refresh-token ledger.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	GetByToken(ctx context.Context, token string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, id uint, reason, replacedByToken string) error
	RevokeAllActiveForUser(ctx context.Context, userID uint, reason string) error
	CountActiveForUser(ctx context.Context, userID uint) (int64, error)
}

// OtpTokenRepository persists one-time codes for both OTP purposes.
type OtpTokenRepository interface {
	Create(ctx context.Context, token *model.OtpToken) error
	GetActiveByUser(ctx context.Context, userID uint, purpose string) (*model.OtpToken, error)
	DeleteActiveForUser(ctx context.Context, userID uint, purpose string) error
	DeleteAllForUser(ctx context.Context, userID uint) error
	MarkUsed(ctx context.Context, id uint, usedAt time.Time) error
	Delete(ctx context.Context, id uint) error
}
