package repository

import (
	"context"
	"time"

	"github.com/lumina-platform/auth-service/internal/model"
	ctxutil "github.com/lumina-platform/auth-service/pkg/context"
	"github.com/lumina-platform/auth-service/pkg/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AccountGormRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountGormRepository {
	return &AccountGormRepository{db: db}
}

func (r *AccountGormRepository) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "GetByUsername")

	var account model.Account
	result := r.db.WithContext(ctx).Preload("User").Preload("User.Role").
		Where("username = ? AND (auth_provider = '' OR auth_provider IS NULL)", username).
		First(&account)
	if result.Error != nil {
		return nil, result.Error
	}

	return &account, nil
}

// GetCredentialByEmail resolves a non-federated account through its owning
// user's email. Used by the login path when the identifier looks like an
// email address.
func (r *AccountGormRepository) GetCredentialByEmail(ctx context.Context, email string) (*model.Account, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "GetCredentialByEmail")

	var account model.Account
	result := r.db.WithContext(ctx).Preload("User").Preload("User.Role").
		Joins("JOIN users ON users.id = accounts.user_id").
		Where("users.email = ? AND (accounts.auth_provider = '' OR accounts.auth_provider IS NULL)", email).
		First(&account)
	if result.Error != nil {
		return nil, result.Error
	}

	return &account, nil
}

func (r *AccountGormRepository) GetCredentialByUserID(ctx context.Context, userID uint) (*model.Account, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "GetCredentialByUserID")

	var account model.Account
	result := r.db.WithContext(ctx).Preload("User").Preload("User.Role").
		Where("user_id = ? AND (auth_provider = '' OR auth_provider IS NULL)", userID).
		First(&account)
	if result.Error != nil {
		return nil, result.Error
	}

	return &account, nil
}

// GetPrimaryByUserID returns the user's credential account when one exists,
// otherwise any federated account. The refresh path uses it to rebuild the
// public user view.
func (r *AccountGormRepository) GetPrimaryByUserID(ctx context.Context, userID uint) (*model.Account, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "GetPrimaryByUserID")

	var account model.Account
	result := r.db.WithContext(ctx).Preload("User").Preload("User.Role").
		Where("user_id = ?", userID).
		Order("auth_provider ASC, id ASC").
		First(&account)
	if result.Error != nil {
		return nil, result.Error
	}

	return &account, nil
}

func (r *AccountGormRepository) GetByProvider(ctx context.Context, provider, providerUserID string) (*model.Account, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "GetByProvider")

	var account model.Account
	result := r.db.WithContext(ctx).Preload("User").Preload("User.Role").
		Where("auth_provider = ? AND provider_user_id = ?", provider, providerUserID).
		First(&account)
	if result.Error != nil {
		return nil, result.Error
	}

	return &account, nil
}

func (r *AccountGormRepository) GetByUserAndProvider(ctx context.Context, userID uint, provider string) (*model.Account, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "GetByUserAndProvider")

	var account model.Account
	result := r.db.WithContext(ctx).Preload("User").Preload("User.Role").
		Where("user_id = ? AND auth_provider = ?", userID, provider).
		First(&account)
	if result.Error != nil {
		return nil, result.Error
	}

	return &account, nil
}

func (r *AccountGormRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "UsernameExists")

	var count int64
	result := r.db.WithContext(ctx).Model(&model.Account{}).
		Where("username = ?", username).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}

func (r *AccountGormRepository) Create(ctx context.Context, account *model.Account) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "Create")

	result := r.db.WithContext(ctx).Create(account)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to create account").
			String("username", account.Username).
			Uint("user_id", account.UserID).
			Err(result.Error).
			Log()
		return result.Error
	}

	logger.DebugWithContext(ctx, "Account created").
		String("username", account.Username).
		Uint("user_id", account.UserID).
		String("auth_provider", account.AuthProvider).
		Log()

	return nil
}

func (r *AccountGormRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "UpdatePassword")

	result := r.db.WithContext(ctx).Model(&model.Account{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update account password").
			Uint("account_id", id).
			Err(result.Error).
			Log()
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// UpdateUsername backfills a username on a federated account that was created
// before usernames were assigned. It never overwrites an existing one.
func (r *AccountGormRepository) UpdateUsername(ctx context.Context, id uint, username string) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "UpdateUsername")

	result := r.db.WithContext(ctx).Model(&model.Account{}).
		Where("id = ? AND (username = '' OR username IS NULL)", id).
		Update("username", username)
	if result.Error != nil {
		return result.Error
	}

	return nil
}

func (r *AccountGormRepository) UpdateProviderToken(ctx context.Context, id uint, accessToken string, expiresAt *time.Time, claims datatypes.JSON) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "UpdateProviderToken")

	result := r.db.WithContext(ctx).Model(&model.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"access_token":     accessToken,
			"token_expires_at": expiresAt,
			"provider_claims":  claims,
		})
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update provider token").
			Uint("account_id", id).
			Err(result.Error).
			Log()
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
