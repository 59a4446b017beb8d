package repository

import (
	"context"
	"time"

	"github.com/lumina-platform/auth-service/internal/model"
	ctxutil "github.com/lumina-platform/auth-service/pkg/context"
	"github.com/lumina-platform/auth-service/pkg/logger"
	"gorm.io/gorm"
)

type RefreshTokenGormRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenGormRepository {
	return &RefreshTokenGormRepository{db: db}
}

func (r *RefreshTokenGormRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "Create")

	result := r.db.WithContext(ctx).Create(token)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to insert refresh token").
			Uint("user_id", token.UserID).
			Err(result.Error).
			Log()
		return result.Error
	}

	return nil
}

// GetByToken looks the ledger up by exact token string, preloading the owning
// user so the caller can check its active flag.
func (r *RefreshTokenGormRepository) GetByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "GetByToken")

	var row model.RefreshToken
	result := r.db.WithContext(ctx).Preload("User").Preload("User.Role").
		Where("token = ?", token).
		First(&row)
	if result.Error != nil {
		return nil, result.Error
	}

	return &row, nil
}

// Revoke marks a single token revoked. Revocation is a monotonic one-way
// flag; a revoked row is never reactivated.
func (r *RefreshTokenGormRepository) Revoke(ctx context.Context, id uint, reason, replacedByToken string) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "Revoke")

	now := time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&model.RefreshToken{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_revoked":        true,
			"revoked_at":        &now,
			"revoked_reason":    reason,
			"replaced_by_token": replacedByToken,
		})
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to revoke refresh token").
			Uint("token_id", id).
			Err(result.Error).
			Log()
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// RevokeAllActiveForUser prunes every active session for a user in one
// statement. The login path calls this so a fresh login supersedes prior
// sessions.
func (r *RefreshTokenGormRepository) RevokeAllActiveForUser(ctx context.Context, userID uint, reason string) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "RevokeAllActiveForUser")

	now := time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&model.RefreshToken{}).
		Where("user_id = ? AND is_revoked = ? AND expires_at > ?", userID, false, now).
		Updates(map[string]interface{}{
			"is_revoked":     true,
			"revoked_at":     &now,
			"revoked_reason": reason,
		})
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to revoke active refresh tokens").
			Uint("user_id", userID).
			Err(result.Error).
			Log()
		return result.Error
	}

	if result.RowsAffected > 0 {
		logger.InfoWithContext(ctx, "Active refresh tokens revoked").
			Uint("user_id", userID).
			Int64("revoked_count", result.RowsAffected).
			String("reason", reason).
			Log()
	}

	return nil
}

func (r *RefreshTokenGormRepository) CountActiveForUser(ctx context.Context, userID uint) (int64, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "CountActiveForUser")

	var count int64
	result := r.db.WithContext(ctx).Model(&model.RefreshToken{}).
		Where("user_id = ? AND is_revoked = ? AND expires_at > ?", userID, false, time.Now().UTC()).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}

	return count, nil
}
