package repository

import (
	"context"
	"time"

	"github.com/lumina-platform/auth-service/internal/model"
	ctxutil "github.com/lumina-platform/auth-service/pkg/context"
	"github.com/lumina-platform/auth-service/pkg/logger"
	"gorm.io/gorm"
)

type OtpTokenGormRepository struct {
	db *gorm.DB
}

func NewOtpTokenRepository(db *gorm.DB) *OtpTokenGormRepository {
	return &OtpTokenGormRepository{db: db}
}

func (r *OtpTokenGormRepository) Create(ctx context.Context, token *model.OtpToken) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "Create")

	result := r.db.WithContext(ctx).Create(token)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to insert OTP token").
			Uint("user_id", token.UserID).
			String("purpose", token.Purpose).
			Err(result.Error).
			Log()
		return result.Error
	}

	return nil
}

// GetActiveByUser returns the newest unconsumed, unexpired code for a user
// and purpose.
func (r *OtpTokenGormRepository) GetActiveByUser(ctx context.Context, userID uint, purpose string) (*model.OtpToken, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "GetActiveByUser")

	var token model.OtpToken
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND purpose = ? AND used_at IS NULL AND expires_at > ?",
			userID, purpose, time.Now().UTC()).
		Order("id DESC").
		First(&token)
	if result.Error != nil {
		return nil, result.Error
	}

	return &token, nil
}

// DeleteActiveForUser removes any still-active codes before a new one is
// issued, keeping at most one active code per user and purpose.
func (r *OtpTokenGormRepository) DeleteActiveForUser(ctx context.Context, userID uint, purpose string) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "DeleteActiveForUser")

	result := r.db.WithContext(ctx).Unscoped().
		Where("user_id = ? AND purpose = ? AND used_at IS NULL AND expires_at > ?",
			userID, purpose, time.Now().UTC()).
		Delete(&model.OtpToken{})
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to delete active OTP tokens").
			Uint("user_id", userID).
			String("purpose", purpose).
			Err(result.Error).
			Log()
		return result.Error
	}

	return nil
}

func (r *OtpTokenGormRepository) DeleteAllForUser(ctx context.Context, userID uint) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "DeleteAllForUser")

	result := r.db.WithContext(ctx).Unscoped().
		Where("user_id = ?", userID).
		Delete(&model.OtpToken{})
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to delete OTP tokens for user").
			Uint("user_id", userID).
			Err(result.Error).
			Log()
		return result.Error
	}

	return nil
}

// MarkUsed consumes a code. Callers set usedAt inside the same transaction as
// the state change the code authorizes.
func (r *OtpTokenGormRepository) MarkUsed(ctx context.Context, id uint, usedAt time.Time) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "MarkUsed")

	result := r.db.WithContext(ctx).Model(&model.OtpToken{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", &usedAt)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *OtpTokenGormRepository) Delete(ctx context.Context, id uint) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "Delete")

	result := r.db.WithContext(ctx).Unscoped().Delete(&model.OtpToken{}, id)
	if result.Error != nil {
		return result.Error
	}

	return nil
}
