package repository

import (
	"context"

	"github.com/lumina-platform/auth-service/internal/model"
	ctxutil "github.com/lumina-platform/auth-service/pkg/context"
	"github.com/lumina-platform/auth-service/pkg/logger"
	"gorm.io/gorm"
)

type UserGormRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserGormRepository {
	return &UserGormRepository{db: db}
}

func (r *UserGormRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "GetByID")

	var user model.User
	result := r.db.WithContext(ctx).Preload("Role").Where("id = ?", id).First(&user)
	if result.Error != nil {
		return nil, result.Error
	}

	return &user, nil
}

func (r *UserGormRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "GetByEmail")

	var user model.User
	result := r.db.WithContext(ctx).Preload("Role").Where("email = ?", email).First(&user)
	if result.Error != nil {
		return nil, result.Error
	}

	return &user, nil
}

func (r *UserGormRepository) GetActiveByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "GetActiveByEmail")

	var user model.User
	result := r.db.WithContext(ctx).Preload("Role").
		Where("email = ? AND is_active = ?", email, true).
		First(&user)
	if result.Error != nil {
		return nil, result.Error
	}

	return &user, nil
}

// GetPendingByEmail finds the in-flight registration placeholder for an email,
// if one exists.
func (r *UserGormRepository) GetPendingByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "GetPendingByEmail")

	var user model.User
	result := r.db.WithContext(ctx).
		Where("email = ? AND is_active = ?", email, false).
		First(&user)
	if result.Error != nil {
		return nil, result.Error
	}

	return &user, nil
}

func (r *UserGormRepository) ActiveEmailExists(ctx context.Context, email string) (bool, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "ActiveEmailExists")

	var count int64
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("email = ? AND is_active = ?", email, true).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}

func (r *UserGormRepository) Create(ctx context.Context, user *model.User) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "Create")

	result := r.db.WithContext(ctx).Create(user)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to create user").
			String("email", user.Email).
			Err(result.Error).
			Log()
		return result.Error
	}

	logger.DebugWithContext(ctx, "User created").
		String("email", user.Email).
		Uint("user_id", user.ID).
		Bool("is_active", user.IsActive).
		Log()

	return nil
}

// Activate flips the pending placeholder to an active User and records the
// registrant's real name in the same update.
func (r *UserGormRepository) Activate(ctx context.Context, id uint, fullName string) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "Activate")

	result := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active": true,
			"full_name": fullName,
		})
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to activate user").
			Uint("user_id", id).
			Err(result.Error).
			Log()
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *UserGormRepository) Delete(ctx context.Context, id uint) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "Delete")

	result := r.db.WithContext(ctx).Unscoped().Delete(&model.User{}, id)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to delete user").
			Uint("user_id", id).
			Err(result.Error).
			Log()
		return result.Error
	}

	return nil
}
