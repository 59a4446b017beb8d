package database

import (
	"github.com/lumina-platform/auth-service/internal/model"
	"gorm.io/gorm"
)

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Role{},
		&model.User{},
		&model.Account{},
		&model.RefreshToken{},
		&model.OtpToken{},
	)
}
