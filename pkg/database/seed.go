package database

import (
	"errors"

	"github.com/lumina-platform/auth-service/internal/model"
	"gorm.io/gorm"
)

// Seed creates initial data for the database
func Seed(db *gorm.DB) error {
	return SeedRoles(db)
}

// SeedRoles creates the static role rows if they do not exist yet.
func SeedRoles(db *gorm.DB) error {
	names := []string{
		model.RoleAdmin,
		model.RoleManager,
		model.RoleStaff,
		model.RoleLearner,
	}

	for _, name := range names {
		var existing model.Role
		result := db.Where("name = ?", name).First(&existing)
		if result.Error == nil {
			continue
		}
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return result.Error
		}

		if err := db.Create(&model.Role{Name: name}).Error; err != nil {
			return err
		}
	}

	return nil
}

// DefaultRoleID looks up the role assigned to new signups.
func DefaultRoleID(db *gorm.DB) (uint, error) {
	var role model.Role
	if err := db.Where("name = ?", model.RoleLearner).First(&role).Error; err != nil {
		return 0, err
	}
	return role.ID, nil
}
