package model

import (
	"gorm.io/gorm"
)

// User owns at most one credential Account and one federated Account.
// IsActive=false marks a pending registration placeholder that is invisible
// to login until OTP verification activates it.
type User struct {
	gorm.Model
	Email    string `gorm:"column:email;unique;not null"`
	FullName string `gorm:"column:full_name;not null"`
	RoleID   uint   `gorm:"column:role_id;not null"`
	IsActive bool   `gorm:"column:is_active;default:false;not null"`

	Role     Role      `gorm:"foreignKey:RoleID"`
	Accounts []Account `gorm:"foreignKey:UserID"`
}
