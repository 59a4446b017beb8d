package model

import "gorm.io/gorm"

// Role is static reference data, seeded at startup.
type Role struct {
	gorm.Model
	Name string `gorm:"column:name;unique;not null"`
}

// Seeded role names. New signups get RoleLearner.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
	RoleLearner = "learner"
)
