package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleEmployee   = "EMPLOYEE"
	RoleHOD        = "HOD"
	RolePrincipal  = "PRINCIPAL"
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPERADMIN"
)

const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FullName string    `gorm:"size:255;not null"`
	Email    string    `gorm:"size:255;not null;uniqueIndex"`
	Gender   string    `gorm:"size:20;not null;default:''"`
	Role     string    `gorm:"size:20;not null;default:'EMPLOYEE';index"`

	// DepartmentID is null for role-only accounts (principal logins and the
	// like) whose department, if any, is derived from the email prefix.
	DepartmentID *uuid.UUID `gorm:"type:uuid;index"`

	// Active is false until an admin approves the account. Only active users
	// participate in balance initialization and renewal.
	Active bool `gorm:"not null;default:false;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}
