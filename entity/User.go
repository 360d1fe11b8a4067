package entity

import (
	"gorm.io/gorm"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
	RoleStaff    Role = "staff"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAdmin, RoleStaff:
		return true
	}
	return false
}

// IsBackOffice reports whether the role may sign in to the admin dashboard.
func (r Role) IsBackOffice() bool { return r == RoleAdmin || r == RoleStaff }

type User struct {
	gorm.Model
	Name     string `gorm:"not null" json:"name"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Phone    string `json:"phone"`
	Role     Role   `gorm:"size:16;not null;default:customer" json:"role"`

	// preload only when needed
	Orders  []Order  `json:"-"`
	Reviews []Review `json:"-"`
}
