package entity

import (
	"time"

	"github.com/dafteam/facturation-api/internal/domain/enum"
)

// User represents an actor of the validation workflow. Each user carries
// exactly one role; the role does not change once assigned.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FirstName string    `gorm:"size:100" json:"first_name"`
	LastName  string    `gorm:"size:100;not null" json:"last_name"`
	Email     string    `gorm:"size:255;unique;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Role      enum.Role `gorm:"size:10;not null;index" json:"role"`
	Active    bool      `gorm:"default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// FullName returns the display name of the user
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	return u.FirstName + " " + u.LastName
}

// Capability predicates. A deactivated user holds no capability at all.

// IsCreator reports whether the user may enter and submit invoices
func (u *User) IsCreator() bool {
	return u.Active && u.Role == enum.RoleU1
}

// IsValidatorV1 reports whether the user may perform level-1 validation
func (u *User) IsValidatorV1() bool {
	return u.Active && u.Role == enum.RoleV1
}

// IsValidatorV2 reports whether the user may perform level-2 validation
func (u *User) IsValidatorV2() bool {
	return u.Active && u.Role == enum.RoleV2
}

// IsTreasurer reports whether the user may process payments
func (u *User) IsTreasurer() bool {
	return u.Active && u.Role == enum.RoleT1
}

// IsAdmin reports whether the user administers the system
func (u *User) IsAdmin() bool {
	return u.Active && u.Role == enum.RoleAdmin
}
