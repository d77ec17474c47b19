// internal/model/user.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is a closed set. New roles must be added here and handled exhaustively
// in the access policy; loose strings would silently bypass the role gates.
type Role string

const (
	// RoleAdmin is the platform-wide administrator. It is not scoped to an
	// organization and bypasses the organization-match rule.
	RoleAdmin      Role = "admin"
	RoleOwner      Role = "owner"
	RoleManager    Role = "manager"
	RoleTechnician Role = "technician"
	RoleAssistant  Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOwner, RoleManager, RoleTechnician, RoleAssistant:
		return true
	}
	return false
}

// Manages reports whether the role carries organization-management power
// (team and customer administration, order deletion).
func (r Role) Manages() bool {
	switch r {
	case RoleAdmin, RoleOwner, RoleManager:
		return true
	case RoleTechnician, RoleAssistant:
		return false
	}
	return false
}

type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
	Name           string    `gorm:"type:text;not null" json:"name"`
	Email          string    `gorm:"type:text;uniqueIndex;not null" json:"email"`
	PasswordHash   string    `gorm:"type:text;not null" json:"-"`
	Role           Role      `gorm:"type:text;not null" json:"role"`
	SeeAllOrders   bool      `gorm:"not null;default:false" json:"see_all_orders"`
	Active         bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BeforeCreate assigns the ID in the application instead of relying on a
// database default, so the same models run on Postgres and on SQLite in tests.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
