package models

import (
	"time"

	"gorm.io/gorm"
)

// Account roles. Role changes go through the admin role-assignment
// endpoint only; profile updates never touch the role.
const (
	RoleUser       = "user"
	RoleTechnician = "technician"
	RoleAdmin      = "admin"
)

// Account represents a registered person: a service seeker, a technician
// offering a profession, or an administrator. Exactly one account exists
// per Auth0 subject; the unique index on Auth0ID enforces that even when
// two ensure-account calls race.
type Account struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Auth0ID    string `gorm:"uniqueIndex;not null" json:"auth0_id"` // Auth0 user ID (from 'sub' claim)
	Name       string `gorm:"not null" json:"name"`
	Email      string `gorm:"uniqueIndex;not null" json:"email"`
	Role       string `gorm:"not null;default:'user'" json:"role"`
	Profession string `json:"profession"` // set only for technicians

	// Location captured at registration or profile update. Coordinates are
	// nullable; a technician without them is still searchable but never
	// gets a distance.
	City string   `json:"city"`
	Lat  *float64 `json:"lat"`
	Lng  *float64 `json:"lng"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Account model
func (Account) TableName() string {
	return "accounts"
}

// IsTechnician reports whether the account can be matched and assigned.
func (a *Account) IsTechnician() bool {
	return a.Role == RoleTechnician
}

// IsAdmin reports whether the account may use the admin endpoints.
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// HasCoordinates reports whether both latitude and longitude are set.
func (a *Account) HasCoordinates() bool {
	return a.Lat != nil && a.Lng != nil
}
