package models

import "time"

// Staff roles.
const (
	// RoleAdmin can manage schemes, auctions, users, and settings.
	RoleAdmin = "ADMIN"
	// RoleAgent handles customer enrollment and day-to-day operations.
	RoleAgent = "AGENT"
	// RoleCollector records customer payments in the field.
	RoleCollector = "COLLECTOR"
)

// User represents a staff account stored in the database.
type User struct {
	ID uint64 `json:"id" gorm:"primaryKey;autoIncrement"` // Primary key.

	Username string `json:"username" gorm:"type:text;not null;uniqueIndex"` // Unique login name.
	Password string `json:"-" gorm:"type:text;not null"`                    // Hashed password.

	Name   string `json:"name" gorm:"type:text;not null"` // Display name.
	Email  string `json:"email,omitempty" gorm:"type:text"`
	Mobile string `json:"mobile,omitempty" gorm:"type:text"`

	Role string `json:"role" gorm:"type:text;not null;default:'COLLECTOR'"` // Staff role.

	Active bool `json:"active" gorm:"not null;default:true"` // Whether the user can sign in.

	CreatedAt time.Time `json:"createdAt" gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"not null;autoUpdateTime"`
}

// ValidRole reports whether the given role is a known staff role.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleAgent, RoleCollector:
		return true
	}
	return false
}
