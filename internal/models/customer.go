package models

import "time"

// Customer represents a person enrolled in one or more schemes.
type Customer struct {
	ID uint64 `json:"id" gorm:"primaryKey;autoIncrement"` // Primary key.

	Name   string `json:"name" gorm:"type:text;not null;index"`         // Full name.
	Mobile string `json:"mobile" gorm:"type:text;not null;uniqueIndex"` // Mobile number.

	Address    string `json:"address,omitempty" gorm:"type:text"`
	Occupation string `json:"occupation,omitempty" gorm:"type:text"`
	Remarks    string `json:"remarks,omitempty" gorm:"type:text"`

	Active bool `json:"active" gorm:"not null;default:true"` // Whether the customer is active.

	Enrollments []CustomerScheme `json:"enrollments,omitempty" gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"` // Scheme enrollments.
	Collections []Collection     `json:"-" gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`                     // Recorded payments.

	CreatedAt time.Time `json:"createdAt" gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"not null;autoUpdateTime"`
}
