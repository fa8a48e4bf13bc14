package models

import "time"

// Duration units for a scheme.
const (
	DurationDays   = "DAYS"
	DurationMonths = "MONTHS"
)

// Payment cadences.
const (
	FrequencyDaily   = "DAILY"
	FrequencyMonthly = "MONTHLY"
)

// Scheme lifecycle states.
const (
	SchemeActive    = "ACTIVE"
	SchemePaused    = "PAUSED"
	SchemeCompleted = "COMPLETED"
)

// ChitScheme defines a rotating savings fund.
type ChitScheme struct {
	ID uint64 `json:"id" gorm:"primaryKey;autoIncrement"` // Primary key.

	Name       string  `json:"name" gorm:"type:text;not null;uniqueIndex"` // Scheme display name.
	TotalValue float64 `json:"totalValue" gorm:"not null"`                 // Total fund value.

	Duration     int    `json:"duration" gorm:"not null"`                              // Duration count.
	DurationType string `json:"durationType" gorm:"type:text;not null;default:'DAYS'"` // DAYS or MONTHS.
	Frequency    string `json:"frequency" gorm:"type:text;not null;default:'DAILY'"`   // Payment cadence.

	AmountPerPeriod float64 `json:"amountPerPeriod" gorm:"not null"` // Contribution per period.

	NumberOfMembers int `json:"numberOfMembers" gorm:"not null"`           // Member capacity.
	MembersEnrolled int `json:"membersEnrolled" gorm:"not null;default:0"` // Current enrollment count.

	StartDate time.Time `json:"startDate" gorm:"not null"` // Scheme start date.
	EndDate   time.Time `json:"endDate" gorm:"not null"`   // Derived from start date and duration.

	Status string `json:"status" gorm:"type:text;not null;default:'ACTIVE';index"` // Lifecycle state.

	CommissionRate *float64 `json:"commissionRate,omitempty"` // Operator commission rate, when set.
	PenaltyRate    *float64 `json:"penaltyRate,omitempty"`    // Late payment penalty rate, when set.
	MinBid         *float64 `json:"minBid,omitempty"`         // Lower auction bid bound, when set.
	MaxBid         *float64 `json:"maxBid,omitempty"`         // Upper auction bid bound, when set.

	Enrollments []CustomerScheme `json:"-" gorm:"foreignKey:SchemeID;constraint:OnDelete:CASCADE"` // Enrolled members.

	CreatedAt time.Time `json:"createdAt" gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"not null;autoUpdateTime"`
}

// ComputeEndDate derives the end date from the start date and duration.
func (s *ChitScheme) ComputeEndDate() time.Time {
	if s.DurationType == DurationMonths {
		return s.StartDate.AddDate(0, s.Duration, 0)
	}
	return s.StartDate.AddDate(0, 0, s.Duration)
}

// HasCapacity reports whether another member can enroll.
func (s *ChitScheme) HasCapacity() bool {
	return s.MembersEnrolled < s.NumberOfMembers
}
