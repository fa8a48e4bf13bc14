package models

import "time"

// Enrollment lifecycle states.
const (
	EnrollmentActive    = "ACTIVE"
	EnrollmentCompleted = "COMPLETED"
	EnrollmentDefaulted = "DEFAULTED"
)

// CustomerScheme is the enrollment record joining a customer to a scheme.
// A (customer, scheme) pair is enrolled at most once.
type CustomerScheme struct {
	ID uint64 `json:"id" gorm:"primaryKey;autoIncrement"` // Primary key.

	CustomerID uint64 `json:"customerId" gorm:"not null;uniqueIndex:idx_enrollment_pair"` // Enrolled customer.
	SchemeID   uint64 `json:"schemeId" gorm:"not null;uniqueIndex:idx_enrollment_pair"`   // Target scheme.

	Customer *Customer   `json:"customer,omitempty" gorm:"foreignKey:CustomerID"` // Customer record.
	Scheme   *ChitScheme `json:"scheme,omitempty" gorm:"foreignKey:SchemeID"`     // Scheme record.

	AmountPerDay float64   `json:"amountPerDay" gorm:"not null"` // Enrollment-specific per-period amount.
	Duration     int       `json:"duration" gorm:"not null"`     // Enrollment duration in periods.
	StartDate    time.Time `json:"startDate" gorm:"not null"`    // Enrollment start date.

	Balance float64 `json:"balance" gorm:"not null"` // Outstanding amount still owed.

	Status string `json:"status" gorm:"type:text;not null;default:'ACTIVE';index"` // Lifecycle state.

	PassbookEntries []PassbookEntry `json:"-" gorm:"foreignKey:CustomerSchemeID;constraint:OnDelete:CASCADE"` // Ledger lines.

	CreatedAt time.Time `json:"createdAt" gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"not null;autoUpdateTime"`
}

// ContractedAmount returns the total amount owed over the full enrollment.
func (cs *CustomerScheme) ContractedAmount() float64 {
	return cs.AmountPerDay * float64(cs.Duration)
}
