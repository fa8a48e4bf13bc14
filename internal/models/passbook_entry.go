package models

import "time"

// Passbook entry origins.
const (
	// PassbookGenerated marks system-generated entries; they are read-only.
	PassbookGenerated = "GENERATED"
	// PassbookManual marks operator-entered entries; at most one per
	// enrollment per month.
	PassbookManual = "MANUAL"
)

// PassbookEntry is one ledger line recording expected vs actual payment for
// an enrollment in a period.
type PassbookEntry struct {
	ID uint64 `json:"id" gorm:"primaryKey;autoIncrement"` // Primary key.

	CustomerSchemeID uint64          `json:"customerSchemeId" gorm:"not null;index"`                  // Owning enrollment.
	Enrollment       *CustomerScheme `json:"enrollment,omitempty" gorm:"foreignKey:CustomerSchemeID"` // Enrollment record.

	Date  time.Time `json:"date" gorm:"not null;index"`            // Entry date.
	Month string    `json:"month" gorm:"type:text;not null;index"` // Month key in YYYY-MM form.

	ExpectedAmount float64 `json:"expectedAmount" gorm:"not null"`         // Expected payment for the period.
	ActualAmount   float64 `json:"actualAmount" gorm:"not null;default:0"` // Payment actually received.

	Type string `json:"type" gorm:"type:text;not null;default:'GENERATED'"` // GENERATED or MANUAL.
	Note string `json:"note,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"createdAt" gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"not null;autoUpdateTime"`
}

// Backlog returns the positive shortfall between expected and actual payment.
func (e *PassbookEntry) Backlog() float64 {
	if d := e.ExpectedAmount - e.ActualAmount; d > 0 {
		return d
	}
	return 0
}
