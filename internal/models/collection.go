package models

import "time"

// Payment methods accepted by collectors.
const (
	PaymentCash   = "CASH"
	PaymentUPI    = "UPI"
	PaymentBank   = "BANK"
	PaymentCheque = "CHEQUE"
)

// Collection records one payment event by a customer.
type Collection struct {
	ID uint64 `json:"id" gorm:"primaryKey;autoIncrement"` // Primary key.

	CustomerID       uint64  `json:"customerId" gorm:"not null;index"`        // Paying customer.
	CustomerSchemeID *uint64 `json:"customerSchemeId,omitempty" gorm:"index"` // Enrollment the payment applies to.
	CollectorID      *uint64 `json:"collectorId,omitempty" gorm:"index"`      // Staff member who recorded the payment.

	Customer   *Customer       `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`                                // Customer record.
	Enrollment *CustomerScheme `json:"enrollment,omitempty" gorm:"foreignKey:CustomerSchemeID"`                        // Enrollment record.
	Collector  *User           `json:"collector,omitempty" gorm:"foreignKey:CollectorID;constraint:OnDelete:RESTRICT"` // Recording collector.

	Date             time.Time `json:"date" gorm:"not null;index"`       // Payment date.
	AmountPaid       float64   `json:"amountPaid" gorm:"not null"`       // Amount collected.
	BalanceRemaining float64   `json:"balanceRemaining" gorm:"not null"` // Balance after this payment, as reported by the caller.

	PaymentMethod string `json:"paymentMethod" gorm:"type:text;not null;default:'CASH'"` // CASH, UPI, BANK, or CHEQUE.
	Remarks       string `json:"remarks,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"createdAt" gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"not null;autoUpdateTime"`
}

// ValidPaymentMethod reports whether the given method is accepted.
func ValidPaymentMethod(method string) bool {
	switch method {
	case PaymentCash, PaymentUPI, PaymentBank, PaymentCheque:
		return true
	}
	return false
}
