package models

import (
	"time"

	"gorm.io/datatypes"
)

// Auction lifecycle states.
const (
	AuctionScheduled = "SCHEDULED"
	AuctionCompleted = "COMPLETED"
	AuctionCancelled = "CANCELLED"
)

// Auction records one lifting event for a scheme cycle. The winning member
// receives the pooled payout net of the discount retained by the operator.
type Auction struct {
	ID uint64 `json:"id" gorm:"primaryKey;autoIncrement"` // Primary key.

	SchemeID uint64      `json:"schemeId" gorm:"not null;index"`              // Scheme holding the auction.
	Scheme   *ChitScheme `json:"scheme,omitempty" gorm:"foreignKey:SchemeID"` // Scheme record.

	WinnerID *uint64   `json:"winnerId,omitempty" gorm:"index"`             // Winning customer, once drawn.
	Winner   *Customer `json:"winner,omitempty" gorm:"foreignKey:WinnerID"` // Winning customer record.

	AuctionDate time.Time `json:"auctionDate" gorm:"not null;index"` // Date of the lifting event.

	AmountReceived float64 `json:"amountReceived" gorm:"not null"`           // Payout to the winner.
	DiscountAmount float64 `json:"discountAmount" gorm:"not null;default:0"` // Amount retained by the operator.

	// The payment change is informational; existing enrollment balances are
	// not adjusted when an auction completes.
	NewDailyPayment      float64 `json:"newDailyPayment" gorm:"not null;default:0"`      // Per-period payment going forward.
	PreviousDailyPayment float64 `json:"previousDailyPayment" gorm:"not null;default:0"` // Per-period payment before the auction.

	Status  string `json:"status" gorm:"type:text;not null;default:'SCHEDULED';index"` // Lifecycle state.
	Remarks string `json:"remarks,omitempty" gorm:"type:text"`

	Meta datatypes.JSON `json:"meta,omitempty" gorm:"type:jsonb"` // Bid sheet or other structured detail.

	CreatedAt time.Time `json:"createdAt" gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"not null;autoUpdateTime"`
}
