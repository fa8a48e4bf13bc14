package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/chitworks/chitfund-api/internal/ledger"
	"github.com/chitworks/chitfund-api/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuctionsHandler handles auction endpoints.
type AuctionsHandler struct {
	db     *gorm.DB
	ledger *ledger.Service
}

// NewAuctionsHandler constructs an AuctionsHandler.
func NewAuctionsHandler(db *gorm.DB, ledgerSvc *ledger.Service) *AuctionsHandler {
	return &AuctionsHandler{db: db, ledger: ledgerSvc}
}

var auctionSortColumns = map[string]bool{
	"id":           true,
	"auction_date": true,
	"status":       true,
	"created_at":   true,
}

// createAuctionRequest defines the request body for recording an auction.
type createAuctionRequest struct {
	SchemeID             uint64         `json:"schemeId" binding:"required"`
	WinnerID             *uint64        `json:"winnerId"`
	AuctionDate          string         `json:"auctionDate" binding:"required"`
	AmountReceived       float64        `json:"amountReceived" binding:"gte=0"`
	DiscountAmount       float64        `json:"discountAmount" binding:"gte=0"`
	NewDailyPayment      float64        `json:"newDailyPayment" binding:"gte=0"`
	PreviousDailyPayment float64        `json:"previousDailyPayment" binding:"gte=0"`
	Status               string         `json:"status" binding:"omitempty,oneof=SCHEDULED COMPLETED CANCELLED"`
	Remarks              string         `json:"remarks" binding:"omitempty,max=512"`
	Meta                 datatypes.JSON `json:"meta"`
}

// Create records an auction. The winner, when given, must be an enrolled
// member of the scheme.
func (h *AuctionsHandler) Create(c *gin.Context) {
	var body createAuctionRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondBindError(c, errBind)
		return
	}
	auctionDate, errParse := time.Parse(dateLayout, body.AuctionDate)
	if errParse != nil {
		respondError(c, http.StatusBadRequest, "Invalid auctionDate, expected YYYY-MM-DD")
		return
	}

	auction, errRecord := h.ledger.RecordAuction(c.Request.Context(), ledger.AuctionInput{
		SchemeID:             body.SchemeID,
		WinnerID:             body.WinnerID,
		AuctionDate:          auctionDate,
		AmountReceived:       body.AmountReceived,
		DiscountAmount:       body.DiscountAmount,
		NewDailyPayment:      body.NewDailyPayment,
		PreviousDailyPayment: body.PreviousDailyPayment,
		Status:               body.Status,
		Remarks:              body.Remarks,
	})
	if errRecord != nil {
		respondLedgerError(c, errRecord)
		return
	}

	if len(body.Meta) > 0 {
		if errMeta := h.db.WithContext(c.Request.Context()).
			Model(auction).
			UpdateColumn("meta", body.Meta).Error; errMeta != nil {
			respondServerError(c, errMeta)
			return
		}
		auction.Meta = body.Meta
	}
	respondCreated(c, "Auction recorded", auction)
}

// auctionsListQuery defines query parameters for listing auctions.
type auctionsListQuery struct {
	listQuery
	SchemeID  uint64 `form:"schemeId"`
	Status    string `form:"status"`
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
}

// List returns auctions with pagination and filters.
func (h *AuctionsHandler) List(c *gin.Context) {
	var q auctionsListQuery
	if errBind := c.ShouldBindQuery(&q); errBind != nil {
		respondBindError(c, errBind)
		return
	}
	q.normalize(auctionSortColumns, "auction_date")

	query := h.db.WithContext(c.Request.Context()).Model(&models.Auction{})
	if q.SchemeID != 0 {
		query = query.Where("scheme_id = ?", q.SchemeID)
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.StartDate != "" {
		if start, errParse := time.Parse(dateLayout, q.StartDate); errParse == nil {
			query = query.Where("auction_date >= ?", start)
		}
	}
	if q.EndDate != "" {
		if end, errParse := time.Parse(dateLayout, q.EndDate); errParse == nil {
			query = query.Where("auction_date < ?", end.AddDate(0, 0, 1))
		}
	}

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		respondServerError(c, errCount)
		return
	}
	var auctions []models.Auction
	if errFind := paginate(query, &q.listQuery).
		Preload("Scheme").
		Preload("Winner").
		Find(&auctions).Error; errFind != nil {
		respondServerError(c, errFind)
		return
	}
	respondOK(c, "", newPaginated(auctions, &q.listQuery, total))
}

// Get returns one auction with scheme and winner detail.
func (h *AuctionsHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondNotFound(c, "Auction not found")
		return
	}
	var auction models.Auction
	if errFind := h.db.WithContext(c.Request.Context()).
		Preload("Scheme").
		Preload("Winner").
		First(&auction, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			respondNotFound(c, "Auction not found")
			return
		}
		respondServerError(c, errFind)
		return
	}
	respondOK(c, "", auction)
}

// updateAuctionRequest defines the request body for patching an auction.
type updateAuctionRequest struct {
	WinnerID             *uint64        `json:"winnerId"`
	AuctionDate          *string        `json:"auctionDate"`
	AmountReceived       *float64       `json:"amountReceived" binding:"omitempty,gte=0"`
	DiscountAmount       *float64       `json:"discountAmount" binding:"omitempty,gte=0"`
	NewDailyPayment      *float64       `json:"newDailyPayment" binding:"omitempty,gte=0"`
	PreviousDailyPayment *float64       `json:"previousDailyPayment" binding:"omitempty,gte=0"`
	Status               *string        `json:"status" binding:"omitempty,oneof=SCHEDULED COMPLETED CANCELLED"`
	Remarks              *string        `json:"remarks" binding:"omitempty,max=512"`
	Meta                 datatypes.JSON `json:"meta"`
}

// Update patches an auction. A new winner must be an enrolled member of the
// auction's scheme.
func (h *AuctionsHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondNotFound(c, "Auction not found")
		return
	}
	var body updateAuctionRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondBindError(c, errBind)
		return
	}

	var auction models.Auction
	if errFind := h.db.WithContext(c.Request.Context()).First(&auction, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			respondNotFound(c, "Auction not found")
			return
		}
		respondServerError(c, errFind)
		return
	}

	updates := map[string]any{}
	if body.WinnerID != nil {
		var enrolled int64
		if errCount := h.db.WithContext(c.Request.Context()).
			Model(&models.CustomerScheme{}).
			Where("customer_id = ? AND scheme_id = ?", *body.WinnerID, auction.SchemeID).
			Count(&enrolled).Error; errCount != nil {
			respondServerError(c, errCount)
			return
		}
		if enrolled == 0 {
			respondError(c, http.StatusBadRequest, "Winner is not enrolled in scheme")
			return
		}
		updates["winner_id"] = *body.WinnerID
	}
	if body.AuctionDate != nil {
		auctionDate, errParse := time.Parse(dateLayout, *body.AuctionDate)
		if errParse != nil {
			respondError(c, http.StatusBadRequest, "Invalid auctionDate, expected YYYY-MM-DD")
			return
		}
		updates["auction_date"] = auctionDate
	}
	if body.AmountReceived != nil {
		updates["amount_received"] = *body.AmountReceived
	}
	if body.DiscountAmount != nil {
		updates["discount_amount"] = *body.DiscountAmount
	}
	if body.NewDailyPayment != nil {
		updates["new_daily_payment"] = *body.NewDailyPayment
	}
	if body.PreviousDailyPayment != nil {
		updates["previous_daily_payment"] = *body.PreviousDailyPayment
	}
	if body.Status != nil {
		updates["status"] = *body.Status
	}
	if body.Remarks != nil {
		updates["remarks"] = *body.Remarks
	}
	if len(body.Meta) > 0 {
		updates["meta"] = body.Meta
	}
	if len(updates) > 0 {
		if errUpdate := h.db.WithContext(c.Request.Context()).
			Model(&auction).
			Updates(updates).Error; errUpdate != nil {
			respondServerError(c, errUpdate)
			return
		}
	}
	respondOK(c, "Auction updated", auction)
}

// Delete removes an auction unless it has completed.
func (h *AuctionsHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondNotFound(c, "Auction not found")
		return
	}
	if errDelete := h.ledger.DeleteAuction(c.Request.Context(), id); errDelete != nil {
		respondLedgerError(c, errDelete)
		return
	}
	respondOK(c, "Auction deleted", nil)
}
