package handlers

import (
	"net/http"
	"time"

	"github.com/chitworks/chitfund-api/internal/ledger"
	"github.com/chitworks/chitfund-api/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PassbookHandler handles passbook ledger endpoints.
type PassbookHandler struct {
	db     *gorm.DB
	ledger *ledger.Service
}

// NewPassbookHandler constructs a PassbookHandler.
func NewPassbookHandler(db *gorm.DB, ledgerSvc *ledger.Service) *PassbookHandler {
	return &PassbookHandler{db: db, ledger: ledgerSvc}
}

// passbookListQuery defines query parameters for listing entries.
type passbookListQuery struct {
	Month string `form:"month"`
	Type  string `form:"type"`
}

// ListForEnrollment returns an enrollment's passbook entries, newest first.
func (h *PassbookHandler) ListForEnrollment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondNotFound(c, "Enrollment not found")
		return
	}
	var q passbookListQuery
	if errBind := c.ShouldBindQuery(&q); errBind != nil {
		respondBindError(c, errBind)
		return
	}

	var enrollment models.CustomerScheme
	if errFind := h.db.WithContext(c.Request.Context()).
		Preload("Customer").
		Preload("Scheme").
		First(&enrollment, id).Error; errFind != nil {
		respondLedgerError(c, errFind)
		return
	}

	query := h.db.WithContext(c.Request.Context()).
		Where("customer_scheme_id = ?", id)
	if q.Month != "" {
		query = query.Where("month = ?", q.Month)
	}
	if q.Type != "" {
		query = query.Where("type = ?", q.Type)
	}

	var entries []models.PassbookEntry
	if errFind := query.Order("date DESC").Find(&entries).Error; errFind != nil {
		respondServerError(c, errFind)
		return
	}
	respondOK(c, "", gin.H{"enrollment": enrollment, "entries": entries})
}

// createEntryRequest defines the request body for a manual passbook entry.
type createEntryRequest struct {
	CustomerSchemeID uint64  `json:"customerSchemeId" binding:"required"`
	Date             string  `json:"date" binding:"required"`
	ExpectedAmount   float64 `json:"expectedAmount" binding:"gte=0"`
	ActualAmount     float64 `json:"actualAmount" binding:"gte=0"`
	Note             string  `json:"note" binding:"omitempty,max=512"`
}

// Create adds a manual entry. At most one manual entry may exist per
// enrollment per month.
func (h *PassbookHandler) Create(c *gin.Context) {
	var body createEntryRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondBindError(c, errBind)
		return
	}
	date, errParse := time.Parse(dateLayout, body.Date)
	if errParse != nil {
		respondError(c, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}

	entry, errAdd := h.ledger.AddManualEntry(c.Request.Context(), ledger.ManualEntryInput{
		CustomerSchemeID: body.CustomerSchemeID,
		Date:             date,
		ExpectedAmount:   body.ExpectedAmount,
		ActualAmount:     body.ActualAmount,
		Note:             body.Note,
	})
	if errAdd != nil {
		respondLedgerError(c, errAdd)
		return
	}
	respondCreated(c, "Passbook entry created", entry)
}

// generateEntryRequest defines the request body for generating an entry.
type generateEntryRequest struct {
	Date string `json:"date"`
}

// Generate creates a system entry for an enrollment on a date, defaulting to
// today. Actual is the sum of that day's collections.
func (h *PassbookHandler) Generate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondNotFound(c, "Enrollment not found")
		return
	}
	var body generateEntryRequest
	if c.Request.ContentLength > 0 {
		if errBind := c.ShouldBindJSON(&body); errBind != nil {
			respondBindError(c, errBind)
			return
		}
	}

	date := time.Now()
	if body.Date != "" {
		parsed, errParse := time.Parse(dateLayout, body.Date)
		if errParse != nil {
			respondError(c, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		date = parsed
	}

	entry, errGenerate := h.ledger.GenerateEntry(c.Request.Context(), id, date)
	if errGenerate != nil {
		respondLedgerError(c, errGenerate)
		return
	}
	respondCreated(c, "Passbook entry generated", entry)
}

// updateEntryRequest defines the request body for patching a manual entry.
type updateEntryRequest struct {
	ExpectedAmount *float64 `json:"expectedAmount" binding:"omitempty,gte=0"`
	ActualAmount   *float64 `json:"actualAmount" binding:"omitempty,gte=0"`
	Note           *string  `json:"note" binding:"omitempty,max=512"`
}

// Update patches a manual entry. Generated entries are read-only.
func (h *PassbookHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondNotFound(c, "Passbook entry not found")
		return
	}
	var body updateEntryRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondBindError(c, errBind)
		return
	}

	entry, errUpdate := h.ledger.UpdateManualEntry(c.Request.Context(), id, ledger.ManualEntryPatch{
		ExpectedAmount: body.ExpectedAmount,
		ActualAmount:   body.ActualAmount,
		Note:           body.Note,
	})
	if errUpdate != nil {
		respondLedgerError(c, errUpdate)
		return
	}
	respondOK(c, "Passbook entry updated", entry)
}

// Delete removes a manual entry. Generated entries are read-only.
func (h *PassbookHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondNotFound(c, "Passbook entry not found")
		return
	}
	if errDelete := h.ledger.DeleteEntry(c.Request.Context(), id); errDelete != nil {
		respondLedgerError(c, errDelete)
		return
	}
	respondOK(c, "Passbook entry deleted", nil)
}
