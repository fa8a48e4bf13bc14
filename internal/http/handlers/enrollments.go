package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/chitworks/chitfund-api/internal/ledger"
	"github.com/chitworks/chitfund-api/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// EnrollmentsHandler handles customer enrollment endpoints.
type EnrollmentsHandler struct {
	db     *gorm.DB
	ledger *ledger.Service
}

// NewEnrollmentsHandler constructs an EnrollmentsHandler.
func NewEnrollmentsHandler(db *gorm.DB, ledgerSvc *ledger.Service) *EnrollmentsHandler {
	return &EnrollmentsHandler{db: db, ledger: ledgerSvc}
}

// enrollRequest defines the request body for enrolling a customer.
type enrollRequest struct {
	SchemeID     uint64  `json:"schemeId" binding:"required"`
	AmountPerDay float64 `json:"amountPerDay" binding:"required,gt=0"`
	Duration     int     `json:"duration" binding:"required,gt=0"`
	StartDate    string  `json:"startDate" binding:"required"`
}

// Enroll adds the customer to a scheme. Capacity and duplicate checks run
// inside the ledger transaction.
func (h *EnrollmentsHandler) Enroll(c *gin.Context) {
	customerID, ok := pathID(c)
	if !ok {
		respondNotFound(c, "Customer not found")
		return
	}
	var body enrollRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondBindError(c, errBind)
		return
	}
	startDate, errParse := time.Parse(dateLayout, body.StartDate)
	if errParse != nil {
		respondError(c, http.StatusBadRequest, "Invalid startDate, expected YYYY-MM-DD")
		return
	}

	enrollment, errEnroll := h.ledger.Enroll(c.Request.Context(), ledger.EnrollInput{
		CustomerID:   customerID,
		SchemeID:     body.SchemeID,
		AmountPerDay: body.AmountPerDay,
		Duration:     body.Duration,
		StartDate:    startDate,
	})
	if errEnroll != nil {
		respondLedgerError(c, errEnroll)
		return
	}
	respondCreated(c, "Customer enrolled", enrollment)
}

// ListForCustomer returns a customer's enrollments with scheme detail.
func (h *EnrollmentsHandler) ListForCustomer(c *gin.Context) {
	customerID, ok := pathID(c)
	if !ok {
		respondNotFound(c, "Customer not found")
		return
	}

	var customer models.Customer
	if errFind := h.db.WithContext(c.Request.Context()).First(&customer, customerID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			respondNotFound(c, "Customer not found")
			return
		}
		respondServerError(c, errFind)
		return
	}

	var enrollments []models.CustomerScheme
	if errFind := h.db.WithContext(c.Request.Context()).
		Preload("Scheme").
		Where("customer_id = ?", customerID).
		Order("id ASC").
		Find(&enrollments).Error; errFind != nil {
		respondServerError(c, errFind)
		return
	}
	respondOK(c, "", enrollments)
}

// updateEnrollmentRequest defines the request body for an enrollment patch.
type updateEnrollmentRequest struct {
	Status       *string  `json:"status" binding:"omitempty,oneof=ACTIVE COMPLETED DEFAULTED"`
	AmountPerDay *float64 `json:"amountPerDay" binding:"omitempty,gt=0"`
	Duration     *int     `json:"duration" binding:"omitempty,gt=0"`
}

// Update patches an enrollment's status or contract terms.
func (h *EnrollmentsHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondNotFound(c, "Enrollment not found")
		return
	}
	var body updateEnrollmentRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondBindError(c, errBind)
		return
	}

	var enrollment models.CustomerScheme
	if errFind := h.db.WithContext(c.Request.Context()).First(&enrollment, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			respondNotFound(c, "Enrollment not found")
			return
		}
		respondServerError(c, errFind)
		return
	}

	updates := map[string]any{}
	if body.Status != nil {
		updates["status"] = *body.Status
	}
	if body.AmountPerDay != nil {
		updates["amount_per_day"] = *body.AmountPerDay
	}
	if body.Duration != nil {
		updates["duration"] = *body.Duration
	}
	if len(updates) > 0 {
		if errUpdate := h.db.WithContext(c.Request.Context()).
			Model(&enrollment).
			Updates(updates).Error; errUpdate != nil {
			respondServerError(c, errUpdate)
			return
		}
	}
	respondOK(c, "Enrollment updated", enrollment)
}

// Unenroll removes an enrollment and releases the scheme slot.
func (h *EnrollmentsHandler) Unenroll(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondNotFound(c, "Enrollment not found")
		return
	}
	if errDelete := h.ledger.Unenroll(c.Request.Context(), id); errDelete != nil {
		respondLedgerError(c, errDelete)
		return
	}
	respondOK(c, "Enrollment removed", nil)
}
