package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/chitworks/chitfund-api/internal/ledger"
	"github.com/chitworks/chitfund-api/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// dateLayout is the wire format for date fields.
const dateLayout = "2006-01-02"

// SchemesHandler handles chit scheme endpoints.
type SchemesHandler struct {
	db     *gorm.DB
	ledger *ledger.Service
}

// NewSchemesHandler constructs a SchemesHandler.
func NewSchemesHandler(db *gorm.DB, ledgerSvc *ledger.Service) *SchemesHandler {
	return &SchemesHandler{db: db, ledger: ledgerSvc}
}

var schemeSortColumns = map[string]bool{
	"id":          true,
	"name":        true,
	"total_value": true,
	"start_date":  true,
	"end_date":    true,
	"status":      true,
	"created_at":  true,
}

// createSchemeRequest defines the request body for creating a scheme.
type createSchemeRequest struct {
	Name            string   `json:"name" binding:"required,max=128"`
	TotalValue      float64  `json:"totalValue" binding:"required,gt=0"`
	Duration        int      `json:"duration" binding:"required,gt=0"`
	DurationType    string   `json:"durationType" binding:"omitempty,oneof=DAYS MONTHS"`
	Frequency       string   `json:"frequency" binding:"omitempty,oneof=DAILY MONTHLY"`
	AmountPerPeriod float64  `json:"amountPerPeriod" binding:"required,gt=0"`
	NumberOfMembers int      `json:"numberOfMembers" binding:"required,gt=0"`
	StartDate       string   `json:"startDate" binding:"required"`
	CommissionRate  *float64 `json:"commissionRate" binding:"omitempty,gte=0,lte=1"`
	PenaltyRate     *float64 `json:"penaltyRate" binding:"omitempty,gte=0,lte=1"`
	MinBid          *float64 `json:"minBid" binding:"omitempty,gte=0"`
	MaxBid          *float64 `json:"maxBid" binding:"omitempty,gte=0"`
}

// Create adds a scheme. The end date derives from the start date and duration.
func (h *SchemesHandler) Create(c *gin.Context) {
	var body createSchemeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondBindError(c, errBind)
		return
	}
	startDate, errParse := time.Parse(dateLayout, body.StartDate)
	if errParse != nil {
		respondError(c, http.StatusBadRequest, "Invalid startDate, expected YYYY-MM-DD")
		return
	}

	scheme := models.ChitScheme{
		Name:            strings.TrimSpace(body.Name),
		TotalValue:      body.TotalValue,
		Duration:        body.Duration,
		DurationType:    body.DurationType,
		Frequency:       body.Frequency,
		AmountPerPeriod: body.AmountPerPeriod,
		NumberOfMembers: body.NumberOfMembers,
		StartDate:       startDate,
		Status:          models.SchemeActive,
		CommissionRate:  body.CommissionRate,
		PenaltyRate:     body.PenaltyRate,
		MinBid:          body.MinBid,
		MaxBid:          body.MaxBid,
	}
	if scheme.DurationType == "" {
		scheme.DurationType = models.DurationDays
	}
	if scheme.Frequency == "" {
		scheme.Frequency = models.FrequencyDaily
	}
	scheme.EndDate = scheme.ComputeEndDate()

	if errCreate := h.db.WithContext(c.Request.Context()).Create(&scheme).Error; errCreate != nil {
		respondServerError(c, errCreate)
		return
	}
	respondCreated(c, "Scheme created", scheme)
}

// schemesListQuery defines query parameters for listing schemes.
type schemesListQuery struct {
	listQuery
	Status string `form:"status"`
	Search string `form:"search"`
}

// List returns schemes with pagination and filters.
func (h *SchemesHandler) List(c *gin.Context) {
	var q schemesListQuery
	if errBind := c.ShouldBindQuery(&q); errBind != nil {
		respondBindError(c, errBind)
		return
	}
	q.normalize(schemeSortColumns, "id")

	query := h.db.WithContext(c.Request.Context()).Model(&models.ChitScheme{})
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.Search != "" {
		query = query.Where("name LIKE ?", "%"+q.Search+"%")
	}

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		respondServerError(c, errCount)
		return
	}
	var schemes []models.ChitScheme
	if errFind := paginate(query, &q.listQuery).Find(&schemes).Error; errFind != nil {
		respondServerError(c, errFind)
		return
	}
	respondOK(c, "", newPaginated(schemes, &q.listQuery, total))
}

// Get returns one scheme by id.
func (h *SchemesHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondNotFound(c, "Scheme not found")
		return
	}
	var scheme models.ChitScheme
	if errFind := h.db.WithContext(c.Request.Context()).First(&scheme, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			respondNotFound(c, "Scheme not found")
			return
		}
		respondServerError(c, errFind)
		return
	}
	respondOK(c, "", scheme)
}

// updateSchemeRequest defines the request body for patching a scheme.
type updateSchemeRequest struct {
	Name            *string  `json:"name" binding:"omitempty,max=128"`
	TotalValue      *float64 `json:"totalValue" binding:"omitempty,gt=0"`
	Duration        *int     `json:"duration" binding:"omitempty,gt=0"`
	DurationType    *string  `json:"durationType" binding:"omitempty,oneof=DAYS MONTHS"`
	Frequency       *string  `json:"frequency" binding:"omitempty,oneof=DAILY MONTHLY"`
	AmountPerPeriod *float64 `json:"amountPerPeriod" binding:"omitempty,gt=0"`
	NumberOfMembers *int     `json:"numberOfMembers" binding:"omitempty,gt=0"`
	StartDate       *string  `json:"startDate"`
	Status          *string  `json:"status" binding:"omitempty,oneof=ACTIVE PAUSED COMPLETED"`
	CommissionRate  *float64 `json:"commissionRate" binding:"omitempty,gte=0,lte=1"`
	PenaltyRate     *float64 `json:"penaltyRate" binding:"omitempty,gte=0,lte=1"`
	MinBid          *float64 `json:"minBid" binding:"omitempty,gte=0"`
	MaxBid          *float64 `json:"maxBid" binding:"omitempty,gte=0"`
}

// Update patches a scheme. Changing the start date, duration, or duration
// type recomputes the end date.
func (h *SchemesHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondNotFound(c, "Scheme not found")
		return
	}
	var body updateSchemeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondBindError(c, errBind)
		return
	}

	var scheme models.ChitScheme
	if errFind := h.db.WithContext(c.Request.Context()).First(&scheme, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			respondNotFound(c, "Scheme not found")
			return
		}
		respondServerError(c, errFind)
		return
	}

	if body.Name != nil {
		scheme.Name = strings.TrimSpace(*body.Name)
	}
	if body.TotalValue != nil {
		scheme.TotalValue = *body.TotalValue
	}
	if body.Duration != nil {
		scheme.Duration = *body.Duration
	}
	if body.DurationType != nil {
		scheme.DurationType = *body.DurationType
	}
	if body.Frequency != nil {
		scheme.Frequency = *body.Frequency
	}
	if body.AmountPerPeriod != nil {
		scheme.AmountPerPeriod = *body.AmountPerPeriod
	}
	if body.NumberOfMembers != nil {
		if *body.NumberOfMembers < scheme.MembersEnrolled {
			respondError(c, http.StatusBadRequest, "Capacity cannot drop below current enrollment")
			return
		}
		scheme.NumberOfMembers = *body.NumberOfMembers
	}
	if body.StartDate != nil {
		startDate, errParse := time.Parse(dateLayout, *body.StartDate)
		if errParse != nil {
			respondError(c, http.StatusBadRequest, "Invalid startDate, expected YYYY-MM-DD")
			return
		}
		scheme.StartDate = startDate
	}
	if body.Status != nil {
		scheme.Status = *body.Status
	}
	if body.CommissionRate != nil {
		scheme.CommissionRate = body.CommissionRate
	}
	if body.PenaltyRate != nil {
		scheme.PenaltyRate = body.PenaltyRate
	}
	if body.MinBid != nil {
		scheme.MinBid = body.MinBid
	}
	if body.MaxBid != nil {
		scheme.MaxBid = body.MaxBid
	}
	scheme.EndDate = scheme.ComputeEndDate()

	if errSave := h.db.WithContext(c.Request.Context()).Save(&scheme).Error; errSave != nil {
		respondServerError(c, errSave)
		return
	}
	respondOK(c, "Scheme updated", scheme)
}

// Delete removes a scheme with its enrollments, collections, passbook
// entries, and auctions.
func (h *SchemesHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondNotFound(c, "Scheme not found")
		return
	}
	if errDelete := h.ledger.DeleteScheme(c.Request.Context(), id); errDelete != nil {
		respondLedgerError(c, errDelete)
		return
	}
	respondOK(c, "Scheme deleted", nil)
}

// enrolledCustomer is one member row of a scheme's customer list.
type enrolledCustomer struct {
	EnrollmentID uint64  `json:"enrollmentId"`
	CustomerID   uint64  `json:"customerId"`
	Name         string  `json:"name"`
	Mobile       string  `json:"mobile"`
	AmountPerDay float64 `json:"amountPerDay"`
	Duration     int     `json:"duration"`
	Balance      float64 `json:"balance"`
	Status       string  `json:"status"`
}

// Customers returns the members enrolled in a scheme.
func (h *SchemesHandler) Customers(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondNotFound(c, "Scheme not found")
		return
	}

	var scheme models.ChitScheme
	if errFind := h.db.WithContext(c.Request.Context()).First(&scheme, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			respondNotFound(c, "Scheme not found")
			return
		}
		respondServerError(c, errFind)
		return
	}

	var enrollments []models.CustomerScheme
	if errFind := h.db.WithContext(c.Request.Context()).
		Preload("Customer").
		Where("scheme_id = ?", id).
		Order("id ASC").
		Find(&enrollments).Error; errFind != nil {
		respondServerError(c, errFind)
		return
	}

	members := make([]enrolledCustomer, 0, len(enrollments))
	for i := range enrollments {
		e := &enrollments[i]
		member := enrolledCustomer{
			EnrollmentID: e.ID,
			CustomerID:   e.CustomerID,
			AmountPerDay: e.AmountPerDay,
			Duration:     e.Duration,
			Balance:      e.Balance,
			Status:       e.Status,
		}
		if e.Customer != nil {
			member.Name = e.Customer.Name
			member.Mobile = e.Customer.Mobile
		}
		members = append(members, member)
	}
	respondOK(c, "", gin.H{"scheme": scheme, "customers": members})
}
