package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/chitworks/chitfund-api/internal/cache"
	"github.com/chitworks/chitfund-api/internal/ledger"
	"github.com/chitworks/chitfund-api/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CollectionsHandler handles payment collection endpoints.
type CollectionsHandler struct {
	db     *gorm.DB
	ledger *ledger.Service
	cache  *cache.ReportCache
}

// NewCollectionsHandler constructs a CollectionsHandler.
func NewCollectionsHandler(db *gorm.DB, ledgerSvc *ledger.Service, reportCache *cache.ReportCache) *CollectionsHandler {
	return &CollectionsHandler{db: db, ledger: ledgerSvc, cache: reportCache}
}

var collectionSortColumns = map[string]bool{
	"id":          true,
	"date":        true,
	"amount_paid": true,
	"created_at":  true,
}

// createCollectionRequest defines the request body for recording a payment.
type createCollectionRequest struct {
	CustomerID       uint64  `json:"customerId" binding:"required"`
	CustomerSchemeID *uint64 `json:"customerSchemeId"`
	Date             string  `json:"date" binding:"required"`
	AmountPaid       float64 `json:"amountPaid" binding:"required,gt=0"`
	BalanceRemaining float64 `json:"balanceRemaining" binding:"gte=0"`
	PaymentMethod    string  `json:"paymentMethod" binding:"omitempty,oneof=CASH UPI BANK CHEQUE"`
	Remarks          string  `json:"remarks" binding:"omitempty,max=512"`
}

// Create records a payment. The recording collector is taken from the
// authenticated user. The enrollment balance is overwritten with the
// caller-supplied remaining balance.
func (h *CollectionsHandler) Create(c *gin.Context) {
	var body createCollectionRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondBindError(c, errBind)
		return
	}
	date, errParse := time.Parse(dateLayout, body.Date)
	if errParse != nil {
		respondError(c, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}

	method := body.PaymentMethod
	if method == "" {
		method = models.PaymentCash
	}
	var collectorID *uint64
	if userID := getUserID(c); userID != 0 {
		collectorID = &userID
	}

	collection, errRecord := h.ledger.RecordCollection(c.Request.Context(), ledger.CollectionInput{
		CustomerID:       body.CustomerID,
		CustomerSchemeID: body.CustomerSchemeID,
		CollectorID:      collectorID,
		Date:             date,
		AmountPaid:       body.AmountPaid,
		BalanceRemaining: body.BalanceRemaining,
		PaymentMethod:    method,
		Remarks:          body.Remarks,
	})
	if errRecord != nil {
		respondLedgerError(c, errRecord)
		return
	}
	h.cache.Invalidate(c.Request.Context(), schemePerformanceCacheKey)
	respondCreated(c, "Collection recorded", collection)
}

// collectionsListQuery defines query parameters for listing collections.
type collectionsListQuery struct {
	listQuery
	CustomerID    uint64 `form:"customerId"`
	CollectorID   uint64 `form:"collectorId"`
	SchemeID      uint64 `form:"schemeId"`
	PaymentMethod string `form:"paymentMethod"`
	StartDate     string `form:"startDate"`
	EndDate       string `form:"endDate"`
}

// List returns collections with pagination and filters.
func (h *CollectionsHandler) List(c *gin.Context) {
	var q collectionsListQuery
	if errBind := c.ShouldBindQuery(&q); errBind != nil {
		respondBindError(c, errBind)
		return
	}
	q.normalize(collectionSortColumns, "date")

	query := h.db.WithContext(c.Request.Context()).Model(&models.Collection{})
	if q.CustomerID != 0 {
		query = query.Where("customer_id = ?", q.CustomerID)
	}
	if q.CollectorID != 0 {
		query = query.Where("collector_id = ?", q.CollectorID)
	}
	if q.SchemeID != 0 {
		query = query.Where("customer_scheme_id IN (?)",
			h.db.Model(&models.CustomerScheme{}).Select("id").Where("scheme_id = ?", q.SchemeID))
	}
	if q.PaymentMethod != "" {
		query = query.Where("payment_method = ?", q.PaymentMethod)
	}
	if q.StartDate != "" {
		if start, errParse := time.Parse(dateLayout, q.StartDate); errParse == nil {
			query = query.Where("date >= ?", start)
		}
	}
	if q.EndDate != "" {
		if end, errParse := time.Parse(dateLayout, q.EndDate); errParse == nil {
			query = query.Where("date < ?", end.AddDate(0, 0, 1))
		}
	}

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		respondServerError(c, errCount)
		return
	}
	var collections []models.Collection
	if errFind := paginate(query, &q.listQuery).
		Preload("Customer").
		Find(&collections).Error; errFind != nil {
		respondServerError(c, errFind)
		return
	}
	respondOK(c, "", newPaginated(collections, &q.listQuery, total))
}

// Get returns one collection with customer and enrollment detail.
func (h *CollectionsHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondNotFound(c, "Collection not found")
		return
	}
	var collection models.Collection
	if errFind := h.db.WithContext(c.Request.Context()).
		Preload("Customer").
		Preload("Enrollment.Scheme").
		First(&collection, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			respondNotFound(c, "Collection not found")
			return
		}
		respondServerError(c, errFind)
		return
	}
	respondOK(c, "", collection)
}

// updateCollectionRequest defines the request body for patching a collection.
type updateCollectionRequest struct {
	Date             *string  `json:"date"`
	AmountPaid       *float64 `json:"amountPaid" binding:"omitempty,gt=0"`
	BalanceRemaining *float64 `json:"balanceRemaining" binding:"omitempty,gte=0"`
	PaymentMethod    *string  `json:"paymentMethod" binding:"omitempty,oneof=CASH UPI BANK CHEQUE"`
	Remarks          *string  `json:"remarks" binding:"omitempty,max=512"`
}

// Update patches a collection. A new remaining balance overwrites the
// enrollment balance.
func (h *CollectionsHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondNotFound(c, "Collection not found")
		return
	}
	var body updateCollectionRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondBindError(c, errBind)
		return
	}

	patch := ledger.CollectionPatch{
		AmountPaid:       body.AmountPaid,
		BalanceRemaining: body.BalanceRemaining,
		PaymentMethod:    body.PaymentMethod,
		Remarks:          body.Remarks,
	}
	if body.Date != nil {
		date, errParse := time.Parse(dateLayout, *body.Date)
		if errParse != nil {
			respondError(c, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		patch.Date = &date
	}

	collection, errUpdate := h.ledger.UpdateCollection(c.Request.Context(), id, patch)
	if errUpdate != nil {
		respondLedgerError(c, errUpdate)
		return
	}
	h.cache.Invalidate(c.Request.Context(), schemePerformanceCacheKey)
	respondOK(c, "Collection updated", collection)
}

// Delete removes a collection and restores the enrollment balance.
func (h *CollectionsHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondNotFound(c, "Collection not found")
		return
	}
	if errDelete := h.ledger.DeleteCollection(c.Request.Context(), id); errDelete != nil {
		respondLedgerError(c, errDelete)
		return
	}
	h.cache.Invalidate(c.Request.Context(), schemePerformanceCacheKey)
	respondOK(c, "Collection deleted", nil)
}
