package handlers

import (
	"errors"
	"net/http"
	"strings"

	dbutil "github.com/chitworks/chitfund-api/internal/db"
	"github.com/chitworks/chitfund-api/internal/ledger"
	"github.com/chitworks/chitfund-api/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CustomersHandler handles customer endpoints.
type CustomersHandler struct {
	db     *gorm.DB
	ledger *ledger.Service
}

// NewCustomersHandler constructs a CustomersHandler.
func NewCustomersHandler(db *gorm.DB, ledgerSvc *ledger.Service) *CustomersHandler {
	return &CustomersHandler{db: db, ledger: ledgerSvc}
}

var customerSortColumns = map[string]bool{
	"id":         true,
	"name":       true,
	"mobile":     true,
	"created_at": true,
}

// createCustomerRequest defines the request body for creating a customer.
type createCustomerRequest struct {
	Name       string `json:"name" binding:"required,max=128"`
	Mobile     string `json:"mobile" binding:"required,min=10,max=15"`
	Address    string `json:"address" binding:"omitempty,max=512"`
	Occupation string `json:"occupation" binding:"omitempty,max=128"`
	Remarks    string `json:"remarks" binding:"omitempty,max=512"`
}

// Create adds a customer. Mobile numbers are unique.
func (h *CustomersHandler) Create(c *gin.Context) {
	var body createCustomerRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondBindError(c, errBind)
		return
	}

	mobile := strings.TrimSpace(body.Mobile)
	var existing int64
	if errCount := h.db.WithContext(c.Request.Context()).
		Model(&models.Customer{}).
		Where("mobile = ?", mobile).
		Count(&existing).Error; errCount != nil {
		respondServerError(c, errCount)
		return
	}
	if existing > 0 {
		respondError(c, http.StatusBadRequest, "Mobile number already registered")
		return
	}

	customer := models.Customer{
		Name:       strings.TrimSpace(body.Name),
		Mobile:     mobile,
		Address:    strings.TrimSpace(body.Address),
		Occupation: strings.TrimSpace(body.Occupation),
		Remarks:    strings.TrimSpace(body.Remarks),
		Active:     true,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&customer).Error; errCreate != nil {
		respondServerError(c, errCreate)
		return
	}
	respondCreated(c, "Customer created", customer)
}

// customersListQuery defines query parameters for listing customers.
type customersListQuery struct {
	listQuery
	Active *bool  `form:"active"`
	Search string `form:"search"`
}

// List returns customers with pagination and a case-insensitive substring
// search over name, mobile, and remarks.
func (h *CustomersHandler) List(c *gin.Context) {
	var q customersListQuery
	if errBind := c.ShouldBindQuery(&q); errBind != nil {
		respondBindError(c, errBind)
		return
	}
	q.normalize(customerSortColumns, "id")

	query := h.db.WithContext(c.Request.Context()).Model(&models.Customer{})
	if q.Active != nil {
		query = query.Where("active = ?", *q.Active)
	}
	if q.Search != "" {
		pattern := "%" + dbutil.NormalizeLikePattern(h.db, q.Search) + "%"
		expr := dbutil.CaseInsensitiveLikeExpr(h.db, "name") + " OR " +
			dbutil.CaseInsensitiveLikeExpr(h.db, "mobile") + " OR " +
			dbutil.CaseInsensitiveLikeExpr(h.db, "remarks")
		query = query.Where(expr, pattern, pattern, pattern)
	}

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		respondServerError(c, errCount)
		return
	}
	var customers []models.Customer
	if errFind := paginate(query, &q.listQuery).Find(&customers).Error; errFind != nil {
		respondServerError(c, errFind)
		return
	}
	respondOK(c, "", newPaginated(customers, &q.listQuery, total))
}

// Get returns one customer with their enrollments.
func (h *CustomersHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondNotFound(c, "Customer not found")
		return
	}
	var customer models.Customer
	if errFind := h.db.WithContext(c.Request.Context()).
		Preload("Enrollments.Scheme").
		First(&customer, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			respondNotFound(c, "Customer not found")
			return
		}
		respondServerError(c, errFind)
		return
	}
	respondOK(c, "", customer)
}

// updateCustomerRequest defines the request body for patching a customer.
type updateCustomerRequest struct {
	Name       *string `json:"name" binding:"omitempty,max=128"`
	Mobile     *string `json:"mobile" binding:"omitempty,min=10,max=15"`
	Address    *string `json:"address" binding:"omitempty,max=512"`
	Occupation *string `json:"occupation" binding:"omitempty,max=128"`
	Remarks    *string `json:"remarks" binding:"omitempty,max=512"`
	Active     *bool   `json:"active"`
}

// Update patches a customer.
func (h *CustomersHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondNotFound(c, "Customer not found")
		return
	}
	var body updateCustomerRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondBindError(c, errBind)
		return
	}

	var customer models.Customer
	if errFind := h.db.WithContext(c.Request.Context()).First(&customer, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			respondNotFound(c, "Customer not found")
			return
		}
		respondServerError(c, errFind)
		return
	}

	updates := map[string]any{}
	if body.Name != nil {
		updates["name"] = strings.TrimSpace(*body.Name)
	}
	if body.Mobile != nil {
		mobile := strings.TrimSpace(*body.Mobile)
		var taken int64
		if errCount := h.db.WithContext(c.Request.Context()).
			Model(&models.Customer{}).
			Where("mobile = ? AND id <> ?", mobile, id).
			Count(&taken).Error; errCount != nil {
			respondServerError(c, errCount)
			return
		}
		if taken > 0 {
			respondError(c, http.StatusBadRequest, "Mobile number already registered")
			return
		}
		updates["mobile"] = mobile
	}
	if body.Address != nil {
		updates["address"] = strings.TrimSpace(*body.Address)
	}
	if body.Occupation != nil {
		updates["occupation"] = strings.TrimSpace(*body.Occupation)
	}
	if body.Remarks != nil {
		updates["remarks"] = strings.TrimSpace(*body.Remarks)
	}
	if body.Active != nil {
		updates["active"] = *body.Active
	}
	if len(updates) > 0 {
		if errUpdate := h.db.WithContext(c.Request.Context()).
			Model(&customer).
			Updates(updates).Error; errUpdate != nil {
			respondServerError(c, errUpdate)
			return
		}
	}
	respondOK(c, "Customer updated", customer)
}

// Delete removes a customer with their collections, enrollments, and
// passbook entries, releasing scheme slots.
func (h *CustomersHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondNotFound(c, "Customer not found")
		return
	}
	if errDelete := h.ledger.DeleteCustomer(c.Request.Context(), id); errDelete != nil {
		respondLedgerError(c, errDelete)
		return
	}
	respondOK(c, "Customer deleted", nil)
}
