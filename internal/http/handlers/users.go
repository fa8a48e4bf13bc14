package handlers

import (
	"errors"

	"github.com/chitworks/chitfund-api/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UsersHandler handles staff administration endpoints.
type UsersHandler struct {
	db *gorm.DB
}

// NewUsersHandler constructs a UsersHandler.
func NewUsersHandler(db *gorm.DB) *UsersHandler {
	return &UsersHandler{db: db}
}

var userSortColumns = map[string]bool{
	"id":         true,
	"username":   true,
	"name":       true,
	"role":       true,
	"created_at": true,
}

// usersListQuery defines query parameters for listing staff.
type usersListQuery struct {
	listQuery
	Role   string `form:"role"`
	Search string `form:"search"`
}

// List returns staff accounts with pagination and filters.
func (h *UsersHandler) List(c *gin.Context) {
	var q usersListQuery
	if errBind := c.ShouldBindQuery(&q); errBind != nil {
		respondBindError(c, errBind)
		return
	}
	q.normalize(userSortColumns, "id")

	query := h.db.WithContext(c.Request.Context()).Model(&models.User{})
	if q.Role != "" {
		query = query.Where("role = ?", q.Role)
	}
	if q.Search != "" {
		like := "%" + q.Search + "%"
		query = query.Where("username LIKE ? OR name LIKE ?", like, like)
	}

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		respondServerError(c, errCount)
		return
	}

	var users []models.User
	if errFind := paginate(query, &q.listQuery).Find(&users).Error; errFind != nil {
		respondServerError(c, errFind)
		return
	}

	items := make([]userView, 0, len(users))
	for i := range users {
		items = append(items, viewUser(&users[i]))
	}
	respondOK(c, "", newPaginated(items, &q.listQuery, total))
}

// setActiveRequest defines the request body for toggling an account.
type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetActive enables or disables a staff account.
func (h *UsersHandler) SetActive(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondNotFound(c, "User not found")
		return
	}

	var body setActiveRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondBindError(c, errBind)
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			respondNotFound(c, "User not found")
			return
		}
		respondServerError(c, errFind)
		return
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).
		Model(&user).
		UpdateColumn("active", *body.Active).Error; errUpdate != nil {
		respondServerError(c, errUpdate)
		return
	}
	user.Active = *body.Active
	respondOK(c, "User updated", viewUser(&user))
}
