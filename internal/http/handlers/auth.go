package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/chitworks/chitfund-api/internal/config"
	"github.com/chitworks/chitfund-api/internal/models"
	"github.com/chitworks/chitfund-api/internal/security"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthHandler handles registration, login, and profile endpoints.
type AuthHandler struct {
	db     *gorm.DB
	jwtCfg config.JWTConfig
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, jwtCfg config.JWTConfig) *AuthHandler {
	return &AuthHandler{db: db, jwtCfg: jwtCfg}
}

// userView is the user payload returned by auth and user endpoints. The
// password hash never leaves the server.
type userView struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Mobile   string `json:"mobile,omitempty"`
	Role     string `json:"role"`
	Active   bool   `json:"active"`
}

func viewUser(u *models.User) userView {
	return userView{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Email:    u.Email,
		Mobile:   u.Mobile,
		Role:     u.Role,
		Active:   u.Active,
	}
}

// registerRequest defines the request body for staff registration.
type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"required,max=128"`
	Email    string `json:"email" binding:"omitempty,email"`
	Mobile   string `json:"mobile" binding:"omitempty,max=20"`
	Role     string `json:"role" binding:"omitempty,oneof=ADMIN AGENT COLLECTOR"`
}

// Register creates a staff account. The role defaults to COLLECTOR.
func (h *AuthHandler) Register(c *gin.Context) {
	var body registerRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondBindError(c, errBind)
		return
	}

	username := strings.ToLower(strings.TrimSpace(body.Username))
	role := body.Role
	if role == "" {
		role = models.RoleCollector
	}

	var existing int64
	if errCount := h.db.WithContext(c.Request.Context()).
		Model(&models.User{}).
		Where("username = ?", username).
		Count(&existing).Error; errCount != nil {
		respondServerError(c, errCount)
		return
	}
	if existing > 0 {
		respondError(c, http.StatusBadRequest, "Username already taken")
		return
	}

	hash, errHash := security.HashPassword(body.Password)
	if errHash != nil {
		respondServerError(c, errHash)
		return
	}

	user := models.User{
		Username: username,
		Password: hash,
		Name:     strings.TrimSpace(body.Name),
		Email:    strings.TrimSpace(body.Email),
		Mobile:   strings.TrimSpace(body.Mobile),
		Role:     role,
		Active:   true,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&user).Error; errCreate != nil {
		respondServerError(c, errCreate)
		return
	}

	respondCreated(c, "User registered", viewUser(&user))
}

// loginRequest defines the request body for login.
type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and issues a JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondBindError(c, errBind)
		return
	}

	username := strings.ToLower(strings.TrimSpace(body.Username))

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("username = ?", username).
		First(&user).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		respondServerError(c, errFind)
		return
	}
	if !user.Active {
		respondError(c, http.StatusForbidden, "Account is disabled")
		return
	}
	if !security.CheckPassword(user.Password, body.Password) {
		respondError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, errToken := security.GenerateToken(h.jwtCfg.Secret, user.ID, user.Username, user.Role, h.jwtCfg.Expiry())
	if errToken != nil {
		respondServerError(c, errToken)
		return
	}

	respondOK(c, "Login successful", gin.H{
		"token": token,
		"user":  viewUser(&user),
	})
}

// Profile returns the authenticated user's account.
func (h *AuthHandler) Profile(c *gin.Context) {
	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, getUserID(c)).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			respondNotFound(c, "User not found")
			return
		}
		respondServerError(c, errFind)
		return
	}
	respondOK(c, "", viewUser(&user))
}

// updateProfileRequest defines the request body for profile updates.
type updateProfileRequest struct {
	Name   *string `json:"name" binding:"omitempty,max=128"`
	Email  *string `json:"email" binding:"omitempty,email"`
	Mobile *string `json:"mobile" binding:"omitempty,max=20"`
}

// UpdateProfile patches the authenticated user's contact details.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var body updateProfileRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondBindError(c, errBind)
		return
	}

	updates := map[string]any{}
	if body.Name != nil {
		updates["name"] = strings.TrimSpace(*body.Name)
	}
	if body.Email != nil {
		updates["email"] = strings.TrimSpace(*body.Email)
	}
	if body.Mobile != nil {
		updates["mobile"] = strings.TrimSpace(*body.Mobile)
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, getUserID(c)).Error; errFind != nil {
		respondServerError(c, errFind)
		return
	}
	if len(updates) > 0 {
		if errUpdate := h.db.WithContext(c.Request.Context()).Model(&user).Updates(updates).Error; errUpdate != nil {
			respondServerError(c, errUpdate)
			return
		}
	}
	respondOK(c, "Profile updated", viewUser(&user))
}

// changePasswordRequest defines the request body for password changes.
type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8,max=72"`
}

// ChangePassword verifies the old password and stores a new hash.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var body changePasswordRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondBindError(c, errBind)
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, getUserID(c)).Error; errFind != nil {
		respondServerError(c, errFind)
		return
	}
	if !security.CheckPassword(user.Password, body.OldPassword) {
		respondError(c, http.StatusUnauthorized, "Old password incorrect")
		return
	}

	hash, errHash := security.HashPassword(body.NewPassword)
	if errHash != nil {
		respondServerError(c, errHash)
		return
	}
	if errUpdate := h.db.WithContext(c.Request.Context()).
		Model(&user).
		UpdateColumn("password", hash).Error; errUpdate != nil {
		respondServerError(c, errUpdate)
		return
	}
	respondOK(c, "Password changed", nil)
}
