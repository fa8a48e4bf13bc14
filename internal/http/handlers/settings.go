package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/chitworks/chitfund-api/internal/settings"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SettingsHandler handles operator configuration endpoints.
type SettingsHandler struct {
	db *gorm.DB
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{db: db}
}

// Get returns the current settings snapshot.
func (h *SettingsHandler) Get(c *gin.Context) {
	if errRefresh := settings.Refresh(c.Request.Context(), h.db); errRefresh != nil {
		respondServerError(c, errRefresh)
		return
	}
	respondOK(c, "", gin.H{
		"defaultCommissionRate": settings.DefaultCommissionRate(),
		"updatedAt":             settings.UpdatedAt(),
	})
}

// updateSettingsRequest defines the request body for settings updates. Keys
// map to raw JSON values.
type updateSettingsRequest map[string]json.RawMessage

// Update upserts the given setting keys.
func (h *SettingsHandler) Update(c *gin.Context) {
	var body updateSettingsRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondBindError(c, errBind)
		return
	}
	if len(body) == 0 {
		respondError(c, http.StatusBadRequest, "No settings given")
		return
	}

	for key, value := range body {
		if errSet := settings.Set(c.Request.Context(), h.db, key, value); errSet != nil {
			respondServerError(c, errSet)
			return
		}
	}
	respondOK(c, "Settings updated", gin.H{"updatedAt": settings.UpdatedAt()})
}
