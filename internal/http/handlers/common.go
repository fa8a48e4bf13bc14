package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// getUserID extracts the authenticated user ID from gin context.
func getUserID(c *gin.Context) uint64 {
	val, exists := c.Get("userID")
	if !exists {
		return 0
	}
	switch v := val.(type) {
	case uint64:
		return v
	case int64:
		return uint64(v)
	case uint:
		return uint64(v)
	case int:
		return uint64(v)
	default:
		return 0
	}
}

// getUserRole extracts the authenticated user's role from gin context.
func getUserRole(c *gin.Context) string {
	val, exists := c.Get("userRole")
	if !exists {
		return ""
	}
	role, _ := val.(string)
	return role
}

// pathID parses the :id path parameter.
func pathID(c *gin.Context) (uint64, bool) {
	id, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil || id == 0 {
		return 0, false
	}
	return id, true
}
