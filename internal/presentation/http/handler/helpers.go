package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dafteam/facturation-api/internal/domain/enum"
)

// GetUserID extracts the authenticated user ID from the Gin context
func GetUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	userID, ok := value.(uint)
	return userID, ok
}

// GetUserRole extracts the authenticated user role from the Gin context
func GetUserRole(c *gin.Context) (enum.Role, bool) {
	value, exists := c.Get("user_role")
	if !exists {
		return "", false
	}
	role, ok := value.(enum.Role)
	return role, ok
}

// parseIDParam parses a numeric path parameter
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}
