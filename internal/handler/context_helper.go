package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/tunecraft/tunecraft-api/internal/middleware"
	"github.com/tunecraft/tunecraft-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func roleFromContext(c *gin.Context) models.UserRole {
	value, exists := c.Get(middleware.ContextRoleKey)
	if !exists {
		return ""
	}
	role, ok := value.(models.UserRole)
	if !ok {
		return ""
	}
	return role
}
