package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/civiceye/civiceye-api/internal/middleware"
	"github.com/civiceye/civiceye-api/internal/models"
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

// positiveIntQuery parses a query parameter into a positive integer,
// falling back to the default on garbage or non-positive input rather than
// failing the request.
func positiveIntQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
