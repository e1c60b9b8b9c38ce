package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/uok-ict/portal-api/internal/middleware"
	"github.com/uok-ict/portal-api/internal/models"
)

// currentClaims returns the authenticated principal, if any.
func currentClaims(c *gin.Context) (*models.JWTClaims, bool) {
	return middleware.CurrentClaims(c)
}
