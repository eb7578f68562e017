package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timify-bridge/internal/middleware"
	"github.com/noah-isme/timify-bridge/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

func viewerFromContext(c *gin.Context) models.Viewer {
	return claimsFromContext(c).Viewer()
}
