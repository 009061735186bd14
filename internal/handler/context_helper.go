package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-ipcrf-api/internal/middleware"
	"github.com/noah-isme/sma-ipcrf-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

func actorID(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil {
		return claims.UserID
	}
	return ""
}

func requestMeta(c *gin.Context) models.LoginRequest {
	return models.LoginRequest{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}

// pageParams reads page and page_size (or limit); invalid values fall back to
// the service defaults.
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	sizeRaw := c.Query("page_size")
	if sizeRaw == "" {
		sizeRaw = c.DefaultQuery("limit", "20")
	}
	size, _ := strconv.Atoi(sizeRaw)
	return page, size
}
