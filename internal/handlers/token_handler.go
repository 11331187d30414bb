package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/KirillBodin/backend-VideoSDK/config"
	"github.com/KirillBodin/backend-VideoSDK/internal/apperr"
)

const videoTokenTTL = 2 * time.Hour

// GetVideoTokenHandler signs a short-lived credential for the external video
// provider. Everyone who reaches a meeting page gets the same grants; room
// access is enforced by the enrollment check, not here.
func GetVideoTokenHandler(c *gin.Context) {
	if config.VideoSDKAPIKey == "" || len(config.VideoSDKSecret) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Video provider is not configured"})
		return
	}

	claims := jwt.MapClaims{
		"apikey":      config.VideoSDKAPIKey,
		"permissions": []string{"allow_join", "allow_mod"},
		"iat":         time.Now().Unix(),
		"exp":         time.Now().Add(videoTokenTTL).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString(config.VideoSDKSecret)
	if err != nil {
		respondError(c, apperr.Internal("failed to sign video token", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": signed})
}
