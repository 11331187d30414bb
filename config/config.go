package config

import (
	"log/slog"
	"os"
)

// JwtKey signs session tokens issued by login and the Google callback.
var JwtKey []byte

// VideoSDKAPIKey and VideoSDKSecret sign short-lived tokens for the external
// video-conferencing service. They are opaque to this backend.
var (
	VideoSDKAPIKey string
	VideoSDKSecret []byte
)

// ClientURL is where browser flows (Google callback, logout) are redirected.
var ClientURL string

// LoadSettings reads required settings from the environment. Missing required
// values are fatal: a server without a JWT key cannot authenticate anyone.
func LoadSettings() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		slog.Error("JWT_SECRET environment variable is not set")
		os.Exit(1)
	}
	JwtKey = []byte(secret)

	VideoSDKAPIKey = os.Getenv("VIDEOSDK_API_KEY")
	VideoSDKSecret = []byte(os.Getenv("VIDEOSDK_SECRET_KEY"))
	if VideoSDKAPIKey == "" {
		slog.Warn("VIDEOSDK_API_KEY is not set, /get-token will be unavailable")
	}

	ClientURL = os.Getenv("CLIENT_URL")
	if ClientURL == "" {
		ClientURL = "http://localhost:3000"
	}
}
