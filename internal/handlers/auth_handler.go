package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	"github.com/KirillBodin/backend-VideoSDK/config"
	"github.com/KirillBodin/backend-VideoSDK/internal/apperr"
	"github.com/KirillBodin/backend-VideoSDK/internal/middleware"
	"github.com/KirillBodin/backend-VideoSDK/models"
)

const sessionTTL = time.Hour

// RegisterInput creates a login-capable account. Teachers must name their
// owning admin; school name is meaningful for admins only.
type RegisterInput struct {
	Name       string      `json:"name" binding:"required"`
	Email      string      `json:"email" binding:"required,email"`
	Password   string      `json:"password" binding:"required"`
	Role       models.Role `json:"role" binding:"required"`
	SchoolName string      `json:"schoolName"`
	AdminID    *uint       `json:"adminId"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterHandler creates a user with a bcrypt-hashed credential.
func RegisterHandler(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperr.Validation("Email, password, name and role are required"))
		return
	}

	taken, err := models.UserEmailTaken(config.DB, input.Email, 0)
	if err != nil {
		respondError(c, err)
		return
	}
	if taken {
		respondError(c, apperr.Conflict("User already exists"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, apperr.Internal("failed to hash password", err))
		return
	}

	var user models.User
	switch input.Role {
	case models.RoleSuperadmin:
		user = models.NewSuperadmin(input.Name, input.Email, string(hashed))
	case models.RoleAdmin:
		user = models.NewAdmin(input.Name, input.Email, string(hashed), input.SchoolName)
	case models.RoleTeacher:
		if input.AdminID == nil {
			respondError(c, apperr.Validation("a teacher must belong to an admin"))
			return
		}
		if _, err := findAdmin(*input.AdminID); err != nil {
			respondError(c, err)
			return
		}
		user = models.NewTeacher(input.Name, input.Email, string(hashed), *input.AdminID)
	default:
		respondError(c, apperr.Validation("role must be superadmin, admin or teacher"))
		return
	}

	if err := user.Validate(); err != nil {
		respondError(c, err)
		return
	}
	if err := config.DB.Create(&user).Error; err != nil {
		respondError(c, apperr.Internal("failed to create user", err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": user})
}

// LoginHandler verifies credentials and issues a session token carrying
// {id, role, teacherId?, adminId?}.
func LoginHandler(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperr.Validation("Email and password are required"))
		return
	}

	var user models.User
	if err := config.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		respondError(c, apperr.Unauthenticated("Invalid credentials"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		respondError(c, apperr.Unauthenticated("Invalid credentials"))
		return
	}

	token, claims, err := issueSessionToken(&user)
	if err != nil {
		respondError(c, apperr.Internal("failed to sign session token", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Login successful",
		"token":     token,
		"role":      user.Role,
		"teacherId": claims.TeacherID,
		"adminId":   claims.AdminID,
		"name":      strings.ReplaceAll(user.Name, " ", "_"),
	})
}

func issueSessionToken(user *models.User) (string, *middleware.SessionClaims, error) {
	claims := &middleware.SessionClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	switch user.Role {
	case models.RoleTeacher:
		id := user.ID
		claims.TeacherID = &id
		claims.AdminID = user.AdminID
	case models.RoleAdmin, models.RoleSuperadmin:
		id := user.ID
		claims.AdminID = &id
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(config.JwtKey)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// GetGoogleAuthURLHandler returns the Google consent URL.
func GetGoogleAuthURLHandler(c *gin.Context) {
	if config.GoogleOAuth == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google login is not configured"})
		return
	}
	authURL := config.GoogleOAuth.AuthCodeURL("state",
		oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	c.JSON(http.StatusOK, gin.H{"authUrl": authURL})
}

// GoogleCallbackHandler exchanges the authorization code, matches the Google
// profile against an existing user and issues the same session credential as
// password login. There is no self-provisioning through Google.
func GoogleCallbackHandler(c *gin.Context) {
	if config.GoogleOAuth == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google login is not configured"})
		return
	}

	code := c.Query("code")
	if code == "" {
		respondError(c, apperr.Validation("Authorization code is missing"))
		return
	}

	token, err := config.GoogleOAuth.Exchange(c.Request.Context(), code)
	if err != nil {
		slog.Error("Google code exchange failed", "error", err)
		respondError(c, apperr.Unauthenticated("Google authentication failed"))
		return
	}

	profile, err := fetchGoogleProfile(c, token)
	if err != nil {
		slog.Error("Google profile fetch failed", "error", err)
		respondError(c, apperr.Unauthenticated("Google authentication failed"))
		return
	}

	var user models.User
	if err := config.DB.Where("email = ?", profile.Email).First(&user).Error; err != nil {
		respondError(c, apperr.Unauthenticated("No account for this Google identity"))
		return
	}

	signed, _, err := issueSessionToken(&user)
	if err != nil {
		respondError(c, apperr.Internal("failed to sign session token", err))
		return
	}

	c.SetCookie("auth_token", signed, int(sessionTTL.Seconds()), "/", "", true, true)
	c.Redirect(http.StatusFound, config.ClientURL+"?token="+signed)
}

type googleProfile struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func fetchGoogleProfile(c *gin.Context, token *oauth2.Token) (*googleProfile, error) {
	client := config.GoogleOAuth.Client(c.Request.Context(), token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var profile googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// VerifySessionHandler checks the session cookie and echoes its claims.
func VerifySessionHandler(c *gin.Context) {
	tokenStr, err := c.Cookie("auth_token")
	if err != nil || tokenStr == "" {
		respondError(c, apperr.Unauthenticated("Unauthorized"))
		return
	}

	claims := &middleware.SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return config.JwtKey, nil
	})
	if err != nil || !token.Valid {
		respondError(c, apperr.Unauthenticated("Invalid session"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": claims})
}

// LogoutHandler clears the session cookie.
func LogoutHandler(c *gin.Context) {
	c.SetCookie("auth_token", "", -1, "/", "", true, true)
	c.Redirect(http.StatusFound, config.ClientURL)
}

func findAdmin(id uint) (*models.User, error) {
	var admin models.User
	err := config.DB.Where("id = ? AND role = ?", id, models.RoleAdmin).First(&admin).Error
	if err != nil {
		return nil, apperr.Validation("owning admin does not exist")
	}
	return &admin, nil
}
