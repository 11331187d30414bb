package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/KirillBodin/backend-VideoSDK/config"
	"github.com/KirillBodin/backend-VideoSDK/models"
)

func setupAuthTest(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	config.DB = db
	config.RDB = nil
	config.JwtKey = []byte("test-signing-key")
}

func signToken(t *testing.T, userID uint, role models.Role, ttl time.Duration) string {
	t.Helper()
	claims := &SessionClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(config.JwtKey)
	require.NoError(t, err)
	return signed
}

func actorEcho() (*gin.Engine, *models.Actor) {
	r := gin.New()
	got := &models.Actor{}
	r.GET("/whoami", AuthMiddleware(), func(c *gin.Context) {
		*got = Actor(c)
		c.Status(http.StatusOK)
	})
	return r, got
}

func TestAuthMiddlewareBearerToken(t *testing.T) {
	setupAuthTest(t)
	admin := models.NewAdmin("Dana", "dana@x.com", "hash", "Hilltop")
	require.NoError(t, config.DB.Create(&admin).Error)
	teacher := models.NewTeacher("Tom Smith", "tom@x.com", "hash", admin.ID)
	require.NoError(t, config.DB.Create(&teacher).Error)

	r, got := actorEcho()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, teacher.ID, models.RoleTeacher, time.Hour))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, teacher.ID, got.ID)
	assert.Equal(t, models.RoleTeacher, got.Role)
	// The admin identity is resolved from the DB row, not the token.
	require.NotNil(t, got.AdminID)
	assert.Equal(t, admin.ID, *got.AdminID)
}

func TestAuthMiddlewareCookie(t *testing.T) {
	setupAuthTest(t)
	admin := models.NewAdmin("Dana", "dana@x.com", "hash", "Hilltop")
	require.NoError(t, config.DB.Create(&admin).Error)

	r, got := actorEcho()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: signToken(t, admin.ID, models.RoleAdmin, time.Hour)})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RoleAdmin, got.Role)
	// Admins act under their own admin identity.
	require.NotNil(t, got.AdminID)
	assert.Equal(t, admin.ID, *got.AdminID)
}

func TestAuthMiddlewareRejections(t *testing.T) {
	setupAuthTest(t)
	admin := models.NewAdmin("Dana", "dana@x.com", "hash", "Hilltop")
	require.NoError(t, config.DB.Create(&admin).Error)

	r, _ := actorEcho()

	send := func(header string) int {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusUnauthorized, send(""))
	assert.Equal(t, http.StatusUnauthorized, send("Bearer not-a-token"))
	assert.Equal(t, http.StatusUnauthorized, send("Token "+signToken(t, admin.ID, models.RoleAdmin, time.Hour)))
	assert.Equal(t, http.StatusUnauthorized, send("Bearer "+signToken(t, admin.ID, models.RoleAdmin, -time.Minute)))
	// Token for a user that no longer exists.
	assert.Equal(t, http.StatusUnauthorized, send("Bearer "+signToken(t, 9999, models.RoleAdmin, time.Hour)))
}

func TestRequireRoles(t *testing.T) {
	setupAuthTest(t)

	r := gin.New()
	r.GET("/admin-only",
		func(c *gin.Context) { c.Set("actor", models.Actor{ID: 1, Role: models.RoleTeacher}); c.Next() },
		RequireRoles(models.RoleAdmin, models.RoleSuperadmin),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)
	r.GET("/teacher-ok",
		func(c *gin.Context) { c.Set("actor", models.Actor{ID: 1, Role: models.RoleTeacher}); c.Next() },
		RequireRoles(models.RoleTeacher),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin-only", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/teacher-ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
