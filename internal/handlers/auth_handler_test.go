package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirillBodin/backend-VideoSDK/config"
	"github.com/KirillBodin/backend-VideoSDK/internal/middleware"
	"github.com/KirillBodin/backend-VideoSDK/models"
)

func authRouter() *gin.Engine {
	r := gin.New()
	r.POST("/register", RegisterHandler)
	r.POST("/auth/login", LoginHandler)
	return r
}

func TestRegisterAndDuplicateEmail(t *testing.T) {
	setupTest(t)
	r := authRouter()

	w := performJSON(t, r, http.MethodPost, "/register", gin.H{
		"name": "Dana Lee", "email": "dana@x.com", "password": "secret",
		"role": "admin", "schoolName": "Hilltop",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// The hash never leaks into the response.
	assert.NotContains(t, w.Body.String(), "secret")
	assert.NotContains(t, w.Body.String(), "password")

	w = performJSON(t, r, http.MethodPost, "/register", gin.H{
		"name": "Other Dana", "email": "dana@x.com", "password": "secret",
		"role": "admin", "schoolName": "Other",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	var rows int64
	config.DB.Model(&models.User{}).Where("email = ?", "dana@x.com").Count(&rows)
	assert.EqualValues(t, 1, rows)
}

func TestRegisterTeacherRequiresAdmin(t *testing.T) {
	setupTest(t)
	r := authRouter()

	w := performJSON(t, r, http.MethodPost, "/register", gin.H{
		"name": "Tom Smith", "email": "tom@x.com", "password": "secret", "role": "teacher",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	admin := createAdmin(t, "Dana", "dana@x.com")
	w = performJSON(t, r, http.MethodPost, "/register", gin.H{
		"name": "Tom Smith", "email": "tom@x.com", "password": "secret",
		"role": "teacher", "adminId": admin.ID,
	})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestLoginIssuesRoleClaims(t *testing.T) {
	setupTest(t)
	admin := createAdmin(t, "Dana", "dana@x.com")
	teacher := createTeacher(t, "Tom Smith", "tom@x.com", admin.ID)
	r := authRouter()

	w := performJSON(t, r, http.MethodPost, "/auth/login", gin.H{
		"email": "tom@x.com", "password": "secret",
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "teacher", body["role"])
	assert.Equal(t, "Tom_Smith", body["name"])

	tokenStr, ok := body["token"].(string)
	require.True(t, ok)

	claims := &middleware.SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return config.JwtKey, nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	assert.Equal(t, teacher.ID, claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
	require.NotNil(t, claims.TeacherID)
	assert.Equal(t, teacher.ID, *claims.TeacherID)
	require.NotNil(t, claims.AdminID)
	assert.Equal(t, admin.ID, *claims.AdminID)
}

func TestLoginAdminClaims(t *testing.T) {
	setupTest(t)
	admin := createAdmin(t, "Dana", "dana@x.com")
	r := authRouter()

	w := performJSON(t, r, http.MethodPost, "/auth/login", gin.H{
		"email": "dana@x.com", "password": "secret",
	})
	require.Equal(t, http.StatusOK, w.Code)

	claims := &middleware.SessionClaims{}
	_, err := jwt.ParseWithClaims(decodeBody(t, w)["token"].(string), claims, func(*jwt.Token) (interface{}, error) {
		return config.JwtKey, nil
	})
	require.NoError(t, err)

	assert.Nil(t, claims.TeacherID)
	require.NotNil(t, claims.AdminID)
	assert.Equal(t, admin.ID, *claims.AdminID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	setupTest(t)
	createAdmin(t, "Dana", "dana@x.com")
	r := authRouter()

	w := performJSON(t, r, http.MethodPost, "/auth/login", gin.H{
		"email": "dana@x.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = performJSON(t, r, http.MethodPost, "/auth/login", gin.H{
		"email": "nobody@x.com", "password": "secret",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
