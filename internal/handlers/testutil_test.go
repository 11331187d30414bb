package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/KirillBodin/backend-VideoSDK/config"
	"github.com/KirillBodin/backend-VideoSDK/models"
)

// setupTest swaps the global DB for an in-memory one and sets test signing
// keys. Redis stays nil, so every auth path falls through to the DB.
func setupTest(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Student{}, &models.ClassMeeting{},
		&models.StudentTeacher{}, &models.ClassStudent{},
	))

	config.DB = db
	config.RDB = nil
	config.JwtKey = []byte("test-signing-key")
	config.VideoSDKAPIKey = "videosdk-api-key"
	config.VideoSDKSecret = []byte("videosdk-secret")
	config.ClientURL = "http://localhost:3000"
}

// asActor injects an authenticated actor the way the auth middleware would.
func asActor(actor models.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("actor", actor)
		c.Next()
	}
}

func superadminActor() models.Actor {
	return models.Actor{ID: 1000, Role: models.RoleSuperadmin}
}

func performJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func createAdmin(t *testing.T, name, email string) models.User {
	t.Helper()
	admin := models.NewAdmin(name, email, hashPassword(t, "secret"), name+" School")
	require.NoError(t, config.DB.Create(&admin).Error)
	return admin
}

func createTeacher(t *testing.T, name, email string, adminID uint) models.User {
	t.Helper()
	teacher := models.NewTeacher(name, email, hashPassword(t, "secret"), adminID)
	require.NoError(t, config.DB.Create(&teacher).Error)
	return teacher
}

func createStudentRow(t *testing.T, name, email string, teacherIDs ...uint) models.Student {
	t.Helper()
	student := models.Student{Name: name, Email: email}
	require.NoError(t, config.DB.Create(&student).Error)
	for _, id := range teacherIDs {
		require.NoError(t, config.DB.Create(&models.StudentTeacher{StudentID: student.ID, TeacherID: id}).Error)
	}
	return student
}

func hashPassword(t *testing.T, plain string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hashed)
}
