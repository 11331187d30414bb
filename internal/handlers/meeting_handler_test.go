package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirillBodin/backend-VideoSDK/config"
	"github.com/KirillBodin/backend-VideoSDK/models"
)

func meetingRouter() *gin.Engine {
	r := gin.New()
	r.POST("/savemeeting/new", SaveMeetingHandler)
	r.GET("/meet/:meetingId/:teacherName/:className", GetMeetingByPathHandler)
	r.GET("/savemeeting/by-meetingid/:meetingId", GetMeetingByMeetingIDHandler)
	r.GET("/getmeeting/by-classname/:className", GetMeetingByClassNameHandler)
	r.POST("/meet/reset", ResetMeetingHandler)
	r.POST("/users/by-email", GetUserRoleByEmailHandler)
	return r
}

func TestSaveMeetingUpsertKeepsSlug(t *testing.T) {
	setupTest(t)
	admin := createAdmin(t, "Dana", "dana@x.com")
	createTeacher(t, "Tom Smith", "tom@x.com", admin.ID)
	r := meetingRouter()

	w := performJSON(t, r, http.MethodPost, "/savemeeting/new", gin.H{
		"meetingId": "m-first", "className": "Algebra", "teacherEmail": "tom@x.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var first models.ClassMeeting
	require.NoError(t, config.DB.Where("class_name = ?", "Algebra").First(&first).Error)
	require.NotNil(t, first.Slug)
	assert.Equal(t, "m-first/smith/algebra", first.ClassURL)

	w = performJSON(t, r, http.MethodPost, "/savemeeting/new", gin.H{
		"meetingId": "m-second", "className": "Algebra", "teacherEmail": "tom@x.com",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var second models.ClassMeeting
	require.NoError(t, config.DB.Where("class_name = ?", "Algebra").First(&second).Error)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, *first.Slug, *second.Slug)
	assert.Equal(t, "m-second", second.MeetingID)
	assert.Equal(t, "m-second/smith/algebra", second.ClassURL)

	var rows int64
	config.DB.Model(&models.ClassMeeting{}).Where("class_name = ?", "Algebra").Count(&rows)
	assert.EqualValues(t, 1, rows)
}

func TestSaveMeetingUnknownTeacher(t *testing.T) {
	setupTest(t)
	r := meetingRouter()

	w := performJSON(t, r, http.MethodPost, "/savemeeting/new", gin.H{
		"meetingId": "m1", "className": "Algebra", "teacherEmail": "nobody@x.com",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSaveMeetingResaveKeepsOwningTeacher(t *testing.T) {
	setupTest(t)
	admin := createAdmin(t, "Dana", "dana@x.com")
	tom := createTeacher(t, "Tom Smith", "tom@x.com", admin.ID)
	createTeacher(t, "Mia Jones", "mia@x.com", admin.ID)
	r := meetingRouter()

	w := performJSON(t, r, http.MethodPost, "/savemeeting/new", gin.H{
		"meetingId": "m-first", "className": "Algebra", "teacherEmail": "tom@x.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// A session refresh under another teacher's email must not move the
	// class; only the session id and derived URL change.
	w = performJSON(t, r, http.MethodPost, "/savemeeting/new", gin.H{
		"meetingId": "m-second", "className": "Algebra", "teacherEmail": "mia@x.com",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var cls models.ClassMeeting
	require.NoError(t, config.DB.Where("class_name = ?", "Algebra").First(&cls).Error)
	assert.Equal(t, tom.ID, cls.TeacherID)
	assert.Equal(t, "Tom Smith", cls.TeacherName)
	assert.Equal(t, "m-second", cls.MeetingID)
	assert.Equal(t, "m-second/smith/algebra", cls.ClassURL)
}

func TestGetMeetingByPath(t *testing.T) {
	setupTest(t)
	admin := createAdmin(t, "Dana", "dana@x.com")
	createTeacher(t, "Tom Smith", "tom@x.com", admin.ID)
	r := meetingRouter()

	performJSON(t, r, http.MethodPost, "/savemeeting/new", gin.H{
		"meetingId": "m1", "className": "Algebra 1", "teacherEmail": "tom@x.com",
	})

	w := performJSON(t, r, http.MethodGet, "/meet/m1/smith/algebra-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "m1", body["meetingId"])
	assert.Equal(t, "Algebra 1", body["className"])

	w = performJSON(t, r, http.MethodGet, "/meet/m1/smith/geometry", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMeetingLookups(t *testing.T) {
	setupTest(t)
	admin := createAdmin(t, "Dana", "dana@x.com")
	createTeacher(t, "Tom Smith", "tom@x.com", admin.ID)
	r := meetingRouter()

	performJSON(t, r, http.MethodPost, "/savemeeting/new", gin.H{
		"meetingId": "m1", "className": "Algebra", "teacherEmail": "tom@x.com",
	})

	w := performJSON(t, r, http.MethodGet, "/savemeeting/by-meetingid/m1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Algebra", decodeBody(t, w)["className"])

	w = performJSON(t, r, http.MethodGet, "/getmeeting/by-classname/Algebra", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "m1", decodeBody(t, w)["meetingId"])
}

func TestResetMeetingClearsSessionKeepsRow(t *testing.T) {
	setupTest(t)
	admin := createAdmin(t, "Dana", "dana@x.com")
	createTeacher(t, "Tom Smith", "tom@x.com", admin.ID)
	r := meetingRouter()

	performJSON(t, r, http.MethodPost, "/savemeeting/new", gin.H{
		"meetingId": "m1", "className": "Algebra", "teacherEmail": "tom@x.com",
	})

	w := performJSON(t, r, http.MethodPost, "/meet/reset", gin.H{"className": "Algebra"})
	require.Equal(t, http.StatusOK, w.Code)

	var cls models.ClassMeeting
	require.NoError(t, config.DB.Where("class_name = ?", "Algebra").First(&cls).Error)
	assert.Empty(t, cls.MeetingID)
	assert.NotNil(t, cls.Slug)
}

func TestGetUserRoleByEmail(t *testing.T) {
	setupTest(t)
	admin := createAdmin(t, "Dana", "dana@x.com")
	createTeacher(t, "Tom Smith", "tom@x.com", admin.ID)
	r := meetingRouter()

	w := performJSON(t, r, http.MethodPost, "/users/by-email", gin.H{"email": "tom@x.com"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["exists"])
	assert.Equal(t, "teacher", body["role"])

	// Admins are not meeting hosts; only teacher emails pass the gate.
	w = performJSON(t, r, http.MethodPost, "/users/by-email", gin.H{"email": "dana@x.com"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["exists"])
}
