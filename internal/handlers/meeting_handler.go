package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/KirillBodin/backend-VideoSDK/config"
	"github.com/KirillBodin/backend-VideoSDK/internal/apperr"
	"github.com/KirillBodin/backend-VideoSDK/models"
)

// SaveMeetingInput binds the payload of the save-meeting upsert. The class
// name is the deduplication key; the host is identified by email, the only
// unique handle a teacher has.
type SaveMeetingInput struct {
	MeetingID    string `json:"meetingId" binding:"required"`
	ClassName    string `json:"className" binding:"required"`
	TeacherEmail string `json:"teacherEmail" binding:"required,email"`
}

// SaveMeetingHandler upserts the meeting session of a class, keyed by class
// name. An existing class keeps its id, slug and owning teacher and gets a
// fresh meeting id and re-derived URL; an unknown class name creates a
// durable row owned by the named teacher.
func SaveMeetingHandler(c *gin.Context) {
	var input SaveMeetingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperr.Validation("Missing required fields: meetingId, className, teacherEmail"))
		return
	}

	var teacher models.User
	err := config.DB.
		Where("email = ? AND role = ?", input.TeacherEmail, models.RoleTeacher).
		First(&teacher).Error
	if err != nil {
		respondError(c, apperr.NotFound("Teacher not found"))
		return
	}

	var cls models.ClassMeeting
	err = config.DB.Where("class_name = ?", input.ClassName).First(&cls).Error
	switch {
	case err == nil:
		// Refresh the session on the existing row. The slug survives so old
		// meeting links keep resolving, and a session refresh never moves
		// the class to another teacher.
		cls.MeetingID = input.MeetingID
		cls.ClassURL = models.BuildClassURL(input.MeetingID, cls.TeacherName, cls.ClassName)
		if err := config.DB.Save(&cls).Error; err != nil {
			respondError(c, apperr.Internal("failed to update meeting", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Meeting updated successfully", "class": cls})
	case err == gorm.ErrRecordNotFound:
		newSlug := uuid.NewString()
		cls = models.ClassMeeting{
			ClassName:   input.ClassName,
			MeetingID:   input.MeetingID,
			TeacherID:   teacher.ID,
			TeacherName: teacher.Name,
			ClassURL:    models.BuildClassURL(input.MeetingID, teacher.Name, input.ClassName),
			Slug:        &newSlug,
		}
		if err := config.DB.Create(&cls).Error; err != nil {
			respondError(c, apperr.Internal("failed to save meeting", err))
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Meeting saved successfully", "class": cls})
	default:
		respondError(c, apperr.Internal("failed to load class", err))
	}
}

// GetMeetingByPathHandler resolves a meeting join link of the form
// /:meetingId/:teacherName/:className against the stored class URL.
func GetMeetingByPathHandler(c *gin.Context) {
	classURL := c.Param("meetingId") + "/" + c.Param("teacherName") + "/" + c.Param("className")

	var cls models.ClassMeeting
	if err := config.DB.Where("class_url = ?", classURL).First(&cls).Error; err != nil {
		respondError(c, apperr.NotFound("Meeting not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"meetingId":   cls.MeetingID,
		"className":   cls.ClassName,
		"teacherName": cls.TeacherName,
		"classUrl":    cls.ClassURL,
	})
}

// GetMeetingByMeetingIDHandler looks a class up by its current external
// session id.
func GetMeetingByMeetingIDHandler(c *gin.Context) {
	var cls models.ClassMeeting
	if err := config.DB.Where("meeting_id = ?", c.Param("meetingId")).First(&cls).Error; err != nil {
		respondError(c, apperr.NotFound("Meeting not found"))
		return
	}
	c.JSON(http.StatusOK, cls)
}

// GetMeetingByClassNameHandler looks a class up by name.
func GetMeetingByClassNameHandler(c *gin.Context) {
	var cls models.ClassMeeting
	if err := config.DB.Where("class_name = ?", c.Param("className")).First(&cls).Error; err != nil {
		respondError(c, apperr.NotFound("Meeting not found"))
		return
	}
	c.JSON(http.StatusOK, cls)
}

type ResetMeetingInput struct {
	ClassName string `json:"className" binding:"required"`
}

// ResetMeetingHandler clears the active session of a class. The row, its
// slug and its roster stay put; only the external session id is dropped.
func ResetMeetingHandler(c *gin.Context) {
	var input ResetMeetingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperr.Validation("className is required"))
		return
	}

	var cls models.ClassMeeting
	if err := config.DB.Where("class_name = ?", input.ClassName).First(&cls).Error; err != nil {
		respondError(c, apperr.NotFound("Meeting not found"))
		return
	}

	cls.MeetingID = ""
	cls.ClassURL = ""
	if err := config.DB.Save(&cls).Error; err != nil {
		respondError(c, apperr.Internal("failed to reset meeting", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Meeting reset successfully", "class": cls})
}

type UserByEmailInput struct {
	Email string `json:"email" binding:"required,email"`
}

// GetUserRoleByEmailHandler tells the meeting lobby whether an email belongs
// to a teacher. Students are looked up through the access check instead.
func GetUserRoleByEmailHandler(c *gin.Context) {
	var input UserByEmailInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperr.Validation("Email is required"))
		return
	}

	var user models.User
	err := config.DB.Where("email = ? AND role = ?", input.Email, models.RoleTeacher).First(&user).Error
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"exists": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": true, "role": user.Role, "name": user.Name})
}
