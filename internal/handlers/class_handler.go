package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/KirillBodin/backend-VideoSDK/config"
	"github.com/KirillBodin/backend-VideoSDK/internal/apperr"
	"github.com/KirillBodin/backend-VideoSDK/internal/middleware"
	"github.com/KirillBodin/backend-VideoSDK/models"
)

type CreateClassInput struct {
	ClassName    string `json:"className" binding:"required"`
	TeacherID    *uint  `json:"teacherId"`
	TeacherEmail string `json:"teacherEmail"`
	MeetingID    string `json:"meetingId"`
	StudentIDs   []uint `json:"studentIds"`
}

type UpdateClassInput struct {
	ClassName  *string `json:"className"`
	TeacherID  *uint   `json:"teacherId"`
	MeetingID  *string `json:"meetingId"`
	StudentIDs *[]uint `json:"studentIds"`
}

// ClassResponse enriches a class row with its roster size.
type ClassResponse struct {
	models.ClassMeeting
	NumberOfStudents int64 `json:"numberOfStudents"`
}

// ListClassesHandler returns the classes visible to the actor, each with its
// roster size. A path adminId narrows the scope to that admin's school.
func ListClassesHandler(c *gin.Context) {
	actor := middleware.Actor(c)
	scope, err := scopedAdminID(c, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	query := config.DB.Model(&models.ClassMeeting{}).Order("class_meetings.id asc")
	switch {
	case scope != nil:
		query = query.
			Joins("JOIN users ON users.id = class_meetings.teacher_id").
			Where("users.admin_id = ?", *scope)
	case actor.Role == models.RoleTeacher:
		query = query.Where("class_meetings.teacher_id = ?", actor.ID)
	}

	var classes []models.ClassMeeting
	if err := query.Find(&classes).Error; err != nil {
		respondError(c, apperr.Internal("failed to list classes", err))
		return
	}

	responses := make([]ClassResponse, 0, len(classes))
	for _, cls := range classes {
		var count int64
		if err := config.DB.Model(&models.ClassStudent{}).
			Where("class_id = ?", cls.ID).Count(&count).Error; err != nil {
			respondError(c, apperr.Internal("failed to count roster", err))
			return
		}
		responses = append(responses, ClassResponse{ClassMeeting: cls, NumberOfStudents: count})
	}
	c.JSON(http.StatusOK, responses)
}

// CreateClassHandler creates a class owned by a teacher, derives its meeting
// URL and optionally enrolls a roster, all in one transaction.
func CreateClassHandler(c *gin.Context) {
	var input CreateClassInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperr.Validation("Missing required fields: className, teacherId"))
		return
	}

	teacher, err := resolveClassTeacher(&input)
	if err != nil {
		respondError(c, err)
		return
	}
	if !models.IsAuthorized(middleware.Actor(c), models.TeacherOwnership(teacher)) {
		respondError(c, apperr.Forbidden("Access denied"))
		return
	}

	meetingID := input.MeetingID
	if meetingID == "" {
		meetingID = newMeetingID()
	}
	newSlug := uuid.NewString()
	cls := models.ClassMeeting{
		ClassName:   input.ClassName,
		MeetingID:   meetingID,
		TeacherID:   teacher.ID,
		TeacherName: teacher.Name,
		ClassURL:    models.BuildClassURL(meetingID, teacher.Name, input.ClassName),
		Slug:        &newSlug,
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&cls).Error; err != nil {
			return apperr.Internal("failed to create class", err)
		}
		if len(input.StudentIDs) > 0 {
			return models.ReplaceClassStudents(tx, &cls, input.StudentIDs)
		}
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, cls)
}

// GetClassDetailsHandler returns the detail view: class name, owning teacher
// and enrolled student ids.
func GetClassDetailsHandler(c *gin.Context) {
	cls, err := findClass(c)
	if err != nil {
		respondError(c, err)
		return
	}

	own, err := models.ClassOwnership(config.DB, cls)
	if err != nil {
		respondError(c, err)
		return
	}
	if !models.IsAuthorized(middleware.Actor(c), own) {
		respondError(c, apperr.Forbidden("Access denied"))
		return
	}

	var studentIDs []uint
	if err := config.DB.Model(&models.ClassStudent{}).
		Where("class_id = ?", cls.ID).Pluck("student_id", &studentIDs).Error; err != nil {
		respondError(c, apperr.Internal("failed to list roster", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"className":  cls.ClassName,
		"teacherId":  cls.TeacherID,
		"studentIds": studentIDs,
	})
}

// UpdateClassHandler applies a partial update. Renaming or reassigning the
// class recomputes the derived URL but keeps id and slug; studentIds, when
// present, fully replace the roster.
func UpdateClassHandler(c *gin.Context) {
	cls, err := findClass(c)
	if err != nil {
		respondError(c, err)
		return
	}

	own, err := models.ClassOwnership(config.DB, cls)
	if err != nil {
		respondError(c, err)
		return
	}
	if !models.IsAuthorized(middleware.Actor(c), own) {
		respondError(c, apperr.Forbidden("Access denied"))
		return
	}

	var input UpdateClassInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperr.Validation("invalid request body"))
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		rederive := false
		if input.ClassName != nil && *input.ClassName != "" {
			cls.ClassName = *input.ClassName
			rederive = true
		}
		if input.TeacherID != nil {
			teacher, err := models.FindTeacher(tx, *input.TeacherID)
			if err != nil {
				return err
			}
			cls.TeacherID = teacher.ID
			cls.TeacherName = teacher.Name
			rederive = true
		}
		if input.MeetingID != nil && *input.MeetingID != "" {
			cls.MeetingID = *input.MeetingID
		}
		if rederive {
			cls.ClassURL = models.BuildClassURL(cls.MeetingID, cls.TeacherName, cls.ClassName)
		}
		if err := tx.Save(cls).Error; err != nil {
			return apperr.Internal("failed to update class", err)
		}
		if input.StudentIDs != nil {
			return models.ReplaceClassStudents(tx, cls, *input.StudentIDs)
		}
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Class updated successfully", "class": cls})
}

// DeleteClassHandler clears the roster and deletes the class.
func DeleteClassHandler(c *gin.Context) {
	cls, err := findClass(c)
	if err != nil {
		respondError(c, err)
		return
	}

	own, err := models.ClassOwnership(config.DB, cls)
	if err != nil {
		respondError(c, err)
		return
	}
	if !models.IsAuthorized(middleware.Actor(c), own) {
		respondError(c, apperr.Forbidden("Access denied"))
		return
	}

	if err := models.DeleteClassCascade(config.DB, cls.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Lesson and student associations deleted successfully"})
}

// GetStudentsByLessonHandler returns the roster of one class.
func GetStudentsByLessonHandler(c *gin.Context) {
	cls, err := findClass(c)
	if err != nil {
		respondError(c, err)
		return
	}

	own, err := models.ClassOwnership(config.DB, cls)
	if err != nil {
		respondError(c, err)
		return
	}
	if !models.IsAuthorized(middleware.Actor(c), own) {
		respondError(c, apperr.Forbidden("Access denied"))
		return
	}

	var students []models.Student
	err = config.DB.
		Joins("JOIN class_students ON class_students.student_id = students.id").
		Where("class_students.class_id = ?", cls.ID).
		Find(&students).Error
	if err != nil {
		respondError(c, apperr.Internal("failed to list roster", err))
		return
	}
	c.JSON(http.StatusOK, students)
}

// GetTeacherByLessonHandler returns the owning teacher of one class.
func GetTeacherByLessonHandler(c *gin.Context) {
	cls, err := findClass(c)
	if err != nil {
		respondError(c, err)
		return
	}

	own, err := models.ClassOwnership(config.DB, cls)
	if err != nil {
		respondError(c, err)
		return
	}
	if !models.IsAuthorized(middleware.Actor(c), own) {
		respondError(c, apperr.Forbidden("Access denied"))
		return
	}

	var teacher models.User
	if err := config.DB.First(&teacher, cls.TeacherID).Error; err != nil {
		respondError(c, apperr.NotFound("Lesson or teacher not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": teacher.ID, "name": teacher.Name, "email": teacher.Email})
}

func findClass(c *gin.Context) (*models.ClassMeeting, error) {
	name := "lessonId"
	if c.Param(name) == "" {
		name = "id"
	}
	id, err := paramID(c, name)
	if err != nil {
		return nil, err
	}

	var cls models.ClassMeeting
	if err := config.DB.First(&cls, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("Class not found")
		}
		return nil, apperr.Internal("failed to load class", err)
	}
	return &cls, nil
}

func resolveClassTeacher(input *CreateClassInput) (*models.User, error) {
	if input.TeacherID != nil {
		return models.FindTeacher(config.DB, *input.TeacherID)
	}
	if input.TeacherEmail != "" {
		var teacher models.User
		err := config.DB.
			Where("email = ? AND role = ?", input.TeacherEmail, models.RoleTeacher).
			First(&teacher).Error
		if err != nil {
			return nil, apperr.NotFound("Teacher not found")
		}
		return &teacher, nil
	}
	return nil, apperr.Validation("Missing required fields: className, teacherId")
}

// newMeetingID makes a short external-session id, the same shape the video
// provider hands out.
func newMeetingID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}
