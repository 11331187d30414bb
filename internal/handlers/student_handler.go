package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/KirillBodin/backend-VideoSDK/config"
	"github.com/KirillBodin/backend-VideoSDK/internal/apperr"
	"github.com/KirillBodin/backend-VideoSDK/internal/middleware"
	"github.com/KirillBodin/backend-VideoSDK/models"
)

type CreateStudentInput struct {
	StudentName  string `json:"studentName" binding:"required"`
	StudentEmail string `json:"studentEmail" binding:"required,email"`
	ClassIDs     []uint `json:"classIds"`
	TeacherIDs   []uint `json:"teacherIds"`
}

// CreateStudentForTeacherInput is the nested-route variant: the advising
// teacher comes from the path, not the body.
type CreateStudentForTeacherInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	ClassIDs []uint `json:"classIds"`
}

type UpdateStudentInput struct {
	StudentName  *string `json:"studentName"`
	StudentEmail *string `json:"studentEmail"`
	ClassIDs     *[]uint `json:"classIds"`
	TeacherIDs   *[]uint `json:"teacherIds"`
}

type CheckAccessInput struct {
	MeetingID string `json:"meetingId"`
	Slug      string `json:"slug"`
	Email     string `json:"email" binding:"required,email"`
}

// ListStudentsHandler returns the students visible to the actor with the
// names of their teachers and classes. A path adminId narrows the scope to
// that admin's school.
func ListStudentsHandler(c *gin.Context) {
	actor := middleware.Actor(c)
	scope, err := scopedAdminID(c, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	query := config.DB.Model(&models.Student{}).
		Preload("Teachers").Preload("Classes").
		Order("students.id asc").Distinct()
	switch {
	case scope != nil:
		query = query.
			Joins("JOIN student_teachers ON student_teachers.student_id = students.id").
			Joins("JOIN users ON users.id = student_teachers.teacher_id").
			Where("users.admin_id = ?", *scope)
	case actor.Role == models.RoleTeacher:
		query = query.
			Joins("JOIN student_teachers ON student_teachers.student_id = students.id").
			Where("student_teachers.teacher_id = ?", actor.ID)
	}

	var students []models.Student
	if err := query.Find(&students).Error; err != nil {
		respondError(c, apperr.Internal("failed to list students", err))
		return
	}

	out := make([]gin.H, 0, len(students))
	for _, s := range students {
		teacherNames := make([]string, 0, len(s.Teachers))
		for _, t := range s.Teachers {
			teacherNames = append(teacherNames, t.Name)
		}
		classNames := make([]string, 0, len(s.Classes))
		for _, cls := range s.Classes {
			classNames = append(classNames, cls.ClassName)
		}
		out = append(out, gin.H{
			"id":           s.ID,
			"name":         s.Name,
			"email":        s.Email,
			"teacherNames": teacherNames,
			"classNames":   classNames,
		})
	}
	c.JSON(http.StatusOK, out)
}

// CreateStudentHandler creates a student with explicit advisor and class
// sets.
func CreateStudentHandler(c *gin.Context) {
	var input CreateStudentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperr.Validation("Missing required fields: studentName, studentEmail"))
		return
	}
	student, err := createStudent(middleware.Actor(c), input.StudentName, input.StudentEmail, input.ClassIDs, input.TeacherIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, student)
}

// CreateStudentForTeacherHandler creates a student advised by the teacher
// named in the path.
func CreateStudentForTeacherHandler(c *gin.Context) {
	teacherID, err := paramID(c, "teacherId")
	if err != nil {
		respondError(c, err)
		return
	}

	var input CreateStudentForTeacherInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperr.Validation("Name and email are required"))
		return
	}

	student, err := createStudent(middleware.Actor(c), input.Name, input.Email, input.ClassIDs, []uint{teacherID})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, student)
}

func createStudent(actor models.Actor, name, email string, classIDs, teacherIDs []uint) (*models.Student, error) {
	// A teacher always ends up in the advisor set of students they create.
	if actor.Role == models.RoleTeacher && !containsID(teacherIDs, actor.ID) {
		teacherIDs = append(teacherIDs, actor.ID)
	}

	taken, err := models.StudentEmailTaken(config.DB, email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Conflict(fmt.Sprintf("Student with email %q already exists", email))
	}

	student := models.Student{Name: name, Email: email}
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		// Every advising teacher must be within the actor's reach before
		// anything is written.
		for _, id := range teacherIDs {
			teacher, err := models.FindTeacher(tx, id)
			if err != nil {
				return err
			}
			if !models.IsAuthorized(actor, models.TeacherOwnership(teacher)) {
				return apperr.Forbidden("You cannot assign students to this teacher")
			}
		}

		if err := tx.Create(&student).Error; err != nil {
			return apperr.Internal("failed to create student", err)
		}
		if len(teacherIDs) > 0 {
			if err := models.ReplaceStudentTeachers(tx, &student, teacherIDs); err != nil {
				return err
			}
		}
		if len(classIDs) > 0 {
			if err := models.ReplaceStudentClasses(tx, &student, classIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// GetStudentDetailsHandler returns the edit-form view of a student: split
// name, email, association id lists and the first advisor's admin name.
func GetStudentDetailsHandler(c *gin.Context) {
	student, err := findStudent(c)
	if err != nil {
		respondError(c, err)
		return
	}

	own, err := models.StudentOwnership(config.DB, student.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !models.IsAuthorized(middleware.Actor(c), own) {
		respondError(c, apperr.Forbidden("Access denied"))
		return
	}

	var classIDs []uint
	if err := config.DB.Model(&models.ClassStudent{}).
		Where("student_id = ?", student.ID).Pluck("class_id", &classIDs).Error; err != nil {
		respondError(c, apperr.Internal("failed to list classes", err))
		return
	}
	var teacherIDs []uint
	if err := config.DB.Model(&models.StudentTeacher{}).
		Where("student_id = ?", student.ID).Pluck("teacher_id", &teacherIDs).Error; err != nil {
		respondError(c, apperr.Internal("failed to list teachers", err))
		return
	}

	adminName := ""
	if len(teacherIDs) > 0 {
		var teacher models.User
		if err := config.DB.Preload("Admin").First(&teacher, teacherIDs[0]).Error; err == nil && teacher.Admin != nil {
			adminName = teacher.Admin.Name
		}
	}

	firstName, lastName := splitName(student.Name)
	c.JSON(http.StatusOK, gin.H{
		"id":         student.ID,
		"firstName":  firstName,
		"lastName":   lastName,
		"email":      student.Email,
		"classIds":   classIDs,
		"teacherIds": teacherIDs,
		"adminName":  adminName,
	})
}

// UpdateStudentHandler applies a partial update; classIds and teacherIds,
// when present, fully replace the corresponding association sets.
func UpdateStudentHandler(c *gin.Context) {
	student, err := findStudent(c)
	if err != nil {
		respondError(c, err)
		return
	}

	own, err := models.StudentOwnership(config.DB, student.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !models.IsAuthorized(middleware.Actor(c), own) {
		respondError(c, apperr.Forbidden("Access denied"))
		return
	}

	var input UpdateStudentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperr.Validation("invalid request body"))
		return
	}

	if input.StudentEmail != nil {
		taken, err := models.StudentEmailTaken(config.DB, *input.StudentEmail, student.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		if taken {
			respondError(c, apperr.Conflict(fmt.Sprintf("Student with email %q already exists", *input.StudentEmail)))
			return
		}
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if input.StudentName != nil && *input.StudentName != "" {
			student.Name = *input.StudentName
		}
		if input.StudentEmail != nil {
			student.Email = *input.StudentEmail
		}
		if err := tx.Save(student).Error; err != nil {
			return apperr.Internal("failed to update student", err)
		}
		if input.ClassIDs != nil {
			if err := models.ReplaceStudentClasses(tx, student, *input.ClassIDs); err != nil {
				return err
			}
		}
		if input.TeacherIDs != nil {
			if err := models.ReplaceStudentTeachers(tx, student, *input.TeacherIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Student updated successfully", "student": student})
}

// DeleteStudentHandler removes the student and both association sets.
func DeleteStudentHandler(c *gin.Context) {
	student, err := findStudent(c)
	if err != nil {
		respondError(c, err)
		return
	}

	own, err := models.StudentOwnership(config.DB, student.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !models.IsAuthorized(middleware.Actor(c), own) {
		respondError(c, apperr.Forbidden("Access denied"))
		return
	}

	if err := models.DeleteStudentCascade(config.DB, student.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Student deleted successfully"})
}

// CheckStudentAccessHandler reports whether a student is enrolled in the
// class identified by a meeting id or slug. Public: the meeting lobby calls
// it before anyone is logged in.
func CheckStudentAccessHandler(c *gin.Context) {
	var input CheckAccessInput
	if err := c.ShouldBindJSON(&input); err != nil || (input.MeetingID == "" && input.Slug == "") {
		respondError(c, apperr.Validation("Missing meetingId or email"))
		return
	}

	var cls models.ClassMeeting
	query := config.DB
	if input.MeetingID != "" {
		query = query.Where("meeting_id = ?", input.MeetingID)
	} else {
		query = query.Where("slug = ?", input.Slug)
	}
	if err := query.First(&cls).Error; err != nil {
		respondError(c, apperr.NotFound("Lesson not found"))
		return
	}

	var student models.Student
	if err := config.DB.Where("email = ?", input.Email).First(&student).Error; err != nil {
		respondError(c, apperr.NotFound("Student not found"))
		return
	}

	var enrolled int64
	err := config.DB.Model(&models.ClassStudent{}).
		Where("class_id = ? AND student_id = ?", cls.ID, student.ID).
		Count(&enrolled).Error
	if err != nil {
		respondError(c, apperr.Internal("failed to check enrollment", err))
		return
	}

	if enrolled == 0 {
		c.JSON(http.StatusOK, gin.H{"access": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": true, "meetingId": cls.MeetingID})
}

func findStudent(c *gin.Context) (*models.Student, error) {
	name := "studentId"
	if c.Param(name) == "" {
		name = "id"
	}
	id, err := paramID(c, name)
	if err != nil {
		return nil, err
	}

	var student models.Student
	if err := config.DB.First(&student, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("Student not found")
		}
		return nil, apperr.Internal("failed to load student", err)
	}
	return &student, nil
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
