package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/KirillBodin/backend-VideoSDK/config"
	"github.com/KirillBodin/backend-VideoSDK/internal/apperr"
	"github.com/KirillBodin/backend-VideoSDK/internal/middleware"
	"github.com/KirillBodin/backend-VideoSDK/models"
)

type CreateTeacherInput struct {
	TeacherName     string `json:"teacherName" binding:"required"`
	TeacherEmail    string `json:"teacherEmail" binding:"required,email"`
	TeacherPassword string `json:"teacherPassword" binding:"required"`
	AdminID         *uint  `json:"adminId"`
	ClassIDs        []uint `json:"classIds"`
	StudentIDs      []uint `json:"studentIds"`
}

type UpdateTeacherInput struct {
	TeacherName     *string `json:"teacherName"`
	TeacherEmail    *string `json:"teacherEmail"`
	TeacherPassword *string `json:"teacherPassword"`
	AdminID         *uint   `json:"adminId"`
	ClassIDs        *[]uint `json:"classIds"`
	StudentIDs      *[]uint `json:"studentIds"`
}

// TeacherResponse enriches a teacher row with class and student counts.
type TeacherResponse struct {
	models.User
	NumberOfClasses  int64 `json:"numberOfClasses"`
	NumberOfStudents int64 `json:"numberOfStudents"`
}

func teacherWithCounts(t models.User) (TeacherResponse, error) {
	resp := TeacherResponse{User: t}
	if err := config.DB.Model(&models.ClassMeeting{}).
		Where("teacher_id = ?", t.ID).Count(&resp.NumberOfClasses).Error; err != nil {
		return resp, apperr.Internal("failed to count classes", err)
	}
	if err := config.DB.Model(&models.StudentTeacher{}).
		Where("teacher_id = ?", t.ID).Count(&resp.NumberOfStudents).Error; err != nil {
		return resp, apperr.Internal("failed to count students", err)
	}
	return resp, nil
}

// ListTeachersHandler returns the teachers visible to the actor: all of them
// for superadmins, the owned ones for admins, the actor itself for teachers.
// A path adminId narrows the scope to that admin's school.
func ListTeachersHandler(c *gin.Context) {
	actor := middleware.Actor(c)
	scope, err := scopedAdminID(c, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	query := config.DB.Where("role = ?", models.RoleTeacher).Order("id asc")
	switch {
	case scope != nil:
		query = query.Where("admin_id = ?", *scope)
	case actor.Role == models.RoleTeacher:
		query = query.Where("id = ?", actor.ID)
	}

	var teachers []models.User
	if err := query.Find(&teachers).Error; err != nil {
		respondError(c, apperr.Internal("failed to list teachers", err))
		return
	}

	responses := make([]TeacherResponse, 0, len(teachers))
	for _, t := range teachers {
		resp, err := teacherWithCounts(t)
		if err != nil {
			respondError(c, err)
			return
		}
		responses = append(responses, resp)
	}
	c.JSON(http.StatusOK, responses)
}

// GetTeacherHandler returns one teacher with counts.
func GetTeacherHandler(c *gin.Context) {
	id, err := paramID(c, "teacherId")
	if err != nil {
		respondError(c, err)
		return
	}

	teacher, err := models.FindTeacher(config.DB, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !models.IsAuthorized(middleware.Actor(c), models.TeacherOwnership(teacher)) {
		respondError(c, apperr.Forbidden("Access denied"))
		return
	}

	resp, err := teacherWithCounts(*teacher)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetTeacherDetailsHandler returns the denormalized detail view used by edit
// forms: split name plus associated class and student id lists.
func GetTeacherDetailsHandler(c *gin.Context) {
	id, err := paramID(c, "teacherId")
	if err != nil {
		respondError(c, err)
		return
	}

	teacher, err := models.FindTeacher(config.DB, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !models.IsAuthorized(middleware.Actor(c), models.TeacherOwnership(teacher)) {
		respondError(c, apperr.Forbidden("Access denied"))
		return
	}

	var classIDs []uint
	if err := config.DB.Model(&models.ClassMeeting{}).
		Where("teacher_id = ?", id).Pluck("id", &classIDs).Error; err != nil {
		respondError(c, apperr.Internal("failed to list classes", err))
		return
	}
	var studentIDs []uint
	if err := config.DB.Model(&models.StudentTeacher{}).
		Where("teacher_id = ?", id).Pluck("student_id", &studentIDs).Error; err != nil {
		respondError(c, apperr.Internal("failed to list students", err))
		return
	}

	firstName, lastName := splitName(teacher.Name)
	c.JSON(http.StatusOK, gin.H{
		"id":         teacher.ID,
		"firstName":  firstName,
		"lastName":   lastName,
		"email":      teacher.Email,
		"adminId":    teacher.AdminID,
		"classIds":   classIDs,
		"studentIds": studentIDs,
	})
}

// CreateTeacherHandler creates a teacher under an admin, optionally taking
// ownership of classes and an advisor set, all in one transaction.
func CreateTeacherHandler(c *gin.Context) {
	actor := middleware.Actor(c)
	if actor.Role != models.RoleAdmin && actor.Role != models.RoleSuperadmin {
		respondError(c, apperr.Forbidden("Only admin or superadmin can create teachers"))
		return
	}

	var input CreateTeacherInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperr.Validation("Missing required fields: teacherName, teacherEmail, teacherPassword"))
		return
	}

	adminID, err := resolveOwningAdmin(c, actor, input.AdminID)
	if err != nil {
		respondError(c, err)
		return
	}

	taken, err := models.UserEmailTaken(config.DB, input.TeacherEmail, 0)
	if err != nil {
		respondError(c, err)
		return
	}
	if taken {
		respondError(c, apperr.Conflict(fmt.Sprintf("Email %q already exists", input.TeacherEmail)))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.TeacherPassword), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, apperr.Internal("failed to hash password", err))
		return
	}

	teacher := models.NewTeacher(input.TeacherName, input.TeacherEmail, string(hashed), adminID)
	if err := teacher.Validate(); err != nil {
		respondError(c, err)
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&teacher).Error; err != nil {
			return apperr.Internal("failed to create teacher", err)
		}
		if len(input.ClassIDs) > 0 {
			if err := assignLessonsTx(tx, &teacher, input.ClassIDs); err != nil {
				return err
			}
		}
		if len(input.StudentIDs) > 0 {
			students, err := loadStudents(tx, input.StudentIDs)
			if err != nil {
				return err
			}
			if err := tx.Model(&teacher).Association("Students").Replace(students); err != nil {
				return apperr.Internal("failed to assign students", err)
			}
		}
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, teacher)
}

// UpdateTeacherHandler applies a partial update. classIds and studentIds,
// when present, fully replace the teacher's lessons and advisees.
func UpdateTeacherHandler(c *gin.Context) {
	id, err := paramID(c, "teacherId")
	if err != nil {
		respondError(c, err)
		return
	}

	teacher, err := models.FindTeacher(config.DB, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !models.IsAuthorized(middleware.Actor(c), models.TeacherOwnership(teacher)) {
		respondError(c, apperr.Forbidden("Access denied"))
		return
	}

	var input UpdateTeacherInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperr.Validation("invalid request body"))
		return
	}

	if input.TeacherEmail != nil {
		taken, err := models.UserEmailTaken(config.DB, *input.TeacherEmail, teacher.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		if taken {
			respondError(c, apperr.Conflict(fmt.Sprintf("Teacher with email %q already exists", *input.TeacherEmail)))
			return
		}
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		nameChanged := false
		if input.TeacherName != nil && *input.TeacherName != "" {
			teacher.Name = *input.TeacherName
			nameChanged = true
		}
		if input.TeacherEmail != nil {
			teacher.Email = *input.TeacherEmail
		}
		if input.AdminID != nil {
			if err := adminExistsTx(tx, *input.AdminID); err != nil {
				return err
			}
			teacher.AdminID = input.AdminID
		}
		if input.TeacherPassword != nil && *input.TeacherPassword != "" {
			hashed, err := bcrypt.GenerateFromPassword([]byte(*input.TeacherPassword), bcrypt.DefaultCost)
			if err != nil {
				return apperr.Internal("failed to hash password", err)
			}
			teacher.Password = string(hashed)
		}
		if err := tx.Save(teacher).Error; err != nil {
			return apperr.Internal("failed to update teacher", err)
		}

		if nameChanged {
			// TeacherName on classes is derived; refresh the copies.
			err := tx.Model(&models.ClassMeeting{}).
				Where("teacher_id = ?", teacher.ID).
				Update("teacher_name", teacher.Name).Error
			if err != nil {
				return apperr.Internal("failed to refresh class teacher names", err)
			}
		}

		if input.ClassIDs != nil {
			if err := replaceLessonsTx(tx, teacher, *input.ClassIDs); err != nil {
				return err
			}
		}
		if input.StudentIDs != nil {
			students, err := loadStudents(tx, *input.StudentIDs)
			if err != nil {
				return err
			}
			if err := tx.Model(teacher).Association("Students").Replace(students); err != nil {
				return apperr.Internal("failed to replace students", err)
			}
		}
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.InvalidateActorCache(teacher.ID)

	c.JSON(http.StatusOK, gin.H{"message": "Teacher updated successfully", "teacher": teacher})
}

// DeleteTeacherHandler runs the full teacher cascade.
func DeleteTeacherHandler(c *gin.Context) {
	id, err := paramID(c, "teacherId")
	if err != nil {
		respondError(c, err)
		return
	}

	teacher, err := models.FindTeacher(config.DB, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !models.IsAuthorized(middleware.Actor(c), models.TeacherOwnership(teacher)) {
		respondError(c, apperr.Forbidden("Access denied"))
		return
	}

	if err := models.DeleteTeacherCascade(config.DB, id); err != nil {
		respondError(c, err)
		return
	}
	middleware.InvalidateActorCache(id)

	c.JSON(http.StatusOK, gin.H{"message": "Teacher and related lessons deleted. Students handled."})
}

// GetTeacherLessonsHandler lists the classes a teacher owns.
func GetTeacherLessonsHandler(c *gin.Context) {
	id, err := paramID(c, "teacherId")
	if err != nil {
		respondError(c, err)
		return
	}

	teacher, err := models.FindTeacher(config.DB, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !models.IsAuthorized(middleware.Actor(c), models.TeacherOwnership(teacher)) {
		respondError(c, apperr.Forbidden("Access denied"))
		return
	}

	var lessons []models.ClassMeeting
	if err := config.DB.Where("teacher_id = ?", id).Find(&lessons).Error; err != nil {
		respondError(c, apperr.Internal("failed to list lessons", err))
		return
	}
	c.JSON(http.StatusOK, lessons)
}

// GetTeacherAdminHandler returns the admin owning a teacher.
func GetTeacherAdminHandler(c *gin.Context) {
	id, err := paramID(c, "teacherId")
	if err != nil {
		respondError(c, err)
		return
	}

	teacher, err := models.FindTeacher(config.DB, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !models.IsAuthorized(middleware.Actor(c), models.TeacherOwnership(teacher)) {
		respondError(c, apperr.Forbidden("Access denied"))
		return
	}
	if teacher.AdminID == nil {
		respondError(c, apperr.NotFound("Admin not found for teacher"))
		return
	}

	var admin models.User
	err = config.DB.Where("id = ? AND role = ?", *teacher.AdminID, models.RoleAdmin).First(&admin).Error
	if err != nil {
		respondError(c, apperr.NotFound("Admin not found"))
		return
	}
	c.JSON(http.StatusOK, admin)
}

// GetStudentsByTeacherHandler lists a teacher's advised students together
// with the names of their classes.
func GetStudentsByTeacherHandler(c *gin.Context) {
	id, err := paramID(c, "teacherId")
	if err != nil {
		respondError(c, err)
		return
	}

	teacher, err := models.FindTeacher(config.DB, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !models.IsAuthorized(middleware.Actor(c), models.TeacherOwnership(teacher)) {
		respondError(c, apperr.Forbidden("Access denied"))
		return
	}

	var students []models.Student
	err = config.DB.Preload("Classes").
		Joins("JOIN student_teachers ON student_teachers.student_id = students.id").
		Where("student_teachers.teacher_id = ?", id).
		Find(&students).Error
	if err != nil {
		respondError(c, apperr.Internal("failed to list students", err))
		return
	}

	out := make([]gin.H, 0, len(students))
	for _, s := range students {
		classNames := make([]string, 0, len(s.Classes))
		for _, cls := range s.Classes {
			classNames = append(classNames, cls.ClassName)
		}
		out = append(out, gin.H{
			"id":         s.ID,
			"name":       s.Name,
			"email":      s.Email,
			"classNames": classNames,
		})
	}
	c.JSON(http.StatusOK, out)
}

// resolveOwningAdmin picks the admin a new teacher belongs to: admins always
// create under themselves, superadmins must name one (path param or body).
func resolveOwningAdmin(c *gin.Context, actor models.Actor, bodyAdminID *uint) (uint, error) {
	if actor.Role == models.RoleAdmin {
		if c.Param("adminId") != "" {
			id, err := paramID(c, "adminId")
			if err != nil {
				return 0, err
			}
			if actor.AdminID == nil || *actor.AdminID != id {
				return 0, apperr.Forbidden("Access denied")
			}
		}
		return *actor.AdminID, nil
	}

	var adminID uint
	if c.Param("adminId") != "" {
		id, err := paramID(c, "adminId")
		if err != nil {
			return 0, err
		}
		adminID = id
	} else if bodyAdminID != nil {
		adminID = *bodyAdminID
	} else {
		return 0, apperr.Validation("a teacher must belong to an admin")
	}

	if err := adminExistsTx(config.DB, adminID); err != nil {
		return 0, err
	}
	return adminID, nil
}

func adminExistsTx(tx *gorm.DB, adminID uint) error {
	var count int64
	err := tx.Model(&models.User{}).
		Where("id = ? AND role = ?", adminID, models.RoleAdmin).
		Count(&count).Error
	if err != nil {
		return apperr.Internal("failed to check admin", err)
	}
	if count == 0 {
		return apperr.Validation("owning admin does not exist")
	}
	return nil
}

// assignLessonsTx gives the teacher ownership of the listed classes.
func assignLessonsTx(tx *gorm.DB, teacher *models.User, classIDs []uint) error {
	var count int64
	if err := tx.Model(&models.ClassMeeting{}).Where("id IN ?", classIDs).Count(&count).Error; err != nil {
		return apperr.Internal("failed to load classes", err)
	}
	if count != int64(len(classIDs)) {
		return apperr.Validation("one or more class ids do not exist")
	}
	err := tx.Model(&models.ClassMeeting{}).
		Where("id IN ?", classIDs).
		Updates(map[string]interface{}{"teacher_id": teacher.ID, "teacher_name": teacher.Name}).Error
	if err != nil {
		return apperr.Internal("failed to assign lessons", err)
	}
	return nil
}

// replaceLessonsTx makes classIDs the teacher's complete lesson set. Classes
// the teacher owned that are not in the new set are deleted with their
// enrollments; every class keeps an owning teacher, never a dangling one.
func replaceLessonsTx(tx *gorm.DB, teacher *models.User, classIDs []uint) error {
	var existing []uint
	if err := tx.Model(&models.ClassMeeting{}).
		Where("teacher_id = ?", teacher.ID).Pluck("id", &existing).Error; err != nil {
		return apperr.Internal("failed to list lessons", err)
	}

	keep := make(map[uint]bool, len(classIDs))
	for _, id := range classIDs {
		keep[id] = true
	}
	var toRemove []uint
	for _, id := range existing {
		if !keep[id] {
			toRemove = append(toRemove, id)
		}
	}

	if len(toRemove) > 0 {
		if err := tx.Where("class_id IN ?", toRemove).Delete(&models.ClassStudent{}).Error; err != nil {
			return apperr.Internal("failed to clear enrollments", err)
		}
		if err := tx.Where("id IN ?", toRemove).Delete(&models.ClassMeeting{}).Error; err != nil {
			return apperr.Internal("failed to delete lessons", err)
		}
	}
	if len(classIDs) > 0 {
		if err := assignLessonsTx(tx, teacher, classIDs); err != nil {
			return err
		}
	}
	return nil
}

func loadStudents(tx *gorm.DB, ids []uint) ([]models.Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var students []models.Student
	if err := tx.Where("id IN ?", ids).Find(&students).Error; err != nil {
		return nil, apperr.Internal("failed to load students", err)
	}
	if len(students) != len(ids) {
		return nil, apperr.Validation("one or more student ids do not exist")
	}
	return students, nil
}

func splitName(name string) (first, last string) {
	first, last = name, ""
	if f, l, found := cutName(name); found {
		first, last = f, l
	}
	return first, last
}

func cutName(name string) (string, string, bool) {
	for i, r := range name {
		if r == ' ' || r == '_' {
			return name[:i], name[i+1:], true
		}
	}
	return name, "", false
}
