package models

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/KirillBodin/backend-VideoSDK/internal/apperr"
)

// Cascade deletes and full-replacement association updates. Every
// multi-entity mutation here runs inside one transaction so a partial failure
// never leaves dangling rows or half-updated association sets.

// DeleteTeacherCascade removes a teacher and everything only they own:
// students advised solely by this teacher are deleted outright, shared
// students only lose this teacher's association, and all owned classes are
// deleted with their enrollments.
func DeleteTeacherCascade(db *gorm.DB, teacherID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var teacher User
		err := tx.Where("id = ? AND role = ?", teacherID, RoleTeacher).First(&teacher).Error
		if err == gorm.ErrRecordNotFound {
			return apperr.NotFound("Teacher not found")
		}
		if err != nil {
			return apperr.Internal("failed to load teacher", err)
		}
		return deleteTeacherTx(tx, teacher.ID)
	})
}

func deleteTeacherTx(tx *gorm.DB, teacherID uint) error {
	var students []Student
	err := tx.
		Joins("JOIN student_teachers ON student_teachers.student_id = students.id").
		Where("student_teachers.teacher_id = ?", teacherID).
		Find(&students).Error
	if err != nil {
		return apperr.Internal("failed to list advised students", err)
	}

	for i := range students {
		var advisors int64
		if err := tx.Model(&StudentTeacher{}).
			Where("student_id = ?", students[i].ID).
			Count(&advisors).Error; err != nil {
			return apperr.Internal("failed to count advisors", err)
		}
		if advisors <= 1 {
			if err := deleteStudentTx(tx, students[i].ID); err != nil {
				return err
			}
		} else {
			err := tx.Where("student_id = ? AND teacher_id = ?", students[i].ID, teacherID).
				Delete(&StudentTeacher{}).Error
			if err != nil {
				return apperr.Internal("failed to unlink student", err)
			}
		}
	}

	var classIDs []uint
	if err := tx.Model(&ClassMeeting{}).
		Where("teacher_id = ?", teacherID).
		Pluck("id", &classIDs).Error; err != nil {
		return apperr.Internal("failed to list owned classes", err)
	}
	if len(classIDs) > 0 {
		if err := tx.Where("class_id IN ?", classIDs).Delete(&ClassStudent{}).Error; err != nil {
			return apperr.Internal("failed to clear class enrollments", err)
		}
		if err := tx.Where("id IN ?", classIDs).Delete(&ClassMeeting{}).Error; err != nil {
			return apperr.Internal("failed to delete classes", err)
		}
	}

	if err := tx.Delete(&User{}, teacherID).Error; err != nil {
		return apperr.Internal("failed to delete teacher", err)
	}
	return nil
}

// DeleteAdminCascade removes an admin and, through the teacher cascade, every
// teacher (and their sole-advised students and classes) the admin owns.
func DeleteAdminCascade(db *gorm.DB, adminID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var admin User
		err := tx.Where("id = ? AND role = ?", adminID, RoleAdmin).First(&admin).Error
		if err == gorm.ErrRecordNotFound {
			return apperr.NotFound("Admin not found")
		}
		if err != nil {
			return apperr.Internal("failed to load admin", err)
		}

		var teacherIDs []uint
		if err := tx.Model(&User{}).
			Where("admin_id = ? AND role = ?", adminID, RoleTeacher).
			Pluck("id", &teacherIDs).Error; err != nil {
			return apperr.Internal("failed to list owned teachers", err)
		}
		for _, id := range teacherIDs {
			if err := deleteTeacherTx(tx, id); err != nil {
				return err
			}
		}

		if err := tx.Delete(&User{}, adminID).Error; err != nil {
			return apperr.Internal("failed to delete admin", err)
		}
		return nil
	})
}

// DeleteClassCascade clears all enrollments of a class, then the class row.
func DeleteClassCascade(db *gorm.DB, classID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var cls ClassMeeting
		err := tx.First(&cls, classID).Error
		if err == gorm.ErrRecordNotFound {
			return apperr.NotFound("Class not found")
		}
		if err != nil {
			return apperr.Internal("failed to load class", err)
		}
		if err := tx.Where("class_id = ?", classID).Delete(&ClassStudent{}).Error; err != nil {
			return apperr.Internal("failed to clear class enrollments", err)
		}
		if err := tx.Delete(&ClassMeeting{}, classID).Error; err != nil {
			return apperr.Internal("failed to delete class", err)
		}
		return nil
	})
}

// DeleteStudentCascade removes a student's rows from both association tables,
// then the student row.
func DeleteStudentCascade(db *gorm.DB, studentID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var student Student
		err := tx.First(&student, studentID).Error
		if err == gorm.ErrRecordNotFound {
			return apperr.NotFound("Student not found")
		}
		if err != nil {
			return apperr.Internal("failed to load student", err)
		}
		return deleteStudentTx(tx, studentID)
	})
}

func deleteStudentTx(tx *gorm.DB, studentID uint) error {
	if err := tx.Where("student_id = ?", studentID).Delete(&ClassStudent{}).Error; err != nil {
		return apperr.Internal("failed to clear enrollments", err)
	}
	if err := tx.Where("student_id = ?", studentID).Delete(&StudentTeacher{}).Error; err != nil {
		return apperr.Internal("failed to clear advisors", err)
	}
	if err := tx.Delete(&Student{}, studentID).Error; err != nil {
		return apperr.Internal("failed to delete student", err)
	}
	return nil
}

// ReplaceStudentClasses makes classIDs the student's complete enrollment set.
// Every referenced class must exist.
func ReplaceStudentClasses(tx *gorm.DB, student *Student, classIDs []uint) error {
	classes, err := classesByIDs(tx, classIDs)
	if err != nil {
		return err
	}
	if err := tx.Model(student).Association("Classes").Replace(classes); err != nil {
		return apperr.Internal("failed to replace class enrollments", err)
	}
	return nil
}

// ReplaceStudentTeachers makes teacherIDs the student's complete advisor set.
// Every referenced user must exist and have the teacher role.
func ReplaceStudentTeachers(tx *gorm.DB, student *Student, teacherIDs []uint) error {
	teachers, err := teachersByIDs(tx, teacherIDs)
	if err != nil {
		return err
	}
	if err := tx.Model(student).Association("Teachers").Replace(teachers); err != nil {
		return apperr.Internal("failed to replace advisors", err)
	}
	return nil
}

// ReplaceClassStudents makes studentIDs the class's complete roster.
func ReplaceClassStudents(tx *gorm.DB, cls *ClassMeeting, studentIDs []uint) error {
	students, err := studentsByIDs(tx, studentIDs)
	if err != nil {
		return err
	}
	if err := tx.Model(cls).Association("Students").Replace(students); err != nil {
		return apperr.Internal("failed to replace roster", err)
	}
	return nil
}

func classesByIDs(tx *gorm.DB, ids []uint) ([]ClassMeeting, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var classes []ClassMeeting
	if err := tx.Where("id IN ?", ids).Find(&classes).Error; err != nil {
		return nil, apperr.Internal("failed to load classes", err)
	}
	if len(classes) != len(dedupe(ids)) {
		return nil, apperr.Validation("one or more class ids do not exist")
	}
	return classes, nil
}

func teachersByIDs(tx *gorm.DB, ids []uint) ([]User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var teachers []User
	err := tx.Where("id IN ? AND role = ?", ids, RoleTeacher).Find(&teachers).Error
	if err != nil {
		return nil, apperr.Internal("failed to load teachers", err)
	}
	if len(teachers) != len(dedupe(ids)) {
		return nil, apperr.Validation("one or more teacher ids do not reference a teacher")
	}
	return teachers, nil
}

func studentsByIDs(tx *gorm.DB, ids []uint) ([]Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var students []Student
	if err := tx.Where("id IN ?", ids).Find(&students).Error; err != nil {
		return nil, apperr.Internal("failed to load students", err)
	}
	if len(students) != len(dedupe(ids)) {
		return nil, apperr.Validation("one or more student ids do not exist")
	}
	return students, nil
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// UserEmailTaken reports whether another user row already uses email.
// excludeID skips the record itself on updates.
func UserEmailTaken(db *gorm.DB, email string, excludeID uint) (bool, error) {
	var count int64
	q := db.Model(&User{}).Where("email = ?", email)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, apperr.Internal("failed to check email uniqueness", err)
	}
	return count > 0, nil
}

// StudentEmailTaken is UserEmailTaken for the students table.
func StudentEmailTaken(db *gorm.DB, email string, excludeID uint) (bool, error) {
	var count int64
	q := db.Model(&Student{}).Where("email = ?", email)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, apperr.Internal("failed to check email uniqueness", err)
	}
	return count > 0, nil
}

// FindTeacher loads a user that must be a teacher.
func FindTeacher(db *gorm.DB, id uint) (*User, error) {
	var teacher User
	err := db.Where("id = ? AND role = ?", id, RoleTeacher).First(&teacher).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.NotFound(fmt.Sprintf("Teacher with id=%d not found", id))
	}
	if err != nil {
		return nil, apperr.Internal("failed to load teacher", err)
	}
	return &teacher, nil
}
