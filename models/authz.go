package models

import (
	"gorm.io/gorm"

	"github.com/KirillBodin/backend-VideoSDK/internal/apperr"
)

// Actor is the authenticated identity behind a request, as decoded from the
// session token.
type Actor struct {
	ID   uint
	Role Role
	// AdminID is the actor's admin identity: the actor's own id for admins,
	// the owning admin's id for teachers, nil otherwise.
	AdminID *uint
}

// Ownership names the admins and teachers that own an entity. An empty
// Ownership means only a superadmin may touch the entity.
type Ownership struct {
	AdminIDs   []uint
	TeacherIDs []uint
}

// IsAuthorized is the single authorization predicate. Rules in order, first
// match wins: superadmins may do anything; admins may touch entities owned
// (directly or via a teacher) by their admin identity; teachers may touch
// entities they own or advise; everyone else is denied.
func IsAuthorized(actor Actor, own Ownership) bool {
	switch actor.Role {
	case RoleSuperadmin:
		return true
	case RoleAdmin:
		if actor.AdminID == nil {
			return false
		}
		for _, id := range own.AdminIDs {
			if id == *actor.AdminID {
				return true
			}
		}
	case RoleTeacher:
		for _, id := range own.TeacherIDs {
			if id == actor.ID {
				return true
			}
		}
	}
	return false
}

// TeacherOwnership resolves the ownership of a teacher row: the teacher
// itself plus its owning admin.
func TeacherOwnership(t *User) Ownership {
	own := Ownership{TeacherIDs: []uint{t.ID}}
	if t.AdminID != nil {
		own.AdminIDs = []uint{*t.AdminID}
	}
	return own
}

// AdminOwnership resolves the ownership of an admin row. Admin rows are
// managed by superadmins only, so the ownership is empty.
func AdminOwnership(*User) Ownership {
	return Ownership{}
}

// ClassOwnership resolves a class through its owning teacher to that
// teacher's admin.
func ClassOwnership(db *gorm.DB, cls *ClassMeeting) (Ownership, error) {
	var teacher User
	if err := db.First(&teacher, cls.TeacherID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			// Orphaned class: nobody below superadmin owns it.
			return Ownership{}, nil
		}
		return Ownership{}, apperr.Internal("failed to resolve class owner", err)
	}
	return Ownership{TeacherIDs: []uint{teacher.ID}, AdminIDs: adminIDsOf(&teacher)}, nil
}

// StudentOwnership resolves a student through all advising teachers to their
// admins.
func StudentOwnership(db *gorm.DB, studentID uint) (Ownership, error) {
	var teachers []User
	err := db.
		Joins("JOIN student_teachers ON student_teachers.teacher_id = users.id").
		Where("student_teachers.student_id = ?", studentID).
		Find(&teachers).Error
	if err != nil {
		return Ownership{}, apperr.Internal("failed to resolve student owners", err)
	}

	var own Ownership
	for i := range teachers {
		own.TeacherIDs = append(own.TeacherIDs, teachers[i].ID)
		own.AdminIDs = append(own.AdminIDs, adminIDsOf(&teachers[i])...)
	}
	return own, nil
}

func adminIDsOf(t *User) []uint {
	if t.AdminID == nil {
		return nil
	}
	return []uint{*t.AdminID}
}
