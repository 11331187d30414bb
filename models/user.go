package models

import (
	"time"

	"github.com/KirillBodin/backend-VideoSDK/internal/apperr"
)

type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleTeacher    Role = "teacher"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperadmin, RoleAdmin, RoleTeacher:
		return true
	}
	return false
}

// User represents a superadmin, a school admin or a teacher. Students are a
// separate table and never log in.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"not null"`
	Role      Role      `json:"role" gorm:"type:varchar(20);not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// SchoolName is set for admins only.
	SchoolName *string `json:"schoolName,omitempty"`
	// AdminID is the owning admin of a teacher. Null for admins and
	// superadmins.
	AdminID *uint `json:"adminId,omitempty"`

	Admin    *User          `json:"-" gorm:"foreignKey:AdminID"`
	Lessons  []ClassMeeting `json:"-" gorm:"foreignKey:TeacherID"`
	Students []Student      `json:"-" gorm:"many2many:student_teachers;joinForeignKey:TeacherID;joinReferences:StudentID"`
}

// NewSuperadmin, NewAdmin and NewTeacher are the only ways handlers build
// users, so role-specific fields cannot end up on the wrong role.

func NewSuperadmin(name, email, passwordHash string) User {
	return User{Name: name, Email: email, Password: passwordHash, Role: RoleSuperadmin}
}

func NewAdmin(name, email, passwordHash, schoolName string) User {
	return User{Name: name, Email: email, Password: passwordHash, Role: RoleAdmin, SchoolName: &schoolName}
}

func NewTeacher(name, email, passwordHash string, adminID uint) User {
	return User{Name: name, Email: email, Password: passwordHash, Role: RoleTeacher, AdminID: &adminID}
}

// Validate enforces the role invariants: teachers carry an owning admin,
// admins and superadmins do not, and only admins carry a school name.
func (u *User) Validate() error {
	if u.Name == "" || u.Email == "" {
		return apperr.Validation("name and email are required")
	}
	if !u.Role.Valid() {
		return apperr.Validation("role must be superadmin, admin or teacher")
	}
	if u.Role == RoleTeacher {
		if u.AdminID == nil {
			return apperr.Validation("a teacher must belong to an admin")
		}
	} else if u.AdminID != nil {
		return apperr.Validation("only teachers may have an owning admin")
	}
	if u.Role != RoleAdmin && u.SchoolName != nil {
		return apperr.Validation("only admins may have a school name")
	}
	return nil
}

func (u *User) IsTeacher() bool {
	return u.Role == RoleTeacher
}
