package models

import "time"

// Student represents a learner. Students never authenticate; they are reached
// through their advising teachers and enrolled classes.
type Student struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Teachers []User         `json:"teachers,omitempty" gorm:"many2many:student_teachers;joinForeignKey:StudentID;joinReferences:TeacherID"`
	Classes  []ClassMeeting `json:"classes,omitempty" gorm:"many2many:class_students;joinForeignKey:StudentID;joinReferences:ClassID"`
}

// StudentTeacher is the advising association row. Declared explicitly so the
// cascade code can delete rows directly instead of going through association
// mode.
type StudentTeacher struct {
	StudentID uint `gorm:"primaryKey"`
	TeacherID uint `gorm:"primaryKey"`
}

func (StudentTeacher) TableName() string { return "student_teachers" }

// ClassStudent is the enrollment association row.
type ClassStudent struct {
	ClassID   uint `gorm:"primaryKey"`
	StudentID uint `gorm:"primaryKey"`
}

func (ClassStudent) TableName() string { return "class_students" }
