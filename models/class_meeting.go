package models

import "time"

// ClassMeeting is a scheduled class bound to one external video session.
// ClassName is the natural dedup key: re-saving an existing class name
// refreshes MeetingID and ClassURL but keeps the row and its slug.
type ClassMeeting struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	ClassName string `json:"className" gorm:"not null"`
	// MeetingID is the external video-session identifier. Mutable: a new
	// session for the same class overwrites it.
	MeetingID string `json:"meetingId"`
	TeacherID uint   `json:"teacherId" gorm:"not null"`
	// TeacherName is a denormalized copy of the owning teacher's name,
	// refreshed whenever the teacher is reassigned. Never authoritative.
	TeacherName string `json:"teacherName"`
	// ClassURL is the derived meeting path; see BuildClassURL.
	ClassURL string  `json:"classUrl"`
	Slug     *string `json:"slug" gorm:"uniqueIndex"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Teacher  *User     `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
	Students []Student `json:"students,omitempty" gorm:"many2many:class_students;joinForeignKey:ClassID;joinReferences:StudentID"`
}
