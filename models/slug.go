package models

import (
	"strings"

	"github.com/gosimple/slug"
)

// BuildClassURL derives the meeting path "<meetingID>/<teacher>/<class>".
// The teacher fragment is the slugified family-name token of the display
// name; the class fragment is the slugified class name. Pure function: the
// result is computed at class creation or explicit edit and deliberately not
// recomputed when only the meeting id changes, so shared links stay valid.
func BuildClassURL(meetingID, teacherName, className string) string {
	return meetingID + "/" + slug.Make(TeacherLastName(teacherName)) + "/" + slug.Make(className)
}

// TeacherLastName picks the family-name token out of a display name. Names
// may use underscores instead of spaces (the login flow stores them that
// way); the second token is the family name, a single token stands alone.
func TeacherLastName(name string) string {
	sep := " "
	if strings.Contains(name, "_") {
		sep = "_"
	}
	parts := strings.Split(strings.TrimSpace(name), sep)
	if len(parts) > 1 && parts[1] != "" {
		return parts[1]
	}
	return parts[0]
}
