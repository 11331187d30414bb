package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintPtr(v uint) *uint { return &v }

func TestIsAuthorized(t *testing.T) {
	owned := Ownership{AdminIDs: []uint{1}, TeacherIDs: []uint{10}}

	tests := []struct {
		name  string
		actor Actor
		own   Ownership
		want  bool
	}{
		{"superadmin, empty ownership", Actor{ID: 99, Role: RoleSuperadmin}, Ownership{}, true},
		{"superadmin, owned entity", Actor{ID: 99, Role: RoleSuperadmin}, owned, true},

		{"owning admin", Actor{ID: 1, Role: RoleAdmin, AdminID: uintPtr(1)}, owned, true},
		{"foreign admin", Actor{ID: 2, Role: RoleAdmin, AdminID: uintPtr(2)}, owned, false},
		{"admin, empty ownership", Actor{ID: 1, Role: RoleAdmin, AdminID: uintPtr(1)}, Ownership{}, false},
		{"admin without identity", Actor{ID: 1, Role: RoleAdmin}, owned, false},
		{"admin does not match via teacher ids", Actor{ID: 10, Role: RoleAdmin, AdminID: uintPtr(10)}, Ownership{TeacherIDs: []uint{10}}, false},

		{"owning teacher", Actor{ID: 10, Role: RoleTeacher, AdminID: uintPtr(1)}, owned, true},
		{"foreign teacher", Actor{ID: 11, Role: RoleTeacher, AdminID: uintPtr(1)}, owned, false},
		{"teacher, empty ownership", Actor{ID: 10, Role: RoleTeacher}, Ownership{}, false},
		{"teacher does not match via admin ids", Actor{ID: 1, Role: RoleTeacher, AdminID: uintPtr(1)}, Ownership{AdminIDs: []uint{1}}, false},

		{"unknown role", Actor{ID: 10, Role: Role("student")}, owned, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAuthorized(tt.actor, tt.own))
		})
	}
}

func TestTeacherOwnership(t *testing.T) {
	teacher := NewTeacher("Tom Smith", "tom@x.com", "hash", 7)
	teacher.ID = 10

	own := TeacherOwnership(&teacher)
	assert.Equal(t, []uint{10}, own.TeacherIDs)
	assert.Equal(t, []uint{7}, own.AdminIDs)
}

func TestAdminOwnershipIsEmpty(t *testing.T) {
	admin := NewAdmin("Dana", "dana@x.com", "hash", "Hilltop")
	admin.ID = 3

	own := AdminOwnership(&admin)
	assert.Empty(t, own.AdminIDs)
	assert.Empty(t, own.TeacherIDs)
}

func TestClassOwnership(t *testing.T) {
	db := newTestDB(t)
	admin := seedAdmin(t, db, "Dana", "dana@x.com")
	teacher := seedTeacher(t, db, "Tom Smith", "tom@x.com", admin.ID)
	cls := seedClass(t, db, "Algebra", teacher)

	own, err := ClassOwnership(db, &cls)
	require.NoError(t, err)
	assert.Equal(t, []uint{teacher.ID}, own.TeacherIDs)
	assert.Equal(t, []uint{admin.ID}, own.AdminIDs)
}

func TestClassOwnershipOrphanedClass(t *testing.T) {
	db := newTestDB(t)
	cls := ClassMeeting{ClassName: "Orphan", TeacherID: 12345}
	require.NoError(t, db.Create(&cls).Error)

	own, err := ClassOwnership(db, &cls)
	require.NoError(t, err)
	assert.Empty(t, own.TeacherIDs)
	assert.Empty(t, own.AdminIDs)

	// Only a superadmin can touch an orphaned class.
	assert.True(t, IsAuthorized(Actor{Role: RoleSuperadmin}, own))
	assert.False(t, IsAuthorized(Actor{ID: 1, Role: RoleAdmin, AdminID: uintPtr(1)}, own))
}

func TestStudentOwnershipSpansAllAdvisors(t *testing.T) {
	db := newTestDB(t)
	admin1 := seedAdmin(t, db, "Dana", "dana@x.com")
	admin2 := seedAdmin(t, db, "Erik", "erik@x.com")
	t1 := seedTeacher(t, db, "Tom Smith", "tom@x.com", admin1.ID)
	t2 := seedTeacher(t, db, "Mia Jones", "mia@x.com", admin2.ID)
	student := seedStudent(t, db, "Sam", "sam@x.com", t1.ID, t2.ID)

	own, err := StudentOwnership(db, student.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{t1.ID, t2.ID}, own.TeacherIDs)
	assert.ElementsMatch(t, []uint{admin1.ID, admin2.ID}, own.AdminIDs)

	// Either advising teacher and either owning admin passes.
	assert.True(t, IsAuthorized(Actor{ID: t2.ID, Role: RoleTeacher, AdminID: &admin2.ID}, own))
	assert.True(t, IsAuthorized(Actor{ID: admin1.ID, Role: RoleAdmin, AdminID: &admin1.ID}, own))
}
