package class_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/class"
	"github.com/iepapp/iep/core/student"
	"github.com/iepapp/iep/core/teacher"
	"github.com/iepapp/iep/core/tenant"
	inmemdb "github.com/iepapp/iep/storage/database/inmem"
)

type fixture struct {
	ctx      context.Context
	classes  *class.Service
	students *student.Service
	teachers *teacher.Service
	class    class.Class
}

func newFixture(t *testing.T) fixture {
	db := inmemdb.NewDB()
	students := student.NewService(inmemdb.NewStudentRepository(db))
	teachers := teacher.NewService(inmemdb.NewTeacherRepository(db))
	f := fixture{
		ctx:      tenant.NewContext(context.Background(), "t-a"),
		classes:  class.NewService(inmemdb.NewClassRepository(db), students, teachers),
		students: students,
		teachers: teachers,
	}
	var err error
	f.class, err = f.classes.Create(f.ctx, class.NewClass{Name: "9-A", GradeLevel: 9, AcademicYear: "2025-2026"})
	require.NoError(t, err)
	return f
}

func (f fixture) createStudent(t *testing.T, ctx context.Context, number string) student.Student {
	t.Helper()
	s, err := f.students.Create(ctx, student.NewStudent{StudentNumber: number, FirstName: "Ada", LastName: "Lovelace"})
	require.NoError(t, err)
	return s
}

func TestService_Enroll(t *testing.T) {
	f := newFixture(t)
	s1, s2 := f.createStudent(t, f.ctx, "S-1"), f.createStudent(t, f.ctx, "S-2")
	foreign := f.createStudent(t, tenant.NewContext(context.Background(), "t-b"), "S-3")
	missing := uuid.NewString()

	tests := []struct {
		name       string
		classID    string
		studentIDs []string
		wantFields []core.FieldError
		wantErr    error
	}{
		{name: "existing students", classID: f.class.ID, studentIDs: []string{s1.ID, s2.ID}},
		{name: "already enrolled", classID: f.class.ID, studentIDs: []string{s1.ID}},
		{
			name:       "unknown students",
			classID:    f.class.ID,
			studentIDs: []string{s1.ID, missing, foreign.ID},
			wantFields: []core.FieldError{
				{Field: "studentIds[1]", Error: student.ErrNotFound.Error()},
				{Field: "studentIds[2]", Error: student.ErrNotFound.Error()},
			},
		},
		{name: "unknown class", classID: uuid.NewString(), studentIDs: []string{s1.ID}, wantErr: class.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.classes.Enroll(f.ctx, tt.classID, class.EnrollStudents{StudentIDs: tt.studentIDs})
			switch {
			case tt.wantFields != nil:
				var vErr *core.ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, tt.wantFields, vErr.Fields)
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			default:
				assert.NoError(t, err)
			}
		})
	}

	ids, err := f.classes.StudentIDs(f.ctx, f.class.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{s1.ID, s2.ID}, ids)

	counts, err := f.classes.EnrollmentCounts(f.ctx, []string{f.class.ID})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{f.class.ID: 2}, counts)
}

func TestService_Unenroll(t *testing.T) {
	f := newFixture(t)
	s := f.createStudent(t, f.ctx, "S-1")
	require.NoError(t, f.classes.Enroll(f.ctx, f.class.ID, class.EnrollStudents{StudentIDs: []string{s.ID}}))

	enrolled, err := f.classes.IsEnrolled(f.ctx, f.class.ID, s.ID)
	require.NoError(t, err)
	assert.True(t, enrolled)

	require.NoError(t, f.classes.Unenroll(f.ctx, f.class.ID, s.ID))
	enrolled, err = f.classes.IsEnrolled(f.ctx, f.class.ID, s.ID)
	require.NoError(t, err)
	assert.False(t, enrolled)

	assert.Equal(t, class.ErrEnrollmentNotFound, f.classes.Unenroll(f.ctx, f.class.ID, s.ID))
}

func TestService_AssignTeacher(t *testing.T) {
	f := newFixture(t)
	tch, err := f.teachers.Create(f.ctx, teacher.NewTeacher{EmployeeNumber: "E-1", FirstName: "Cahit", LastName: "Arf"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		classID   string
		teacherID string
		wantField string
		wantErr   error
	}{
		{name: "existing teacher", classID: f.class.ID, teacherID: tch.ID},
		{name: "unknown teacher", classID: f.class.ID, teacherID: uuid.NewString(), wantField: "teacherId"},
		{name: "unknown class", classID: uuid.NewString(), teacherID: tch.ID, wantErr: class.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, err := f.classes.AssignTeacher(f.ctx, tt.classID, class.AssignTeacher{TeacherID: tt.teacherID, Subject: "Matematik"})
			switch {
			case tt.wantField != "":
				var vErr *core.ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, []core.FieldError{{Field: tt.wantField, Error: teacher.ErrNotFound.Error()}}, vErr.Fields)
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, "t-a", ct.TenantID)
				assert.Equal(t, tt.teacherID, ct.TeacherID)
			}
		})
	}

	teachers, err := f.classes.Teachers(f.ctx, f.class.ID)
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	assert.Equal(t, "Matematik", teachers[0].Subject)
}
