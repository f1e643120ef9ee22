package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/attendance"
	"github.com/iepapp/iep/core/class"
	"github.com/iepapp/iep/core/file"
	"github.com/iepapp/iep/core/student"
	"github.com/iepapp/iep/core/tenant"
)

func newStudent(first, last, number string) *student.Student {
	now := time.Now().UTC()
	return &student.Student{
		ID:            uuid.NewString(),
		StudentNumber: number,
		FirstName:     first,
		LastName:      last,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestTenantIsolation(t *testing.T) {
	db := NewDB()
	repo := NewStudentRepository(db)

	ctxA := tenant.NewContext(context.Background(), uuid.NewString())
	ctxB := tenant.NewContext(context.Background(), uuid.NewString())

	s := newStudent("Ada", "Lovelace", "S-1")
	require.NoError(t, repo.Create(ctxA, s))

	_, err := repo.Get(ctxB, s.ID)
	assert.Equal(t, student.ErrNotFound, err)

	students, total, err := repo.Query(ctxB, student.QueryFilter{}, core.AllRows)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, students)

	assert.Equal(t, student.ErrNotFound, repo.SoftDelete(ctxB, s.ID, time.Now()))

	got, err := repo.Get(ctxA, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)

	_, err = repo.Get(context.Background(), s.ID)
	assert.Equal(t, core.ErrNoTenant, err)
}

func TestPaginate(t *testing.T) {
	ctx := tenant.NewContext(context.Background(), uuid.NewString())
	repo := NewStudentRepository(NewDB())
	for _, s := range []*student.Student{
		newStudent("Cem", "Yılmaz", "S-3"),
		newStudent("Ali", "Demir", "S-1"),
		newStudent("Banu", "Demir", "S-2"),
	} {
		require.NoError(t, repo.Create(ctx, s))
	}

	tests := []struct {
		name    string
		opts    core.ListOptions
		numbers []string
	}{
		{"default order", core.AllRows, []string{"S-1", "S-2", "S-3"}},
		{"first page", core.ListOptions{Page: core.NewPageRequest(1, 2)}, []string{"S-1", "S-2"}},
		{"last page", core.ListOptions{Page: core.NewPageRequest(2, 2)}, []string{"S-3"}},
		{"past the end", core.ListOptions{Page: core.NewPageRequest(5, 2)}, []string{}},
		{
			"explicit ordering",
			core.ListOptions{Ordering: []core.DBOrdering{desc("student_number")}},
			[]string{"S-3", "S-2", "S-1"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			students, total, err := repo.Query(ctx, student.QueryFilter{}, tc.opts)
			require.NoError(t, err)
			assert.Equal(t, 3, total)
			numbers := make([]string, 0, len(students))
			for _, s := range students {
				numbers = append(numbers, s.StudentNumber)
			}
			assert.Equal(t, tc.numbers, numbers)
		})
	}
}

func TestEnrollmentsSkipDeletedStudents(t *testing.T) {
	ctx := tenant.NewContext(context.Background(), uuid.NewString())
	db := NewDB()
	students, classes := NewStudentRepository(db), NewClassRepository(db)

	c := &class.Class{ID: uuid.NewString(), Name: "9-A", GradeLevel: 9, AcademicYear: "2025-2026"}
	require.NoError(t, classes.Create(ctx, c))
	a, b := newStudent("Ali", "Demir", "S-1"), newStudent("Banu", "Demir", "S-2")
	require.NoError(t, students.Create(ctx, a))
	require.NoError(t, students.Create(ctx, b))

	now := time.Now().UTC()
	require.NoError(t, classes.Enroll(ctx, c.ID, []string{a.ID}, now))
	require.NoError(t, classes.Enroll(ctx, c.ID, []string{b.ID, a.ID}, now.Add(time.Second)))

	ids, err := classes.StudentIDs(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID}, ids)

	require.NoError(t, students.SoftDelete(ctx, a.ID, now))
	counts, err := classes.EnrollmentCounts(ctx, []string{c.ID})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{c.ID: 1}, counts)

	assert.Equal(t, class.ErrEnrollmentNotFound, classes.Unenroll(ctx, c.ID, uuid.NewString()))
}

func TestAttendanceUpsert(t *testing.T) {
	ctx := tenant.NewContext(context.Background(), uuid.NewString())
	repo := NewAttendanceRepository(NewDB())

	day := core.NewDate(time.Date(2025, 9, 15, 10, 0, 0, 0, time.UTC))
	first := &attendance.Record{
		ID: uuid.NewString(), ClassID: "c", StudentID: "s", Date: day, Status: attendance.StatusAbsent,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Upsert(ctx, first))

	second := &attendance.Record{
		ID: uuid.NewString(), ClassID: "c", StudentID: "s", Date: day, Status: attendance.StatusLate,
		RecordedBy: null.StringFrom("u"),
	}
	require.NoError(t, repo.Upsert(ctx, second))
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	records, total, err := repo.Query(ctx, attendance.QueryFilter{ClassID: "c"}, core.AllRows)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, attendance.StatusLate, records[0].Status)
}

func TestFileQuota(t *testing.T) {
	ctx := tenant.NewContext(context.Background(), uuid.NewString())
	repo := NewFileRepository(NewDB())
	now := time.Now().UTC()

	newFile := func(size int64) *file.File {
		return &file.File{ID: uuid.NewString(), OwnerID: "u", Name: "f", SizeBytes: size, Status: file.StatusPending, CreatedAt: now}
	}

	big := newFile(60)
	require.NoError(t, repo.CreateWithinQuota(ctx, big, 100))
	assert.Equal(t, file.ErrQuotaExceeded, repo.CreateWithinQuota(ctx, newFile(41), 100))
	require.NoError(t, repo.CreateWithinQuota(ctx, newFile(40), 100))

	_, err := repo.SetQuota(ctx, 99, 100, now)
	assert.Equal(t, file.ErrQuotaBelowUsage, err)

	require.NoError(t, repo.SoftDelete(ctx, big.ID, now))
	q, err := repo.Quota(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(40), q.UsedBytes)
	assert.Equal(t, int64(100), q.QuotaBytes)
}
