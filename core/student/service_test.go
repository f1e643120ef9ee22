package student_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/student"
	"github.com/iepapp/iep/core/tenant"
	inmemdb "github.com/iepapp/iep/storage/database/inmem"
)

func newService(db *inmemdb.DB) *student.Service {
	return student.NewService(inmemdb.NewStudentRepository(db))
}

func requireNumberExists(t *testing.T, err error) {
	t.Helper()
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, student.ErrNumberExists, vErr.Err)
	assert.Equal(t, []core.FieldError{{Field: "studentNumber", Error: student.ErrNumberExists.Error()}}, vErr.Fields)
}

func TestService_Create(t *testing.T) {
	db := inmemdb.NewDB()
	svc := newService(db)
	ctxA, ctxB := tenant.NewContext(context.Background(), "t-a"), tenant.NewContext(context.Background(), "t-b")

	_, err := svc.Create(ctxA, student.NewStudent{StudentNumber: "S-1", FirstName: "Ada", LastName: "Lovelace"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		ctx     context.Context
		number  string
		wantErr func(t *testing.T, err error)
	}{
		{name: "new number", ctx: ctxA, number: "S-2"},
		{name: "taken number", ctx: ctxA, number: "S-1", wantErr: requireNumberExists},
		{name: "taken in another tenant", ctx: ctxB, number: "S-1"},
		{
			name: "no tenant", ctx: context.Background(), number: "S-3",
			wantErr: func(t *testing.T, err error) { assert.Error(t, err) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := svc.Create(tt.ctx, student.NewStudent{StudentNumber: tt.number, FirstName: "Grace", LastName: "Hopper"})
			if tt.wantErr != nil {
				tt.wantErr(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, s.ID)
			assert.Equal(t, tt.number, s.StudentNumber)

			got, err := svc.Get(tt.ctx, s.ID)
			require.NoError(t, err)
			assert.Equal(t, "Grace Hopper", got.FullName())
		})
	}
}

func TestService_Update(t *testing.T) {
	svc := newService(inmemdb.NewDB())
	ctx := tenant.NewContext(context.Background(), "t-a")

	s1, err := svc.Create(ctx, student.NewStudent{StudentNumber: "S-1", FirstName: "Ada", LastName: "Lovelace"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, student.NewStudent{StudentNumber: "S-2", FirstName: "Grace", LastName: "Hopper"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		update  student.UpdateStudent
		want    string // student number after the update
		wantErr bool
	}{
		{name: "same number", update: student.UpdateStudent{StudentNumber: "S-1"}, want: "S-1"},
		{name: "number of another student", update: student.UpdateStudent{StudentNumber: "S-2"}, wantErr: true},
		{name: "free number", update: student.UpdateStudent{StudentNumber: "S-9", LastName: "Byron"}, want: "S-9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Update(ctx, s1.ID, tt.update)
			if tt.wantErr {
				requireNumberExists(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.StudentNumber)
		})
	}

	_, err = svc.Update(ctx, "missing", student.UpdateStudent{FirstName: "X"})
	assert.True(t, core.IsNotFound(err))
}

func TestService_Delete(t *testing.T) {
	svc := newService(inmemdb.NewDB())
	ctx := tenant.NewContext(context.Background(), "t-a")

	s, err := svc.Create(ctx, student.NewStudent{StudentNumber: "S-1", FirstName: "Ada", LastName: "Lovelace"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, s.ID))

	_, err = svc.Get(ctx, s.ID)
	assert.True(t, core.IsNotFound(err))

	// the number of a deleted student can be reused
	_, err = svc.Create(ctx, student.NewStudent{StudentNumber: "S-1", FirstName: "Ada", LastName: "King"})
	assert.NoError(t, err)
}

func TestService_Import(t *testing.T) {
	svc := newService(inmemdb.NewDB())
	ctx := tenant.NewContext(context.Background(), "t-a")
	validate, translator := core.NewValidator("en")

	rows := []student.ImportRow{
		{Row: 2, Student: student.NewStudent{StudentNumber: "S-1", FirstName: "Ada", LastName: "Lovelace"}},
		{Row: 3, Student: student.NewStudent{StudentNumber: "S-1", FirstName: "Grace", LastName: "Hopper"}},
		{Row: 4, Student: student.NewStudent{StudentNumber: "S-2", LastName: "Noether"}},
		{Row: 5, Err: errors.New("invalid birth date")},
	}
	res, err := svc.Import(ctx, rows, validate, translator)
	require.NoError(t, err)

	require.Len(t, res.Created, 1)
	assert.Equal(t, "S-1", res.Created[0].StudentNumber)

	require.Len(t, res.Failed, 3)
	assert.Equal(t, 3, res.Failed[0].Row)
	assert.Equal(t, map[string]string{"studentNumber": student.ErrNumberExists.Error()}, res.Failed[0].Errors)
	assert.Equal(t, 4, res.Failed[1].Row)
	assert.Contains(t, res.Failed[1].Errors, "firstName")
	assert.Equal(t, student.RowError{Row: 5, Errors: map[string]string{"row": "invalid birth date"}}, res.Failed[2])
}
