package teacher_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/teacher"
	"github.com/iepapp/iep/core/tenant"
	inmemdb "github.com/iepapp/iep/storage/database/inmem"
)

func TestService(t *testing.T) {
	svc := teacher.NewService(inmemdb.NewTeacherRepository(inmemdb.NewDB()))
	ctxA, ctxB := tenant.NewContext(context.Background(), "t-a"), tenant.NewContext(context.Background(), "t-b")

	first, err := svc.Create(ctxA, teacher.NewTeacher{EmployeeNumber: "E-1", FirstName: "Aziz", LastName: "Sancar"})
	require.NoError(t, err)
	second, err := svc.Create(ctxA, teacher.NewTeacher{EmployeeNumber: "E-2", FirstName: "Cahit", LastName: "Arf"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		run     func() (teacher.Teacher, error)
		wantNum string
		wantErr bool
	}{
		{
			name:    "create with taken number",
			run:     func() (teacher.Teacher, error) { return svc.Create(ctxA, teacher.NewTeacher{EmployeeNumber: "E-1", FirstName: "X", LastName: "Y"}) },
			wantErr: true,
		},
		{
			name:    "create with number taken in another tenant",
			run:     func() (teacher.Teacher, error) { return svc.Create(ctxB, teacher.NewTeacher{EmployeeNumber: "E-1", FirstName: "X", LastName: "Y"}) },
			wantNum: "E-1",
		},
		{
			name:    "update to taken number",
			run:     func() (teacher.Teacher, error) { return svc.Update(ctxA, second.ID, teacher.UpdateTeacher{EmployeeNumber: "E-1"}) },
			wantErr: true,
		},
		{
			name:    "update keeping own number",
			run:     func() (teacher.Teacher, error) { return svc.Update(ctxA, first.ID, teacher.UpdateTeacher{EmployeeNumber: "E-1", Subject: null.StringFrom("Kimya")}) },
			wantNum: "E-1",
		},
		{
			name:    "update to free number",
			run:     func() (teacher.Teacher, error) { return svc.Update(ctxA, second.ID, teacher.UpdateTeacher{EmployeeNumber: "E-7"}) },
			wantNum: "E-7",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.run()
			if tt.wantErr {
				var vErr *core.ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, teacher.ErrNumberExists, vErr.Err)
				assert.Equal(t, []core.FieldError{{Field: "employeeNumber", Error: teacher.ErrNumberExists.Error()}}, vErr.Fields)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNum, got.EmployeeNumber)
		})
	}

	got, err := svc.Get(ctxA, first.ID)
	require.NoError(t, err)
	assert.Equal(t, null.StringFrom("Kimya"), got.Subject)

	_, err = svc.Get(ctxB, first.ID)
	assert.True(t, core.IsNotFound(err))
}

func TestService_GetByUserID(t *testing.T) {
	svc := teacher.NewService(inmemdb.NewTeacherRepository(inmemdb.NewDB()))
	ctx := tenant.NewContext(context.Background(), "t-a")

	tch, err := svc.Create(ctx, teacher.NewTeacher{EmployeeNumber: "E-1", FirstName: "Aziz", LastName: "Sancar", UserID: null.StringFrom("u-1")})
	require.NoError(t, err)

	got, err := svc.GetByUserID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, tch.ID, got.ID)

	_, err = svc.GetByUserID(ctx, "u-2")
	assert.Equal(t, teacher.ErrNotFound, err)
}
