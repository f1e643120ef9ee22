package sqlxrepos_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/student"
	"github.com/iepapp/iep/core/tenant"
	sqlxrepos "github.com/iepapp/iep/storage/database/sqlx"
	"github.com/iepapp/iep/testutil"
)

func createTenant(t *testing.T, repo tenant.Repository) tenant.Tenant {
	now := time.Now().UTC()
	tnt := tenant.Tenant{
		ID:        uuid.NewString(),
		Name:      "School",
		Subdomain: "s" + uuid.NewString()[:8],
		Settings:  core.JSONMap{},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.Create(context.Background(), &tnt))
	return tnt
}

func TestStudentTenantIsolation(t *testing.T) {
	store := sqlxrepos.NewStore(testutil.PrepareDB(t))
	tenants := sqlxrepos.NewTenantRepository(store)
	students := sqlxrepos.NewStudentRepository(store)

	a, b := createTenant(t, tenants), createTenant(t, tenants)
	ctxA, ctxB := testutil.Ctx(a.ID), testutil.Ctx(b.ID)

	now := time.Now().UTC().Truncate(time.Microsecond)
	s := student.Student{
		ID:            uuid.NewString(),
		TenantID:      a.ID,
		StudentNumber: "S-1",
		FirstName:     "Ada",
		LastName:      "Lovelace",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, students.Create(ctxA, &s))

	got, err := students.Get(ctxA, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.StudentNumber, got.StudentNumber)

	_, err = students.Get(ctxB, s.ID)
	assert.True(t, core.IsNotFound(err))

	list, total, err := students.Query(ctxB, student.QueryFilter{}, core.AllRows)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)

	_, err = students.Get(context.Background(), s.ID)
	assert.Equal(t, core.ErrNoTenant, err)
}
