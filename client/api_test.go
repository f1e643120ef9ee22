package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iepapp/iep/client"
	"github.com/iepapp/iep/core/user"
	"github.com/iepapp/iep/testutil"
)

func TestAgainstAPI(t *testing.T) {
	app := testutil.NewApp(t)
	tnt := app.CreateTenant(t, "Lycée", "lycee")
	admin := app.CreateUser(t, tnt.ID, "admin", user.RoleAdmin, "Pa$$w0rd!")
	other := app.CreateTenant(t, "Other", "other")

	srv := httptest.NewServer(app.Server)
	defer srv.Close()

	session := client.Session{Token: app.Token(t, admin), UserID: admin.ID, Email: admin.Email, TenantID: tnt.ID}
	c := client.New(client.Config{BaseURL: srv.URL + "/api", MaxRetries: -1, Language: client.LanguageEnglish},
		client.StaticSession(session), client.WithHTTPClient(srv.Client()))
	ctx := context.Background()

	cls, err := c.Classes.Create(ctx, client.NewClass{Name: "9A", GradeLevel: 9, AcademicYear: "2026-2027"})
	require.NoError(t, err)

	a, err := c.Assignments.Create(ctx, client.NewAssignment{
		ClassID:  cls.ID,
		Title:    "Algebra",
		DueDate:  time.Now().Add(48 * time.Hour),
		MaxScore: 20,
		Status:   "active",
	})
	require.NoError(t, err)
	assert.Equal(t, "active", a.Status)

	stats, err := c.Assignments.Statistics(ctx, map[string]string{"classId": cls.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, *stats.TotalAssignments)
	assert.Equal(t, 1, *stats.ActiveAssignments)
	assert.Equal(t, 0.0, *stats.CompletionRate)

	page, err := c.Assignments.List(ctx, client.ListParams{Filters: map[string]string{"search": "alg"}})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, 1, page.Pagination.Total)

	_, err = c.Assignments.Create(ctx, client.NewAssignment{ClassID: cls.ID})
	cErr := requireCategory(t, err, client.CategoryValidation)
	assert.Contains(t, cErr.Fields, "title")

	require.NoError(t, c.Assignments.Delete(ctx, a.ID))
	_, err = c.Assignments.Get(ctx, a.ID)
	cErr = requireCategory(t, err, client.CategoryUnknown)
	assert.Equal(t, http.StatusNotFound, cErr.StatusCode)

	// a session whose tenant does not match the token
	forged := session
	forged.TenantID = other.ID
	c = client.New(client.Config{BaseURL: srv.URL + "/api"}, client.StaticSession(forged), client.WithHTTPClient(srv.Client()))
	_, err = c.Classes.Get(ctx, cls.ID)
	cErr = requireCategory(t, err, client.CategoryAuthentication)
	assert.Equal(t, http.StatusForbidden, cErr.StatusCode)
	assert.Equal(t, "tenant mismatch", cErr.Message)
}

func requireCategory(t *testing.T, err error, want client.Category) *client.Error {
	t.Helper()
	var cErr *client.Error
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, want, cErr.Category, cErr.Message)
	return cErr
}
