package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/iepapp/iep/apps/api/echo"
	"github.com/iepapp/iep/core/tenant"
	"github.com/iepapp/iep/core/user"
	"github.com/iepapp/iep/testutil"
)

const testPassword = "Pa$$w0rd!"

type fixture struct {
	app    *testutil.App
	tenant tenant.Tenant
	admin  user.User
	token  string
}

func newFixture(t *testing.T) fixture {
	app := testutil.NewApp(t)
	tnt := app.CreateTenant(t, "Ankara Fen Lisesi", "ankarafen")
	admin := app.CreateUser(t, tnt.ID, "admin", user.RoleAdmin, testPassword)
	return fixture{app: app, tenant: tnt, admin: admin, token: app.Token(t, admin)}
}

func doRequest(t *testing.T, srv http.Handler, method, path, token string, body interface{}, headers ...map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for _, h := range headers {
		for k, v := range h {
			req.Header.Set(k, v)
		}
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest), rec.Body.String())
}

func createStudent(t *testing.T, f fixture, token, number string) map[string]interface{} {
	t.Helper()
	rec := doRequest(t, f.app.Server, http.MethodPost, "/api/students", token, map[string]string{
		"studentNumber": number,
		"firstName":     "Ada",
		"lastName":      "Lovelace",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var s map[string]interface{}
	decode(t, rec, &s)
	return s
}

func TestHome(t *testing.T) {
	f := newFixture(t)
	rec := doRequest(t, f.app.Server, http.MethodGet, "/api", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to İ-EP.APP API!", rec.Body.String())
}

func TestLogin(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name     string
		data     echoapi.LoginRequest
		wantCode int
	}{
		{"valid credentials", echoapi.LoginRequest{Tenant: "ankarafen", Username: "admin", Password: testPassword}, http.StatusOK},
		{"login by email", echoapi.LoginRequest{Tenant: "AnkaraFen", Username: "admin@example.com", Password: testPassword}, http.StatusOK},
		{"wrong password", echoapi.LoginRequest{Tenant: "ankarafen", Username: "admin", Password: "wrong"}, http.StatusBadRequest},
		{"unknown tenant", echoapi.LoginRequest{Tenant: "nowhere", Username: "admin", Password: testPassword}, http.StatusBadRequest},
		{"missing fields", echoapi.LoginRequest{}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, f.app.Server, http.MethodPost, "/api/users/login", "", tt.data)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode == http.StatusOK {
				var resp echoapi.LoginResponse
				decode(t, rec, &resp)
				assert.NotEmpty(t, resp.Token)
			}
		})
	}
}

func TestLoginInactiveTenant(t *testing.T) {
	f := newFixture(t)
	_, err := f.app.Deps.TenantSvc.SetActive(context.Background(), f.tenant.ID, false)
	require.NoError(t, err)

	rec := doRequest(t, f.app.Server, http.MethodPost, "/api/users/login", "",
		echoapi.LoginRequest{Tenant: "ankarafen", Username: "admin", Password: testPassword})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	f := newFixture(t)

	rec := doRequest(t, f.app.Server, http.MethodGet, "/api/students", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, f.app.Server, http.MethodGet, "/api/students", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionHeaders(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name     string
		headers  map[string]string
		wantCode int
		wantErr  string
	}{
		{"no headers", nil, http.StatusOK, ""},
		{
			name: "matching headers",
			headers: map[string]string{
				echoapi.HeaderTenantID:  f.tenant.ID,
				echoapi.HeaderUserID:    f.admin.ID,
				echoapi.HeaderUserEmail: "ADMIN@example.com",
			},
			wantCode: http.StatusOK,
		},
		{"tenant mismatch", map[string]string{echoapi.HeaderTenantID: "other"}, http.StatusForbidden, "tenant mismatch"},
		{"user id mismatch", map[string]string{echoapi.HeaderUserID: "other"}, http.StatusForbidden, "user mismatch"},
		{"user email mismatch", map[string]string{echoapi.HeaderUserEmail: "x@example.com"}, http.StatusForbidden, "user mismatch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, f.app.Server, http.MethodGet, "/api/tenant", f.token, nil, tt.headers)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantErr != "" {
				var body map[string]string
				decode(t, rec, &body)
				assert.Equal(t, tt.wantErr, body["error"])
			}
		})
	}
}

func TestInactiveTenantSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.app.Deps.TenantSvc.SetActive(context.Background(), f.tenant.ID, false)
	require.NoError(t, err)

	rec := doRequest(t, f.app.Server, http.MethodGet, "/api/tenant", f.token, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "tenant unavailable", body["error"])
}

func TestTenantIsolation(t *testing.T) {
	f := newFixture(t)
	other := f.app.CreateTenant(t, "İzmir Koleji", "izmir")
	otherAdmin := f.app.CreateUser(t, other.ID, "admin", user.RoleAdmin, testPassword)
	otherToken := f.app.Token(t, otherAdmin)

	s := createStudent(t, f, f.token, "S-1")
	path := "/api/students/" + s["id"].(string)

	rec := doRequest(t, f.app.Server, http.MethodGet, path, f.token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, f.app.Server, http.MethodGet, path, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, f.app.Server, http.MethodDelete, path, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var list echoapi.ListResponse
	rec = doRequest(t, f.app.Server, http.MethodGet, "/api/students", otherToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &list)
	assert.Zero(t, list.Pagination.Total)
}

func TestListPagination(t *testing.T) {
	f := newFixture(t)
	for _, n := range []string{"S-1", "S-2", "S-3"} {
		createStudent(t, f, f.token, n)
	}

	rec := doRequest(t, f.app.Server, http.MethodGet, "/api/students?page=2&perPage=2&ordering=-studentNumber", f.token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data       []map[string]interface{} `json:"data"`
		Pagination map[string]interface{}   `json:"pagination"`
	}
	decode(t, rec, &resp)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "S-1", resp.Data[0]["studentNumber"])
	assert.Equal(t, map[string]interface{}{
		"page":       float64(2),
		"perPage":    float64(2),
		"total":      float64(3),
		"totalPages": float64(2),
		"hasNext":    false,
		"hasPrev":    true,
	}, resp.Pagination)

	rec = doRequest(t, f.app.Server, http.MethodGet, "/api/students?page=x", f.token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOrdering(t *testing.T) {
	f := newFixture(t)
	for i, last := range []string{"Noether", "Curie", "Lovelace"} {
		rec := doRequest(t, f.app.Server, http.MethodPost, "/api/students", f.token, map[string]string{
			"studentNumber": "S-" + string(rune('1'+i)),
			"firstName":     "Ada",
			"lastName":      last,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	tests := []struct {
		name     string
		ordering string
		want     []string
	}{
		{name: "ascending", ordering: "lastName", want: []string{"Curie", "Lovelace", "Noether"}},
		{name: "descending", ordering: "-lastName", want: []string{"Noether", "Lovelace", "Curie"}},
		{name: "multiple fields", ordering: "firstName,-lastName", want: []string{"Noether", "Lovelace", "Curie"}},
		{name: "unknown field ignored", ordering: "shoeSize,lastName", want: []string{"Curie", "Lovelace", "Noether"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, f.app.Server, http.MethodGet, "/api/students?ordering="+tt.ordering, f.token, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp struct {
				Data []map[string]interface{} `json:"data"`
			}
			decode(t, rec, &resp)
			got := make([]string, 0, len(resp.Data))
			for _, s := range resp.Data {
				got = append(got, s["lastName"].(string))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newFixture(t)

	rec := doRequest(t, f.app.Server, http.MethodPost, "/api/users/logout", f.token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = doRequest(t, f.app.Server, http.MethodGet, "/api/tenant", f.token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// a new session is unaffected
	rec = doRequest(t, f.app.Server, http.MethodGet, "/api/tenant", f.app.Token(t, f.admin), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoleGating(t *testing.T) {
	f := newFixture(t)
	studentUsr := f.app.CreateUser(t, f.tenant.ID, "pupil", user.RoleStudent, testPassword)
	studentToken := f.app.Token(t, studentUsr)
	teacherUsr := f.app.CreateUser(t, f.tenant.ID, "teach", user.RoleTeacher, testPassword)
	teacherToken := f.app.Token(t, teacherUsr)

	class := map[string]interface{}{"name": "9-A", "gradeLevel": 9, "academicYear": "2024-2025"}
	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		body     interface{}
		wantCode int
	}{
		{"student cannot create classes", http.MethodPost, "/api/classes", studentToken, class, http.StatusForbidden},
		{"teacher cannot create classes", http.MethodPost, "/api/classes", teacherToken, class, http.StatusForbidden},
		{"admin creates classes", http.MethodPost, "/api/classes", f.token, class, http.StatusCreated},
		{"student cannot list users", http.MethodGet, "/api/users", studentToken, nil, http.StatusForbidden},
		{"teacher cannot manage webhooks", http.MethodGet, "/api/webhooks", teacherToken, nil, http.StatusForbidden},
		{"student reads assignments", http.MethodGet, "/api/assignments", studentToken, nil, http.StatusOK},
		{"student cannot create schedules", http.MethodPost, "/api/schedules", studentToken, map[string]string{}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, f.app.Server, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}
}

func TestStudentScope(t *testing.T) {
	f := newFixture(t)
	pupil := f.app.CreateUser(t, f.tenant.ID, "pupil", user.RoleStudent, testPassword)

	rec := doRequest(t, f.app.Server, http.MethodPost, "/api/students", f.token, map[string]string{
		"studentNumber": "S-1",
		"firstName":     "Ada",
		"lastName":      "Lovelace",
		"userId":        pupil.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var own map[string]interface{}
	decode(t, rec, &own)
	other := createStudent(t, f, f.token, "S-2")

	token := f.app.Token(t, pupil)
	var list struct {
		Data []map[string]interface{} `json:"data"`
	}
	rec = doRequest(t, f.app.Server, http.MethodGet, "/api/students", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &list)
	require.Len(t, list.Data, 1)
	assert.Equal(t, own["id"], list.Data[0]["id"])

	rec = doRequest(t, f.app.Server, http.MethodGet, "/api/students/"+other["id"].(string), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, f.app.Server, http.MethodGet, "/api/grades/summary?studentId="+other["id"].(string), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, f.app.Server, http.MethodGet, "/api/grades/summary", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestUserDetailAccess(t *testing.T) {
	f := newFixture(t)
	teacherUsr := f.app.CreateUser(t, f.tenant.ID, "teach", user.RoleTeacher, testPassword)
	teacherToken := f.app.Token(t, teacherUsr)

	rec := doRequest(t, f.app.Server, http.MethodGet, "/api/users/"+teacherUsr.ID, teacherToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, f.app.Server, http.MethodGet, "/api/users/"+f.admin.ID, teacherToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, f.app.Server, http.MethodPut, "/api/users/"+teacherUsr.ID, teacherToken, map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, f.app.Server, http.MethodDelete, "/api/users/"+f.admin.ID, f.token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, f.app.Server, http.MethodDelete, "/api/users/"+teacherUsr.ID, f.token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPasswordResetDoesNotLeakAccounts(t *testing.T) {
	f := newFixture(t)

	for _, data := range []echoapi.PasswordResetRequest{
		{Tenant: "ankarafen", Email: "admin@example.com"},
		{Tenant: "ankarafen", Email: "nobody@example.com"},
		{Tenant: "nowhere", Email: "admin@example.com"},
	} {
		rec := doRequest(t, f.app.Server, http.MethodPost, "/api/users/password-reset", "", data)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	assert.Len(t, f.app.Mail.SentMessages(), 1)
}
