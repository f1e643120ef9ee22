package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSession = Session{Token: "t0ken", UserID: "u-1", Email: "ada@example.com", TenantID: "tenant-1"}

const statisticsBody = `{
	"totalAssignments": 4,
	"activeAssignments": 2,
	"draftAssignments": 1,
	"closedAssignments": 1,
	"overdueAssignments": 0,
	"gradedSubmissions": 3,
	"expectedSubmissions": 6,
	"averageScore": 81.5,
	"completionRate": 50
}`

// recordSleeps replaces sleepFunc for the duration of the test.
func recordSleeps(t *testing.T) func() []time.Duration {
	var (
		mu     sync.Mutex
		delays []time.Duration
	)
	orig := sleepFunc
	sleepFunc = func(_ context.Context, d time.Duration) error {
		mu.Lock()
		defer mu.Unlock()
		delays = append(delays, d)
		return nil
	}
	t.Cleanup(func() { sleepFunc = orig })
	return func() []time.Duration {
		mu.Lock()
		defer mu.Unlock()
		return append([]time.Duration(nil), delays...)
	}
}

type stubServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newStubServer(t *testing.T, handler http.HandlerFunc) *stubServer {
	s := &stubServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func newTestClient(t *testing.T, srv *stubServer, conf Config, sessions SessionProvider) *Client {
	conf.BaseURL = srv.URL + "/api"
	if sessions == nil {
		sessions = StaticSession(testSession)
	}
	return New(conf, sessions, WithHTTPClient(srv.Client()))
}

func requireCategory(t *testing.T, err error, want Category) *Error {
	t.Helper()
	require.Error(t, err)
	var cErr *Error
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, want, cErr.Category, cErr.Message)
	return cErr
}

func TestStatistics(t *testing.T) {
	recordSleeps(t)

	tests := []struct {
		name      string
		body      string
		wantErr   bool
		wantField string
	}{
		{name: "well formed", body: statisticsBody},
		{name: "missing completionRate", body: `{"totalAssignments": 4, "activeAssignments": 2, "averageScore": 81.5}`, wantErr: true, wantField: "completionRate"},
		{name: "wrong type", body: `{"totalAssignments": "four", "activeAssignments": 2, "averageScore": 1, "completionRate": 1}`, wantErr: true, wantField: "totalAssignments"},
		{name: "out of range", body: `{"totalAssignments": 4, "activeAssignments": 2, "averageScore": 1, "completionRate": 120}`, wantErr: true, wantField: "completionRate"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				respond(http.StatusOK, tt.body)(w, r)
			})
			c := newTestClient(t, srv, Config{}, nil)

			stats, err := c.Assignments.Statistics(context.Background(), nil)
			assert.Equal(t, "/api/assignments/statistics", gotPath)
			if !tt.wantErr {
				require.NoError(t, err)
				require.NotNil(t, stats.CompletionRate)
				assert.Equal(t, 50.0, *stats.CompletionRate)
				assert.Equal(t, 4, *stats.TotalAssignments)
				return
			}
			cErr := requireCategory(t, err, CategoryValidation)
			assert.Contains(t, cErr.Fields, tt.wantField)
			assert.Contains(t, cErr.Message, tt.wantField)
			assert.Equal(t, AssignmentStatistics{}, stats, "unvalidated payload returned")
			assert.EqualValues(t, 1, srv.hits.Load(), "schema failures are not retried")
		})
	}
}

func TestListSchemaValidation(t *testing.T) {
	srv := newStubServer(t, respond(http.StatusOK, `{
		"data": [
			{"id": "s-1", "classId": "c-1", "studentId": "st-1", "date": "2026-09-01", "status": "present"},
			{"id": "s-2", "classId": "c-1", "studentId": "st-2", "date": "2026-09-01", "status": "sleeping"}
		],
		"pagination": {"page": 1, "perPage": 25, "total": 2, "totalPages": 1}
	}`))
	c := newTestClient(t, srv, Config{}, nil)

	page, err := c.Attendance.List(context.Background(), ListParams{})
	cErr := requireCategory(t, err, CategoryValidation)
	assert.Contains(t, cErr.Fields, "data[1].status")
	assert.Nil(t, page.Data)

	srv = newStubServer(t, respond(http.StatusOK, `{"pagination": {"page": 1}}`))
	c = newTestClient(t, srv, Config{}, nil)
	_, err = c.Grades.List(context.Background(), ListParams{})
	cErr = requireCategory(t, err, CategoryValidation)
	assert.Contains(t, cErr.Fields, "data")
}

func TestServerErrorRetries(t *testing.T) {
	tests := []struct {
		name       string
		conf       Config
		wantDelays []time.Duration
	}{
		{name: "defaults", wantDelays: []time.Duration{300 * time.Millisecond, 600 * time.Millisecond}},
		{name: "four retries", conf: Config{MaxRetries: 4, RetryBaseDelay: 10 * time.Millisecond},
			wantDelays: []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond, 80 * time.Millisecond}},
		{name: "disabled", conf: Config{MaxRetries: -1}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			sleeps := recordSleeps(t)
			srv := newStubServer(t, respond(http.StatusInternalServerError, `{"error": "Internal Server Error"}`))
			c := newTestClient(t, srv, tt.conf, nil)

			_, err := c.Students.Get(context.Background(), "s-1")
			cErr := requireCategory(t, err, CategoryServer)
			assert.Equal(t, http.StatusInternalServerError, cErr.StatusCode)
			assert.Equal(t, "GET /students/s-1", cErr.Endpoint)
			assert.EqualValues(t, len(tt.wantDelays)+1, srv.hits.Load())

			delays := sleeps()
			assert.Equal(t, tt.wantDelays, delays)
			for i := 1; i < len(delays); i++ {
				assert.Greater(t, delays[i], delays[i-1])
			}
		})
	}
}

func TestRetryRecovers(t *testing.T) {
	recordSleeps(t)
	var calls atomic.Int32
	srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			respond(http.StatusBadGateway, "bad gateway")(w, r)
			return
		}
		respond(http.StatusOK, `{"id": "t-1", "employeeNumber": "E1", "firstName": "Ada", "lastName": "Lovelace"}`)(w, r)
	})
	c := newTestClient(t, srv, Config{}, nil)

	tch, err := c.Teachers.Get(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, "E1", tch.EmployeeNumber)
	assert.EqualValues(t, 3, srv.hits.Load())
}

func TestNoRetry(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		call   func(c *Client) error
		want   Category
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error": "user not authenticated"}`, want: CategoryAuthentication,
			call: func(c *Client) error { _, err := c.Classes.List(context.Background(), ListParams{}); return err }},
		{name: "forbidden", status: http.StatusForbidden, body: `{"error": "tenant mismatch"}`, want: CategoryAuthentication,
			call: func(c *Client) error { _, err := c.Classes.Get(context.Background(), "c-1"); return err }},
		{name: "bad request", status: http.StatusBadRequest, body: `{"title": "this field is required"}`, want: CategoryValidation,
			call: func(c *Client) error { _, err := c.Assignments.List(context.Background(), ListParams{}); return err }},
		{name: "not found", status: http.StatusNotFound, body: `{"error": "student not found"}`, want: CategoryUnknown,
			call: func(c *Client) error { _, err := c.Students.Get(context.Background(), "nope"); return err }},
		{name: "too many requests", status: http.StatusTooManyRequests, body: ``, want: CategoryUnknown,
			call: func(c *Client) error { _, err := c.Students.Get(context.Background(), "s-1"); return err }},
		{name: "mutation on server error", status: http.StatusServiceUnavailable, body: ``, want: CategoryServer,
			call: func(c *Client) error { _, err := c.Grades.Create(context.Background(), NewGrade{StudentID: "s-1"}); return err }},
		{name: "delete on server error", status: http.StatusInternalServerError, body: ``, want: CategoryServer,
			call: func(c *Client) error { return c.Teachers.Delete(context.Background(), "t-1") }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			sleeps := recordSleeps(t)
			srv := newStubServer(t, respond(tt.status, tt.body))
			c := newTestClient(t, srv, Config{}, nil)

			cErr := requireCategory(t, tt.call(c), tt.want)
			assert.Equal(t, tt.status, cErr.StatusCode)
			assert.EqualValues(t, 1, srv.hits.Load())
			assert.Empty(t, sleeps())
		})
	}
}

func TestValidationErrorFields(t *testing.T) {
	srv := newStubServer(t, respond(http.StatusBadRequest, `{"title": "this field is required", "dueDate": "this field is required"}`))
	c := newTestClient(t, srv, Config{}, nil)

	_, err := c.Assignments.Create(context.Background(), NewAssignment{ClassID: "c-1"})
	cErr := requireCategory(t, err, CategoryValidation)
	assert.Equal(t, map[string]string{"title": "this field is required", "dueDate": "this field is required"}, cErr.Fields)
	assert.Equal(t, "dueDate: this field is required; title: this field is required", cErr.Message)
}

func TestSessionHeaders(t *testing.T) {
	var got http.Header
	srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		respond(http.StatusOK, `{"id": "c-1", "name": "9A", "gradeLevel": 9, "academicYear": "2026-2027"}`)(w, r)
	})
	c := newTestClient(t, srv, Config{}, nil)

	cls, err := c.Classes.Get(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, 9, *cls.GradeLevel)
	assert.Equal(t, "Bearer t0ken", got.Get("Authorization"))
	assert.Equal(t, testSession.TenantID, got.Get(HeaderTenantID))
	assert.Equal(t, testSession.UserID, got.Get(HeaderUserID))
	assert.Equal(t, testSession.Email, got.Get(HeaderUserEmail))
}

func TestMissingSession(t *testing.T) {
	tests := []struct {
		name     string
		sessions SessionProvider
	}{
		{"logged out", SessionFunc(func(context.Context) (*Session, error) { return nil, nil })},
		{"no token", StaticSession(Session{TenantID: "tenant-1"})},
		{"no tenant", StaticSession(Session{Token: "t0ken"})},
		{"provider failure", SessionFunc(func(context.Context) (*Session, error) { return nil, io.ErrUnexpectedEOF })},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			srv := newStubServer(t, respond(http.StatusOK, `{}`))
			c := newTestClient(t, srv, Config{}, tt.sessions)

			_, err := c.Students.List(context.Background(), ListParams{})
			requireCategory(t, err, CategoryAuthentication)
			assert.Zero(t, srv.hits.Load(), "request sent without a session")
		})
	}
}

func TestTimeout(t *testing.T) {
	sleeps := recordSleeps(t)
	srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	c := newTestClient(t, srv, Config{Timeout: 50 * time.Millisecond}, nil)

	_, err := c.Assignments.Get(context.Background(), "a-1")
	cErr := requireCategory(t, err, CategoryTimeout)
	assert.Contains(t, cErr.Message, "50ms")
	assert.Len(t, sleeps(), DefaultMaxRetries, "timeouts of reads are retried")

	assert.Equal(t, "request timed out after 10000ms", timeoutMessage(Config{}.withDefaults().Timeout))
}

func TestCallerDeadline(t *testing.T) {
	sleeps := recordSleeps(t)
	srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	c := newTestClient(t, srv, Config{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Assignments.Get(ctx, "a-1")
	cErr := requireCategory(t, err, CategoryTimeout)
	assert.Equal(t, "request deadline exceeded", cErr.Message)
	assert.NotContains(t, cErr.Message, "10000ms")
	assert.Empty(t, sleeps(), "an expired caller context is not retried")
}

func TestNetworkError(t *testing.T) {
	sleeps := recordSleeps(t)
	srv := newStubServer(t, respond(http.StatusOK, `{}`))
	c := newTestClient(t, srv, Config{}, nil)
	srv.Close()

	_, err := c.Students.Get(context.Background(), "s-1")
	cErr := requireCategory(t, err, CategoryNetwork)
	assert.Zero(t, cErr.StatusCode)
	assert.Len(t, sleeps(), DefaultMaxRetries)
}

func TestUserMessages(t *testing.T) {
	srv := newStubServer(t, respond(http.StatusUnauthorized, `{"error": "session has been revoked"}`))

	tests := []struct {
		lang string
		want string
	}{
		{"", "Oturumunuzun süresi doldu, lütfen tekrar giriş yapın."},
		{"tr", "Oturumunuzun süresi doldu, lütfen tekrar giriş yapın."},
		{"en", "Your session has expired, please log in again."},
	}
	for _, tt := range tests {
		t.Run("lang="+tt.lang, func(t *testing.T) {
			c := newTestClient(t, srv, Config{Language: tt.lang}, nil)
			_, err := c.Students.Get(context.Background(), "s-1")
			cErr := requireCategory(t, err, CategoryAuthentication)
			assert.Equal(t, tt.want, cErr.UserMessage)
			assert.Equal(t, "session has been revoked", cErr.Message)
		})
	}

	for cat := range userMessages {
		assert.NotEmpty(t, cat.UserMessage(LanguageTurkish))
		assert.NotEmpty(t, cat.UserMessage(LanguageEnglish))
	}
}

func TestListParams(t *testing.T) {
	var got map[string]string
	srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = map[string]string{}
		for k := range r.URL.Query() {
			got[k] = r.URL.Query().Get(k)
		}
		respond(http.StatusOK, `{"data": [], "pagination": {"page": 2, "perPage": 10, "total": 11, "totalPages": 2, "hasPrev": true}}`)(w, r)
	})
	c := newTestClient(t, srv, Config{}, nil)

	page, err := c.Students.List(context.Background(), ListParams{
		Page:     2,
		PerPage:  10,
		Ordering: []string{"lastName", "-createdAt"},
		Filters:  map[string]string{"search": "ada", "classId": ""},
	})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.True(t, page.Pagination.HasPrev)
	assert.Equal(t, map[string]string{"page": "2", "perPage": "10", "ordering": "lastName,-createdAt", "search": "ada"}, got)
}

func TestNewPanicsWithoutBaseURL(t *testing.T) {
	assert.Panics(t, func() { New(Config{}, StaticSession(testSession)) })
	assert.Panics(t, func() { New(Config{BaseURL: "http://localhost"}, nil) })
}
