// Package testutil builds an API backed by the in-memory store and creates fixtures for tests.
package testutil

import (
	"context"
	"io"
	"log"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	dig_container "github.com/iepapp/iep/apps/api/di/dig"
	echoapi "github.com/iepapp/iep/apps/api/echo"
	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/class"
	"github.com/iepapp/iep/core/tenant"
	"github.com/iepapp/iep/core/user"
	"github.com/iepapp/iep/core/webhook"
	emailsvc "github.com/iepapp/iep/services/email"
	logsvc "github.com/iepapp/iep/services/logger"
	"github.com/iepapp/iep/storage/cache"
	inmemdb "github.com/iepapp/iep/storage/database/inmem"
)

// App is an API wired on the in-memory store.
type App struct {
	Conf        *core.Config
	DB          *inmemdb.DB
	Mail        *emailsvc.ConsoleService
	Sender      *RecordingSender
	Revocations *cache.MemoryRevocationStore
	Deps        *echoapi.Deps
	Server      echoapi.Server
	Auth        *echoapi.Auth
}

// NewLogger returns a logger that discards everything.
func NewLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
}

func NewApp(t *testing.T) *App {
	t.Helper()

	conf := core.NewTestConfig()
	logger := NewLogger(conf)
	db := inmemdb.NewDB()
	mail := emailsvc.NewConsoleServiceMock(conf, logger)
	sender := &RecordingSender{Status: http.StatusOK}

	validate, translator := core.NewValidator(conf.Locale)
	tenant.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	class.InitValidators(validate, translator)
	webhook.InitValidators(validate, translator)
	core.ParseEmailTemplates(conf)

	svcs := dig_container.NewServices(dig_container.ServiceParams{
		Conf:        conf,
		Logger:      logger,
		MailSvc:     mail,
		Sender:      sender,
		Tenants:     inmemdb.NewTenantRepository(db),
		Users:       inmemdb.NewUserRepository(db),
		Students:    inmemdb.NewStudentRepository(db),
		Teachers:    inmemdb.NewTeacherRepository(db),
		Classes:     inmemdb.NewClassRepository(db),
		Assignments: inmemdb.NewAssignmentRepository(db),
		Grades:      inmemdb.NewGradeRepository(db),
		Attendance:  inmemdb.NewAttendanceRepository(db),
		Files:       inmemdb.NewFileRepository(db),
		Webhooks:    inmemdb.NewWebhookRepository(db),
		Backups:     inmemdb.NewBackupRepository(db),
		Schedules:   inmemdb.NewScheduleRepository(db),
	})

	revocations := cache.NewMemoryRevocationStore()
	deps := &echoapi.Deps{
		Conf:          conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		Revocations:   revocations,
		TenantSvc:     svcs.TenantSvc,
		UserSvc:       svcs.UserSvc,
		StudentSvc:    svcs.StudentSvc,
		TeacherSvc:    svcs.TeacherSvc,
		ClassSvc:      svcs.ClassSvc,
		AssignmentSvc: svcs.AssignmentSvc,
		GradeSvc:      svcs.GradeSvc,
		AttendanceSvc: svcs.AttendanceSvc,
		FileSvc:       svcs.FileSvc,
		WebhookSvc:    svcs.WebhookSvc,
		BackupSvc:     svcs.BackupSvc,
		ScheduleSvc:   svcs.ScheduleSvc,
	}

	app := &App{
		Conf:        conf,
		DB:          db,
		Mail:        mail,
		Sender:      sender,
		Revocations: revocations,
		Deps:        deps,
		Server:      echoapi.NewServer("", nil, deps),
		Auth:        echoapi.NewAuth(conf),
	}
	t.Cleanup(func() {
		svcs.WebhookSvc.Wait()
		svcs.BackupSvc.Wait()
	})
	return app
}

// Ctx returns a context carrying the tenant.
func Ctx(tenantID string) context.Context {
	return tenant.NewContext(context.Background(), tenantID)
}

func (a *App) CreateTenant(t *testing.T, name, subdomain string) tenant.Tenant {
	t.Helper()
	tnt, err := a.Deps.TenantSvc.Create(context.Background(), tenant.NewTenant{Name: name, Subdomain: subdomain})
	if err != nil {
		t.Fatalf("CreateTenant() failed: %v", err)
	}
	return tnt
}

// CreateUser creates an active user; the password is used as is, without policy checks.
func (a *App) CreateUser(t *testing.T, tenantID, username, role, pwd string) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Name:      username,
		Username:  username,
		Email:     username + "@example.com",
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	if err := inmemdb.NewUserRepository(a.DB).Create(Ctx(tenantID), &usr); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// Token returns a session token of usr.
func (a *App) Token(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := a.Auth.GenerateToken(a.Auth.UserClaims(usr))
	if err != nil {
		t.Fatalf("Token() failed: %v", err)
	}
	return token
}

// RecordingSender is a webhook.Sender that records deliveries and answers with Status.
type RecordingSender struct {
	Status int
	Err    error

	mu        sync.Mutex
	Delivered []Delivery
}

type Delivery struct {
	URL   string
	Event string
	Body  []byte
}

var _ webhook.Sender = (*RecordingSender)(nil)

func (s *RecordingSender) Send(_ context.Context, hook webhook.Webhook, event, _ string, body []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Delivered = append(s.Delivered, Delivery{URL: hook.URL, Event: event, Body: body})
	if s.Err != nil {
		return 0, s.Err
	}
	return s.Status, nil
}

func (s *RecordingSender) Deliveries() []Delivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Delivery(nil), s.Delivered...)
}
