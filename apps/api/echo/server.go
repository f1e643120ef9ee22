package echoapi

import (
	"context"
	"net/http"
	"os"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/assignment"
	"github.com/iepapp/iep/core/attendance"
	"github.com/iepapp/iep/core/backup"
	"github.com/iepapp/iep/core/class"
	"github.com/iepapp/iep/core/file"
	"github.com/iepapp/iep/core/grade"
	"github.com/iepapp/iep/core/schedule"
	"github.com/iepapp/iep/core/student"
	"github.com/iepapp/iep/core/teacher"
	"github.com/iepapp/iep/core/tenant"
	"github.com/iepapp/iep/core/user"
	"github.com/iepapp/iep/core/webhook"
)

type (
	// Deps holds the services served by the API.
	Deps struct {
		Conf        *core.Config
		Logger      core.Logger
		Validate    *validator.Validate
		Translator  ut.Translator
		Revocations user.RevocationStore

		TenantSvc     *tenant.Service
		UserSvc       *user.Service
		StudentSvc    *student.Service
		TeacherSvc    *teacher.Service
		ClassSvc      *class.Service
		AssignmentSvc *assignment.Service
		GradeSvc      *grade.Service
		AttendanceSvc *attendance.Service
		FileSvc       *file.Service
		WebhookSvc    *webhook.Service
		BackupSvc     *backup.Service
		ScheduleSvc   *schedule.Service
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
		Close() error
	}

	server struct {
		address  string
		shutdown chan os.Signal
		deps     *Deps
		auth     *Auth
		app      *echo.Echo
	}
)

var _ Server = (*server)(nil)

// NewServer builds the API. A core shutdown error caught while serving sends SIGTERM to shutdown.
func NewServer(address string, shutdown chan os.Signal, deps *Deps) Server {
	s := &server{
		address:  address,
		shutdown: shutdown,
		deps:     deps,
		auth:     NewAuth(deps.Conf),
		app:      echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(timeoutMiddleware(conf.Server.RequestTimeout))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	g := s.app.Group("/api")
	session := []echo.MiddlewareFunc{s.auth.middleware(), sessionMiddleware(s.deps.TenantSvc, s.deps.Revocations)}
	authed := g.Group("", session...)
	// after authed: its Use registers a catch-all on "/api" that would otherwise replace home
	g.GET("", home)

	registerUserAPI(g, authed, s.auth, s.deps)
	registerTenantAPI(authed, s.deps)
	registerStudentAPI(authed, s.deps)
	registerTeacherAPI(authed, s.deps)
	registerClassAPI(authed, s.deps)
	registerAssignmentAPI(authed, s.deps)
	registerGradeAPI(authed, s.deps)
	registerAttendanceAPI(authed, s.deps)
	registerFileAPI(authed, s.deps)
	registerWebhookAPI(authed, s.deps)
	registerBackupAPI(authed, s.deps)
	registerScheduleAPI(authed, s.deps)
}

func (s *server) signalShutdown() {
	if s.shutdown != nil {
		s.shutdown <- syscall.SIGTERM
	}
}

func (s *server) Start() error {
	return s.app.Start(s.address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to İ-EP.APP API!")
}
