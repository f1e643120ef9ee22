package dig_container

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/iepapp/iep/apps/api/echo"
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
	emailsvc "github.com/iepapp/iep/services/email"
	logsvc "github.com/iepapp/iep/services/logger"
	schedulersvc "github.com/iepapp/iep/services/scheduler"
	webhooksvc "github.com/iepapp/iep/services/webhook"
	"github.com/iepapp/iep/storage/cache"
	"github.com/iepapp/iep/storage/database"
	inmemdb "github.com/iepapp/iep/storage/database/inmem"
	sqlxrepos "github.com/iepapp/iep/storage/database/sqlx"
)

// EngineMemory selects the in-memory store instead of Postgres.
const EngineMemory = "memory"

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// Repositories are the stores of every domain, all backed by the same database.
	Repositories struct {
		dig.Out
		Tenants     tenant.Repository
		Users       user.Repository
		Students    student.Repository
		Teachers    teacher.Repository
		Classes     class.Repository
		Assignments assignment.Repository
		Grades      grade.Repository
		Attendance  attendance.Repository
		Files       file.Repository
		Webhooks    webhook.Repository
		Backups     backup.Repository
		Schedules   schedule.Repository
	}

	ServiceParams struct {
		dig.In
		Conf        *core.Config
		Logger      core.Logger
		MailSvc     core.EmailService
		Sender      webhook.Sender
		Tenants     tenant.Repository
		Users       user.Repository
		Students    student.Repository
		Teachers    teacher.Repository
		Classes     class.Repository
		Assignments assignment.Repository
		Grades      grade.Repository
		Attendance  attendance.Repository
		Files       file.Repository
		Webhooks    webhook.Repository
		Backups     backup.Repository
		Schedules   schedule.Repository
	}

	Services struct {
		dig.Out
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

	// DepsParam collects the API dependencies.
	DepsParam struct {
		dig.In
		Conf          *core.Config
		Logger        core.Logger
		Validate      *validator.Validate
		Translator    ut.Translator
		Revocations   user.RevocationStore
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
)

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

// newValidator returns the validator with the rules of every domain registered.
func newValidator(conf *core.Config) (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator(conf.Locale)
	tenant.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	class.InitValidators(validate, translator)
	webhook.InitValidators(validate, translator)
	return validate, translator
}

// newSQLDB creates, connects to and migrates the Postgres database.
func newSQLDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	setUp := func() (*sqlx.DB, error) {
		ctx := context.Background()
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}
		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}
		if err = database.Ping(ctx, db.DB); err != nil {
			return nil, err
		}
		if err = database.Migrate(db.DB); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newRepositories(conf *core.Config, loggerParam DBLoggerParam) Repositories {
	if conf.Database.Engine == EngineMemory {
		loggerParam.Logger.Warn("using the in-memory store: data is lost on shutdown")
		db := inmemdb.NewDB()
		return Repositories{
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
		}
	}

	s := sqlxrepos.NewStore(newSQLDB(conf, loggerParam))
	return Repositories{
		Tenants:     sqlxrepos.NewTenantRepository(s),
		Users:       sqlxrepos.NewUserRepository(s),
		Students:    sqlxrepos.NewStudentRepository(s),
		Teachers:    sqlxrepos.NewTeacherRepository(s),
		Classes:     sqlxrepos.NewClassRepository(s),
		Assignments: sqlxrepos.NewAssignmentRepository(s),
		Grades:      sqlxrepos.NewGradeRepository(s),
		Attendance:  sqlxrepos.NewAttendanceRepository(s),
		Files:       sqlxrepos.NewFileRepository(s),
		Webhooks:    sqlxrepos.NewWebhookRepository(s),
		Backups:     sqlxrepos.NewBackupRepository(s),
		Schedules:   sqlxrepos.NewScheduleRepository(s),
	}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridAPIKey == "" {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newWebhookSender(conf *core.Config) webhook.Sender {
	return webhooksvc.NewSender(conf, &http.Client{})
}

// newRevocationStore uses redis when configured so that logouts hold across API instances.
func newRevocationStore(conf *core.Config, logger core.Logger) user.RevocationStore {
	if conf.RedisURL == "" {
		return cache.NewMemoryRevocationStore()
	}
	client, err := cache.NewRedisClient(context.Background(), conf.RedisURL)
	if err != nil {
		logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
	}
	return cache.NewRedisRevocationStore(client)
}

// NewServices wires the domain services together.
func NewServices(p ServiceParams) Services {
	tenantSvc := tenant.NewService(p.Tenants)
	studentSvc := student.NewService(p.Students)
	teacherSvc := teacher.NewService(p.Teachers)
	classSvc := class.NewService(p.Classes, studentSvc, teacherSvc)
	webhookSvc := webhook.NewService(p.Webhooks, p.Sender, p.Logger)
	assignmentSvc := assignment.NewService(p.Assignments, classSvc, webhookSvc)
	gradeSvc := grade.NewService(p.Grades, assignmentSvc, classSvc, webhookSvc)
	assignmentSvc.SetScoreSource(gradeSvc)
	userSvc := user.NewService(p.Conf, p.Users, p.MailSvc)

	return Services{
		TenantSvc:     tenantSvc,
		UserSvc:       userSvc,
		StudentSvc:    studentSvc,
		TeacherSvc:    teacherSvc,
		ClassSvc:      classSvc,
		AssignmentSvc: assignmentSvc,
		GradeSvc:      gradeSvc,
		AttendanceSvc: attendance.NewService(p.Attendance, classSvc, webhookSvc),
		FileSvc:       file.NewService(p.Conf, p.Files, userSvc),
		WebhookSvc:    webhookSvc,
		BackupSvc:     backup.NewService(p.Backups, tenantSvc, webhookSvc, p.Logger),
		ScheduleSvc:   schedule.NewService(p.Schedules, classSvc, teacherSvc),
	}
}

func newDeps(p DepsParam) *echoapi.Deps {
	return &echoapi.Deps{
		Conf:          p.Conf,
		Logger:        p.Logger,
		Validate:      p.Validate,
		Translator:    p.Translator,
		Revocations:   p.Revocations,
		TenantSvc:     p.TenantSvc,
		UserSvc:       p.UserSvc,
		StudentSvc:    p.StudentSvc,
		TeacherSvc:    p.TeacherSvc,
		ClassSvc:      p.ClassSvc,
		AssignmentSvc: p.AssignmentSvc,
		GradeSvc:      p.GradeSvc,
		AttendanceSvc: p.AttendanceSvc,
		FileSvc:       p.FileSvc,
		WebhookSvc:    p.WebhookSvc,
		BackupSvc:     p.BackupSvc,
		ScheduleSvc:   p.ScheduleSvc,
	}
}

func newShutdownChan() chan os.Signal {
	return make(chan os.Signal, 1)
}

func newServer(conf *core.Config, shutdown chan os.Signal, deps *echoapi.Deps) echoapi.Server {
	return echoapi.NewServer(conf.Server.Address, shutdown, deps)
}

// newScheduler schedules a backup of every active tenant on `backup.schedule`.
func newScheduler(conf *core.Config, logger core.Logger, backups *backup.Service) (*schedulersvc.Scheduler, error) {
	s := schedulersvc.New(logger)
	if err := s.Add("backups", conf.BackupSchedule, backups.RunScheduled); err != nil {
		return nil, err
	}
	return s, nil
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newValidator))
	must(c.Provide(newRepositories))
	must(c.Provide(newEmailService))
	must(c.Provide(newWebhookSender))
	must(c.Provide(newRevocationStore))
	must(c.Provide(NewServices))
	must(c.Provide(newDeps))
	must(c.Provide(newShutdownChan))
	must(c.Provide(newServer))
	must(c.Provide(newScheduler))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
