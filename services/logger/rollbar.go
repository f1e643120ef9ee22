package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/user"
)

// Tenant tags a log entry with the tenant it happened in.
type Tenant string

type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.Debug)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// prepare turns args into rollbar args: a user.User sets the person, a Tenant is merged into the
// custom data and everything else (errors, custom data maps) is passed as is.
func (l RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	var (
		usrSet bool
		custom map[string]interface{}
	)
	out := make([]interface{}, 0, len(args)+2)
	out = append(out, msg)
	for _, arg := range args {
		switch v := arg.(type) {
		case user.User:
			if !usrSet {
				rollbar.SetPerson(v.ID, v.Username, v.Email)
				usrSet = true
			}
		case Tenant:
			if custom == nil {
				custom = make(map[string]interface{})
			}
			custom["tenantId"] = string(v)
		case map[string]interface{}:
			if custom == nil {
				custom = make(map[string]interface{}, len(v))
			}
			for k, val := range v {
				custom[k] = val
			}
		default:
			out = append(out, arg)
		}
	}
	if !usrSet {
		rollbar.ClearPerson()
	}
	if custom != nil {
		out = append(out, custom)
	}
	return out
}

func (l RollbarLogger) print(level, msg string, args []interface{}) {
	l.std.Printf("%s: %s", level, msg)
	for _, arg := range args {
		if usr, ok := arg.(user.User); ok {
			l.std.Printf("  user: %s (%s)", usr.Username, usr.ID)
			continue
		}
		l.std.Printf("  %+v", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rollbar.Debug(l.prepare(msg, args)...)
	l.print("DEBUG", msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rollbar.Info(l.prepare(msg, args)...)
	l.print("INFO", msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(l.prepare(msg, args)...)
	l.print("WARN", msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(l.prepare(msg, args)...)
	l.print("ERROR", msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rollbar.Critical(l.prepare(msg, args)...)
	l.print("FATAL", msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
