package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	dig_container "github.com/iepapp/iep/apps/api/di/dig"
	echoapi "github.com/iepapp/iep/apps/api/echo"
	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/backup"
	"github.com/iepapp/iep/core/user"
	"github.com/iepapp/iep/core/webhook"
	schedulersvc "github.com/iepapp/iep/services/scheduler"
)

func main() {
	c := dig_container.New()

	must(c.Invoke(func(
		conf *core.Config,
		apiLogger core.Logger,
		server echoapi.Server,
		shutdown chan os.Signal,
		scheduler *schedulersvc.Scheduler,
		backups *backup.Service,
		webhooks *webhook.Service,
	) {
		// =========================================================================
		// Initialize App

		apiLogger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
		defer apiLogger.Info("Application stopped")

		core.ParseEmailTemplates(conf)
		user.LoadCommonPasswords()

		// =========================================================================
		// Start Debug Service
		//
		// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
		// /debug/vars - Added to the default mux by importing the expvar package.

		expvar.NewString("build").Set(conf.Build)
		expvar.NewString("env").Set(conf.Env)

		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				apiLogger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()

		// =========================================================================
		// Start API Service

		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		serverErrors := make(chan error, 1)
		go func() {
			apiLogger.Info(fmt.Sprintf("API listening on %s", conf.Server.Address))
			serverErrors <- server.Start()
		}()
		scheduler.Start()

		// =========================================================================
		// Shutdown

		select {
		case err := <-serverErrors:
			apiLogger.Fatal(fmt.Sprintf("server error: %v", err), err)

		case sig := <-shutdown:
			apiLogger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

			// give outstanding requests a deadline for completion
			ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
			defer cancel()

			if err := scheduler.Stop(ctx); err != nil {
				apiLogger.Error(fmt.Sprintf("could not stop scheduler: %v", err), err)
			}

			// asking listener to shut down and shed load
			if err := server.Stop(ctx); err != nil {
				apiLogger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

				if err = server.Close(); err != nil {
					apiLogger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
				}
			}

			// let background deliveries and backups finish
			backups.Wait()
			webhooks.Wait()
		}
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
