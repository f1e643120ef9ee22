package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iepapp/iep/core/backup"
)

type backupApi struct {
	svc *backup.Service
}

func registerBackupAPI(authed *echo.Group, deps *Deps) {
	api := backupApi{svc: deps.BackupSvc}

	g := authed.Group("/backups", adminOnly)
	g.GET("", api.query)
	g.POST("", api.start)
	g.GET("/:id", api.retrieve)
	g.POST("/:id/verify", api.verify)
}

// start creates a manual backup job; it runs in the background.
func (api *backupApi) start(ctx echo.Context) error {
	job, err := api.svc.Start(ctx.Request().Context(), backup.TriggerManual)
	if err != nil {
		return errors.Wrap(err, "starting backup")
	}
	return ctx.JSON(http.StatusAccepted, job)
}

func (api *backupApi) query(ctx echo.Context) error {
	opts, err := bindListOptions(ctx)
	if err != nil {
		return err
	}
	filter := backup.QueryFilter{Status: ctx.QueryParam("status"), Trigger: ctx.QueryParam("trigger")}
	jobs, total, err := api.svc.Query(ctx.Request().Context(), filter, opts)
	if err != nil {
		return errors.Wrap(err, "querying backups")
	}
	return ctx.JSON(http.StatusOK, newListResponse(jobs, total, opts.Page))
}

func (api *backupApi) retrieve(ctx echo.Context) error {
	job, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding backup by ID")
	}
	return ctx.JSON(http.StatusOK, job)
}

func (api *backupApi) verify(ctx echo.Context) error {
	job, err := api.svc.Verify(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "verifying backup")
	}
	return ctx.JSON(http.StatusOK, job)
}
