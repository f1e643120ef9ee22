package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iepapp/iep/core/schedule"
)

type scheduleApi struct {
	svc      *schedule.Service
	validate *validator.Validate
}

func registerScheduleAPI(authed *echo.Group, deps *Deps) {
	api := scheduleApi{svc: deps.ScheduleSvc, validate: deps.Validate}

	g := authed.Group("/schedules")
	g.GET("", api.query)
	g.POST("", api.create, staffOnly)
	g.GET("/conflicts", api.conflicts, staffOnly)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update, staffOnly)
	g.DELETE("/:id", api.destroy, staffOnly)
}

func (api *scheduleApi) create(ctx echo.Context) error {
	var data schedule.NewEntry
	if err := bind(ctx, &data, "NewEntry"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	e, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating schedule entry")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *scheduleApi) query(ctx echo.Context) error {
	opts, err := bindListOptions(ctx)
	if err != nil {
		return err
	}
	filter := schedule.QueryFilter{
		ClassID:   ctx.QueryParam("classId"),
		ClassIDs:  queryList(ctx, "classIds"),
		TeacherID: ctx.QueryParam("teacherId"),
		Room:      ctx.QueryParam("room"),
	}
	if filter.Weekday, err = queryInt(ctx, "weekday", 0); err != nil {
		return err
	}

	entries, total, err := api.svc.Query(ctx.Request().Context(), filter, opts)
	if err != nil {
		return errors.Wrap(err, "querying schedule")
	}
	return ctx.JSON(http.StatusOK, newListResponse(entries, total, opts.Page))
}

func (api *scheduleApi) conflicts(ctx echo.Context) error {
	conflicts, err := api.svc.Conflicts(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing schedule conflicts")
	}
	return ctx.JSON(http.StatusOK, conflicts)
}

func (api *scheduleApi) retrieve(ctx echo.Context) error {
	e, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding schedule entry by ID")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *scheduleApi) update(ctx echo.Context) error {
	var data schedule.UpdateEntry
	if err := bind(ctx, &data, "UpdateEntry"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	e, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating schedule entry")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *scheduleApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting schedule entry")
	}
	return ctx.NoContent(http.StatusNoContent)
}
