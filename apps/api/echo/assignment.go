package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iepapp/iep/core/assignment"
)

type assignmentApi struct {
	svc      *assignment.Service
	validate *validator.Validate
}

func registerAssignmentAPI(authed *echo.Group, deps *Deps) {
	api := assignmentApi{svc: deps.AssignmentSvc, validate: deps.Validate}

	g := authed.Group("/assignments")
	g.GET("", api.query)
	g.POST("", api.create, staffOnly)
	g.GET("/statistics", api.statistics)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update, staffOnly)
	g.DELETE("/:id", api.destroy, staffOnly)
}

func (api *assignmentApi) filter(ctx echo.Context) (assignment.QueryFilter, error) {
	filter := assignment.QueryFilter{
		Search:    ctx.QueryParam("search"),
		ClassID:   ctx.QueryParam("classId"),
		ClassIDs:  queryList(ctx, "classIds"),
		TeacherID: ctx.QueryParam("teacherId"),
		Status:    ctx.QueryParam("status"),
	}
	var err error
	if filter.DueFrom, err = queryTime(ctx, "dueFrom"); err != nil {
		return filter, err
	}
	if filter.DueTo, err = queryTime(ctx, "dueTo"); err != nil {
		return filter, err
	}
	filter.Clean()
	return filter, nil
}

func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := bind(ctx, &data, "NewAssignment"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	a, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *assignmentApi) query(ctx echo.Context) error {
	opts, err := bindListOptions(ctx)
	if err != nil {
		return err
	}
	filter, err := api.filter(ctx)
	if err != nil {
		return err
	}
	assignments, total, err := api.svc.Query(ctx.Request().Context(), filter, opts)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	return ctx.JSON(http.StatusOK, newListResponse(assignments, total, opts.Page))
}

func (api *assignmentApi) statistics(ctx echo.Context) error {
	filter, err := api.filter(ctx)
	if err != nil {
		return err
	}
	stats, err := api.svc.Statistics(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "computing assignment statistics")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	a, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding assignment by ID")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) update(ctx echo.Context) error {
	var data assignment.UpdateAssignment
	if err := bind(ctx, &data, "UpdateAssignment"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	a, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}
