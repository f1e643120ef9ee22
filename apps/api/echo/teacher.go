package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iepapp/iep/core/teacher"
)

type teacherApi struct {
	svc      *teacher.Service
	validate *validator.Validate
}

func registerTeacherAPI(authed *echo.Group, deps *Deps) {
	api := teacherApi{svc: deps.TeacherSvc, validate: deps.Validate}

	g := authed.Group("/teachers")
	g.GET("", api.query)
	g.POST("", api.create, adminOnly)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update, adminOnly)
	g.DELETE("/:id", api.destroy, adminOnly)
}

func (api *teacherApi) create(ctx echo.Context) error {
	var data teacher.NewTeacher
	if err := bind(ctx, &data, "NewTeacher"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	t, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *teacherApi) query(ctx echo.Context) error {
	opts, err := bindListOptions(ctx)
	if err != nil {
		return err
	}
	filter := teacher.QueryFilter{
		Search:  ctx.QueryParam("search"),
		Subject: ctx.QueryParam("subject"),
		ClassID: ctx.QueryParam("classId"),
	}
	filter.Clean()

	teachers, total, err := api.svc.Query(ctx.Request().Context(), filter, opts)
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	return ctx.JSON(http.StatusOK, newListResponse(teachers, total, opts.Page))
}

func (api *teacherApi) retrieve(ctx echo.Context) error {
	t, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding teacher by ID")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *teacherApi) update(ctx echo.Context) error {
	var data teacher.UpdateTeacher
	if err := bind(ctx, &data, "UpdateTeacher"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	t, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *teacherApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}
