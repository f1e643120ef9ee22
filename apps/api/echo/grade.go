package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iepapp/iep/core/grade"
	"github.com/iepapp/iep/core/student"
)

type gradeApi struct {
	svc      *grade.Service
	students *student.Service
	validate *validator.Validate
}

func registerGradeAPI(authed *echo.Group, deps *Deps) {
	api := gradeApi{svc: deps.GradeSvc, students: deps.StudentSvc, validate: deps.Validate}

	g := authed.Group("/grades")
	g.GET("", api.query)
	g.POST("", api.create, staffOnly)
	g.GET("/summary", api.summary)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update, staffOnly)
	g.DELETE("/:id", api.destroy, staffOnly)
}

func (api *gradeApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	var data grade.NewGrade
	if err := bind(ctx, &data, "NewGrade"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	g, err := api.svc.Create(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "creating grade")
	}
	return ctx.JSON(http.StatusCreated, g)
}

func (api *gradeApi) query(ctx echo.Context) error {
	opts, err := bindListOptions(ctx)
	if err != nil {
		return err
	}
	filter := grade.QueryFilter{
		StudentID:    ctx.QueryParam("studentId"),
		ClassID:      ctx.QueryParam("classId"),
		AssignmentID: ctx.QueryParam("assignmentId"),
	}

	ids, scoped, err := studentScope(ctx, api.students)
	if err != nil {
		return err
	}
	if scoped {
		if len(ids) == 0 || (filter.StudentID != "" && !inScope(ids, filter.StudentID)) {
			return ctx.JSON(http.StatusOK, newListResponse([]grade.Grade{}, 0, opts.Page))
		}
		filter.StudentIDs = ids
	}

	grades, total, err := api.svc.Query(ctx.Request().Context(), filter, opts)
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	return ctx.JSON(http.StatusOK, newListResponse(grades, total, opts.Page))
}

func (api *gradeApi) summary(ctx echo.Context) error {
	studentID := ctx.QueryParam("studentId")
	ids, scoped, err := studentScope(ctx, api.students)
	if err != nil {
		return err
	}
	if scoped {
		// a student may omit their own ID
		if studentID == "" && len(ids) == 1 {
			studentID = ids[0]
		}
		if !inScope(ids, studentID) {
			return errHttpNotFound
		}
	}
	if studentID == "" {
		return invalidParam("studentId", "studentId is a required field")
	}

	sum, err := api.svc.Summary(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "computing grade summary")
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *gradeApi) retrieve(ctx echo.Context) error {
	g, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding grade by ID")
	}
	ids, scoped, err := studentScope(ctx, api.students)
	if err != nil {
		return err
	}
	if scoped && !inScope(ids, g.StudentID) {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *gradeApi) update(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	var data grade.UpdateGrade
	if err := bind(ctx, &data, "UpdateGrade"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	g, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "updating grade")
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *gradeApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	return ctx.NoContent(http.StatusNoContent)
}
