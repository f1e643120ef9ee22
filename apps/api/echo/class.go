package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iepapp/iep/core/class"
	"github.com/iepapp/iep/core/student"
)

type classApi struct {
	svc      *class.Service
	students *student.Service
	validate *validator.Validate
}

func registerClassAPI(authed *echo.Group, deps *Deps) {
	api := classApi{svc: deps.ClassSvc, students: deps.StudentSvc, validate: deps.Validate}

	g := authed.Group("/classes")
	g.GET("", api.query)
	g.POST("", api.create, adminOnly)

	dg := g.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminOnly)
	dg.DELETE("", api.destroy, adminOnly)

	// members
	dg.GET("/students", api.queryStudents, staffOnly)
	dg.POST("/students", api.enroll, adminOnly)
	dg.DELETE("/students/:studentId", api.unenroll, adminOnly)
	dg.GET("/teachers", api.queryTeachers)
	dg.POST("/teachers", api.assignTeacher, adminOnly)
	dg.DELETE("/teachers/:teacherId", api.removeTeacher, adminOnly)
}

func (api *classApi) create(ctx echo.Context) error {
	var data class.NewClass
	if err := bind(ctx, &data, "NewClass"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	cls, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *classApi) query(ctx echo.Context) error {
	opts, err := bindListOptions(ctx)
	if err != nil {
		return err
	}
	filter := class.QueryFilter{Search: ctx.QueryParam("search"), AcademicYear: ctx.QueryParam("academicYear")}
	if ctx.QueryParam("gradeLevel") != "" {
		lvl, err := queryInt(ctx, "gradeLevel", 0)
		if err != nil {
			return err
		}
		filter.GradeLevel = &lvl
	}
	filter.Clean()

	classes, total, err := api.svc.Query(ctx.Request().Context(), filter, opts)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	return ctx.JSON(http.StatusOK, newListResponse(classes, total, opts.Page))
}

func (api *classApi) retrieve(ctx echo.Context) error {
	cls, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding class by ID")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) update(ctx echo.Context) error {
	var data class.UpdateClass
	if err := bind(ctx, &data, "UpdateClass"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	cls, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classApi) queryStudents(ctx echo.Context) error {
	opts, err := bindListOptions(ctx)
	if err != nil {
		return err
	}
	c := ctx.Request().Context()
	cls, err := api.svc.Get(c, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding class by ID")
	}

	filter := student.QueryFilter{Search: ctx.QueryParam("search"), ClassID: cls.ID}
	filter.Clean()
	students, total, err := api.students.Query(c, filter, opts)
	if err != nil {
		return errors.Wrap(err, "querying class students")
	}
	return ctx.JSON(http.StatusOK, newListResponse(students, total, opts.Page))
}

func (api *classApi) enroll(ctx echo.Context) error {
	var data class.EnrollStudents
	if err := bind(ctx, &data, "EnrollStudents"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if err := api.svc.Enroll(ctx.Request().Context(), ctx.Param("id"), data); err != nil {
		return errors.Wrap(err, "enrolling students")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classApi) unenroll(ctx echo.Context) error {
	if err := api.svc.Unenroll(ctx.Request().Context(), ctx.Param("id"), ctx.Param("studentId")); err != nil {
		return errors.Wrap(err, "unenrolling student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classApi) queryTeachers(ctx echo.Context) error {
	c := ctx.Request().Context()
	cls, err := api.svc.Get(c, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding class by ID")
	}
	teachers, err := api.svc.Teachers(c, cls.ID)
	if err != nil {
		return errors.Wrap(err, "querying class teachers")
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *classApi) assignTeacher(ctx echo.Context) error {
	var data class.AssignTeacher
	if err := bind(ctx, &data, "AssignTeacher"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	ct, err := api.svc.AssignTeacher(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "assigning teacher")
	}
	return ctx.JSON(http.StatusCreated, ct)
}

func (api *classApi) removeTeacher(ctx echo.Context) error {
	if err := api.svc.RemoveTeacher(ctx.Request().Context(), ctx.Param("id"), ctx.Param("teacherId")); err != nil {
		return errors.Wrap(err, "removing teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}
