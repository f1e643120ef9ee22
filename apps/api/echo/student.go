package echoapi

import (
	"bytes"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/student"
	excelsvc "github.com/iepapp/iep/services/excel"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type studentApi struct {
	svc        *student.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerStudentAPI(authed *echo.Group, deps *Deps) {
	api := studentApi{svc: deps.StudentSvc, validate: deps.Validate, translator: deps.Translator}

	g := authed.Group("/students")
	g.GET("", api.query)
	g.POST("", api.create, adminOnly)
	g.POST("/import", api.importXLSX, adminOnly)
	g.GET("/export", api.exportXLSX, staffOnly)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update, adminOnly)
	g.DELETE("/:id", api.destroy, adminOnly)
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := bind(ctx, &data, "NewStudent"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	s, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *studentApi) filter(ctx echo.Context) (student.QueryFilter, bool, error) {
	filter := student.QueryFilter{Search: ctx.QueryParam("search"), ClassID: ctx.QueryParam("classId")}
	filter.Clean()

	ids, scoped, err := studentScope(ctx, api.svc)
	if err != nil {
		return filter, false, err
	}
	if scoped {
		if len(ids) == 0 {
			return filter, false, nil
		}
		filter.IDs = ids
	}
	return filter, true, nil
}

func (api *studentApi) query(ctx echo.Context) error {
	opts, err := bindListOptions(ctx)
	if err != nil {
		return err
	}
	filter, ok, err := api.filter(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ctx.JSON(http.StatusOK, newListResponse([]student.Student{}, 0, opts.Page))
	}

	students, total, err := api.svc.Query(ctx.Request().Context(), filter, opts)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, newListResponse(students, total, opts.Page))
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	ids, scoped, err := studentScope(ctx, api.svc)
	if err != nil {
		return err
	}
	if scoped && !inScope(ids, ctx.Param("id")) {
		return errHttpNotFound
	}
	s, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding student by ID")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) update(ctx echo.Context) error {
	var data student.UpdateStudent
	if err := bind(ctx, &data, "UpdateStudent"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	s, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// importXLSX creates the students of the `file` spreadsheet; rows that fail are reported with their number.
func (api *studentApi) importXLSX(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return invalidParam("file", "an .xlsx file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer f.Close()

	rows, err := excelsvc.ReadStudents(f)
	if err != nil {
		return err
	}
	res, err := api.svc.Import(ctx.Request().Context(), rows, api.validate, api.translator)
	if err != nil {
		return errors.Wrap(err, "importing students")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *studentApi) exportXLSX(ctx echo.Context) error {
	filter := student.QueryFilter{Search: ctx.QueryParam("search"), ClassID: ctx.QueryParam("classId")}
	filter.Clean()

	students, _, err := api.svc.Query(ctx.Request().Context(), filter, core.AllRows)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	var buf bytes.Buffer
	if err := excelsvc.WriteStudents(&buf, students); err != nil {
		return errors.Wrap(err, "writing students workbook")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="students.xlsx"`)
	return ctx.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}
