package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iepapp/iep/core/attendance"
	"github.com/iepapp/iep/core/student"
)

type attendanceApi struct {
	svc      *attendance.Service
	students *student.Service
	validate *validator.Validate
}

func registerAttendanceAPI(authed *echo.Group, deps *Deps) {
	api := attendanceApi{svc: deps.AttendanceSvc, students: deps.StudentSvc, validate: deps.Validate}

	g := authed.Group("/attendance")
	g.GET("", api.query)
	g.POST("", api.record, staffOnly)
	g.POST("/bulk", api.recordBulk, staffOnly)
	g.GET("/summary", api.summary)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update, staffOnly)
	g.DELETE("/:id", api.destroy, staffOnly)
}

// filter reads the query filter restricted to the session scope. ok is false when nothing is readable.
func (api *attendanceApi) filter(ctx echo.Context) (filter attendance.QueryFilter, ok bool, err error) {
	filter = attendance.QueryFilter{
		ClassID:   ctx.QueryParam("classId"),
		StudentID: ctx.QueryParam("studentId"),
		Status:    ctx.QueryParam("status"),
	}
	if filter.DateFrom, err = queryDate(ctx, "dateFrom"); err != nil {
		return filter, false, err
	}
	if filter.DateTo, err = queryDate(ctx, "dateTo"); err != nil {
		return filter, false, err
	}

	ids, scoped, err := studentScope(ctx, api.students)
	if err != nil {
		return filter, false, err
	}
	if scoped {
		if len(ids) == 0 || (filter.StudentID != "" && !inScope(ids, filter.StudentID)) {
			return filter, false, nil
		}
		filter.StudentIDs = ids
	}
	return filter, true, nil
}

func (api *attendanceApi) record(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	var data attendance.NewRecord
	if err := bind(ctx, &data, "NewRecord"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	rec, err := api.svc.Record(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "recording attendance")
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *attendanceApi) recordBulk(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	var data attendance.BulkRecord
	if err := bind(ctx, &data, "BulkRecord"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	recs, err := api.svc.RecordBulk(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "recording attendance in bulk")
	}
	return ctx.JSON(http.StatusCreated, recs)
}

func (api *attendanceApi) query(ctx echo.Context) error {
	opts, err := bindListOptions(ctx)
	if err != nil {
		return err
	}
	filter, ok, err := api.filter(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ctx.JSON(http.StatusOK, newListResponse([]attendance.Record{}, 0, opts.Page))
	}
	recs, total, err := api.svc.Query(ctx.Request().Context(), filter, opts)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	return ctx.JSON(http.StatusOK, newListResponse(recs, total, opts.Page))
}

func (api *attendanceApi) summary(ctx echo.Context) error {
	filter, ok, err := api.filter(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ctx.JSON(http.StatusOK, attendance.Summary{})
	}
	sum, err := api.svc.Summary(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "computing attendance summary")
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *attendanceApi) retrieve(ctx echo.Context) error {
	rec, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding attendance record by ID")
	}
	ids, scoped, err := studentScope(ctx, api.students)
	if err != nil {
		return err
	}
	if scoped && !inScope(ids, rec.StudentID) {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) update(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	var data attendance.UpdateRecord
	if err := bind(ctx, &data, "UpdateRecord"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	rec, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "updating attendance record")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting attendance record")
	}
	return ctx.NoContent(http.StatusNoContent)
}
