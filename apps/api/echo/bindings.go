package echoapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iepapp/iep/core"
)

const (
	orderingParam = "ordering"
	pageParam     = "page"
	perPageParam  = "perPage"
)

// ListResponse is the envelope of paginated list endpoints.
type ListResponse struct {
	Data       interface{}   `json:"data"`
	Pagination core.PageMeta `json:"pagination"`
}

func newListResponse(data interface{}, total int, page core.PageRequest) ListResponse {
	return ListResponse{Data: data, Pagination: core.NewPageMeta(total, page)}
}

func invalidParam(name, msg string) error {
	return core.NewValidationError(nil, core.FieldError{Field: name, Error: msg})
}

// bindOrdering parses `ordering=a,-b`: JSON field names, "-" for descending, mapped to column names.
func bindOrdering(ctx echo.Context) []core.DBOrdering {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return nil
	}
	var orderings []core.DBOrdering
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:]
		}
		if field == "" {
			continue
		}
		orderings = append(orderings, core.DBOrdering{Field: strcase.ToSnake(field), Ascending: !descending})
	}
	return orderings
}

// bindListOptions reads page, perPage and ordering from the query string.
func bindListOptions(ctx echo.Context) (core.ListOptions, error) {
	page, err := queryInt(ctx, pageParam, 1)
	if err != nil {
		return core.ListOptions{}, err
	}
	perPage, err := queryInt(ctx, perPageParam, core.DefaultPerPage)
	if err != nil {
		return core.ListOptions{}, err
	}
	return core.ListOptions{Page: core.NewPageRequest(page, perPage), Ordering: bindOrdering(ctx)}, nil
}

func queryInt(ctx echo.Context, name string, def int) (int, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return def, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, invalidParam(name, "must be an integer")
	}
	return n, nil
}

func queryBool(ctx echo.Context, name string) (*bool, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return nil, invalidParam(name, "must be a boolean")
	}
	return &b, nil
}

func queryDate(ctx echo.Context, name string) (*core.Date, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return nil, nil
	}
	d, err := core.ParseDate(val)
	if err != nil {
		return nil, invalidParam(name, "must be a date (YYYY-MM-DD)")
	}
	return &d, nil
}

// queryTime accepts RFC 3339 timestamps and plain dates.
func queryTime(ctx echo.Context, name string) (time.Time, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t.UTC(), nil
	}
	d, err := core.ParseDate(val)
	if err != nil {
		return time.Time{}, invalidParam(name, "must be a date or an RFC 3339 timestamp")
	}
	return d.Time, nil
}

// queryList splits a comma separated parameter. It returns nil when the parameter is absent.
func queryList(ctx echo.Context, name string) []string {
	val := ctx.QueryParam(name)
	if val == "" {
		return nil
	}
	out := make([]string, 0)
	for _, v := range strings.Split(val, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// bind decodes the request body into dest.
func bind(ctx echo.Context, dest interface{}, name string) error {
	if err := ctx.Bind(dest); err != nil {
		if herr, ok := err.(*echo.HTTPError); ok && herr.Code < 500 {
			return core.NewValidationError(nil, core.FieldError{Field: "body", Error: "malformed " + name})
		}
		return errors.Wrap(err, "binding to "+name)
	}
	return nil
}
