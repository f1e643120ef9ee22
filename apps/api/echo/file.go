package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iepapp/iep/core/file"
	"github.com/iepapp/iep/core/user"
)

const contextPermKey = "filePermission"

type fileApi struct {
	svc      *file.Service
	validate *validator.Validate
}

func registerFileAPI(authed *echo.Group, deps *Deps) {
	api := fileApi{svc: deps.FileSvc, validate: deps.Validate}

	g := authed.Group("/files")
	g.GET("", api.query)
	g.POST("", api.create, notAStudent)

	dg := g.Group("/:id", api.ctxFileMiddleware)
	dg.GET("", api.retrieve)
	dg.DELETE("", api.destroy, api.requirePermission(file.PermissionEdit))
	dg.PATCH("/status", api.setStatus, api.requirePermission(file.PermissionEdit))
	dg.GET("/shares", api.queryShares, api.requirePermission(file.PermissionEdit))
	dg.POST("/shares", api.share, api.requirePermission(file.PermissionEdit))
	dg.DELETE("/shares/:shareId", api.unshare, api.requirePermission(file.PermissionEdit))

	qg := authed.Group("/storage/quota")
	qg.GET("", api.quota)
	qg.PUT("", api.setQuota, adminOnly)
}

// ctxFileMiddleware loads the `:id` file the session can access into the context.
// Admins access every file of the tenant with edit permission.
func (api *fileApi) ctxFileMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return err
		}
		c := ctx.Request().Context()
		f, err := api.svc.Get(c, ctx.Param("id"))
		if err != nil {
			return errors.Wrap(err, "finding file by ID")
		}

		perm := file.PermissionEdit
		if !claims.HasRole(user.RoleAdmin) {
			if perm, err = api.svc.Permission(c, f, claims.Subject); err != nil {
				return errors.Wrap(err, "checking file permission")
			}
			if perm == "" {
				return errors.Wrap(file.ErrNotFound, "checking file permission")
			}
		}
		ctx.Set(contextObjectKey, f)
		ctx.Set(contextPermKey, perm)
		return next(ctx)
	}
}

func (api *fileApi) requirePermission(perm string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if p, _ := ctx.Get(contextPermKey).(string); p != perm && p != file.PermissionEdit {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

func contextFile(ctx echo.Context) (file.File, error) {
	f, ok := ctx.Get(contextObjectKey).(file.File)
	if !ok {
		return file.File{}, errors.New("file object not found in echo.Context")
	}
	return f, nil
}

func (api *fileApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	var data file.NewFile
	if err := bind(ctx, &data, "NewFile"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	f, err := api.svc.Create(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "creating file")
	}
	return ctx.JSON(http.StatusCreated, f)
}

func (api *fileApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	opts, err := bindListOptions(ctx)
	if err != nil {
		return err
	}
	filter := file.QueryFilter{
		Search:  ctx.QueryParam("search"),
		OwnerID: ctx.QueryParam("ownerId"),
		Status:  ctx.QueryParam("status"),
	}
	if !claims.HasRole(user.RoleAdmin) {
		filter.AccessibleBy = claims.Subject
	}
	filter.Clean()

	files, total, err := api.svc.Query(ctx.Request().Context(), filter, opts)
	if err != nil {
		return errors.Wrap(err, "querying files")
	}
	return ctx.JSON(http.StatusOK, newListResponse(files, total, opts.Page))
}

func (api *fileApi) retrieve(ctx echo.Context) error {
	f, err := contextFile(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, f)
}

func (api *fileApi) destroy(ctx echo.Context) error {
	f, err := contextFile(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), f.ID); err != nil {
		return errors.Wrap(err, "deleting file")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *fileApi) setStatus(ctx echo.Context) error {
	f, err := contextFile(ctx)
	if err != nil {
		return err
	}
	var data file.UpdateStatus
	if err := bind(ctx, &data, "UpdateStatus"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	f, err = api.svc.SetStatus(ctx.Request().Context(), f.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating file status")
	}
	return ctx.JSON(http.StatusOK, f)
}

func (api *fileApi) queryShares(ctx echo.Context) error {
	f, err := contextFile(ctx)
	if err != nil {
		return err
	}
	shares, err := api.svc.Shares(ctx.Request().Context(), f.ID)
	if err != nil {
		return errors.Wrap(err, "listing file shares")
	}
	return ctx.JSON(http.StatusOK, shares)
}

func (api *fileApi) share(ctx echo.Context) error {
	f, err := contextFile(ctx)
	if err != nil {
		return err
	}
	var data file.NewShare
	if err := bind(ctx, &data, "NewShare"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	s, err := api.svc.Share(ctx.Request().Context(), f.ID, data)
	if err != nil {
		return errors.Wrap(err, "sharing file")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *fileApi) unshare(ctx echo.Context) error {
	f, err := contextFile(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Unshare(ctx.Request().Context(), f.ID, ctx.Param("shareId")); err != nil {
		return errors.Wrap(err, "removing file share")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *fileApi) quota(ctx echo.Context) error {
	usage, err := api.svc.Quota(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting storage quota")
	}
	return ctx.JSON(http.StatusOK, usage)
}

func (api *fileApi) setQuota(ctx echo.Context) error {
	var data file.SetQuota
	if err := bind(ctx, &data, "SetQuota"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	usage, err := api.svc.SetQuota(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "setting storage quota")
	}
	return ctx.JSON(http.StatusOK, usage)
}
