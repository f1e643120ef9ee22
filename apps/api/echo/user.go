package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/tenant"
	"github.com/iepapp/iep/core/user"
)

const contextObjectKey = "object"

var errUsrNotFoundInCtx = errors.New("user object not found in echo.Context")

type userApi struct {
	svc         *user.Service
	tenants     *tenant.Service
	auth        *Auth
	revocations user.RevocationStore
	validate    *validator.Validate
	logger      core.Logger
}

func registerUserAPI(g, authed *echo.Group, auth *Auth, deps *Deps) {
	api := userApi{
		svc:         deps.UserSvc,
		tenants:     deps.TenantSvc,
		auth:        auth,
		revocations: deps.Revocations,
		validate:    deps.Validate,
		logger:      deps.Logger,
	}

	// un-authed endpoints
	ug := g.Group("/users")
	ug.POST("/login", api.login)
	ug.POST("/password-reset", api.resetPassword)
	ug.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	ag := authed.Group("/users")
	ag.POST("/token-refresh", api.refreshToken)
	ag.POST("/logout", api.logout)
	ag.GET("", api.query, adminOnly)
	ag.POST("", api.create, adminOnly)
	ag.GET("/roles", api.queryRoles, adminOnly)

	// detail endpoints
	dg := ag.Group("/:id", ctxUserOrAdminMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy, adminOnly)
}

type (
	LoginRequest struct {
		Tenant   string `json:"tenant" validate:"required"`
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	PasswordResetRequest struct {
		Tenant string `json:"tenant" validate:"required"`
		Email  string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Tenant = core.CleanString(lr.Tenant, true /* lower */)
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Tenant = core.CleanString(pr.Tenant, true /* lower */)
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}

// Handlers

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := bind(ctx, &data, "LoginRequest"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := authenticate(ctx.Request().Context(), api.tenants, api.svc, data.Tenant, data.Username, data.Password)
	if err != nil {
		return err
	}
	token, err := api.auth.GenerateToken(api.auth.UserClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := api.auth.refresh(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) logout(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	ttl := time.Until(time.Unix(claims.ExpiresAt, 0))
	if err := api.revocations.Revoke(ctx.Request().Context(), claims.Id, ttl); err != nil {
		return errors.Wrap(err, "revoking session")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := bind(ctx, &data, "PasswordResetRequest"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	// do not tell attackers whether the tenant or the account exist
	c := ctx.Request().Context()
	if t, err := api.tenants.GetBySubdomain(c, data.Tenant); err == nil && t.IsActive {
		err = api.svc.RequestPasswordReset(tenant.NewContext(c, t.ID), t.Subdomain, data.Email)
		if err != nil && !core.IsNotFound(err) {
			api.logger.Error("requesting password reset", errors.Wrap(err, "requesting password reset"))
		}
	} else if err != nil && !core.IsNotFound(err) {
		api.logger.Error("requesting password reset", errors.Wrap(err, "finding tenant"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *userApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := bind(ctx, &data, "ResetUserPassword"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c := ctx.Request().Context()
	t, err := api.tenants.GetBySubdomain(c, data.Tenant)
	if err != nil || !t.IsActive {
		if err == nil || core.IsNotFound(err) {
			return core.NewValidationError(nil, core.FieldError{Field: "tenant", Error: tenant.ErrNotFound.Error()})
		}
		return errors.Wrap(err, "finding tenant")
	}
	if err := api.svc.ResetPassword(tenant.NewContext(c, t.ID), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := bind(ctx, &data, "NewUser"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	usr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) query(ctx echo.Context) error {
	opts, err := bindListOptions(ctx)
	if err != nil {
		return err
	}
	filter := user.QueryFilter{Search: ctx.QueryParam("search"), Roles: queryList(ctx, "role")}
	if filter.IsActive, err = queryBool(ctx, "isActive"); err != nil {
		return err
	}
	if filter.CreatedFrom, err = queryTime(ctx, "createdFrom"); err != nil {
		return err
	}
	if filter.CreatedTo, err = queryTime(ctx, "createdTo"); err != nil {
		return err
	}
	filter.Clean()

	users, total, err := api.svc.Query(ctx.Request().Context(), filter, opts)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	return ctx.JSON(http.StatusOK, newListResponse(users, total, opts.Page))
}

func (api *userApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, user.Roles)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, ok := ctx.Get(contextObjectKey).(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	usr, ok := ctx.Get(contextObjectKey).(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}

	var data user.UpdateUser
	if err := bind(ctx, &data, "UpdateUser"); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !ctxUsr.IsAdmin() {
		// `IsActive`, `Role`, `Username` and `Email` can only be changed by an admin
		if data.IsActive != nil || data.Role != "" || data.Username != "" || data.Email != "" {
			return errHttpForbidden
		}
	}
	if err := data.Validate(usr, api.validate); err != nil {
		return err
	}

	usr, err = api.svc.Update(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	usr, ok := ctx.Get(contextObjectKey).(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}

	// users cannot delete themselves
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if usr.ID == claims.Subject {
		return errHttpForbidden
	}

	if err := api.svc.Delete(ctx.Request().Context(), usr.ID); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// ctxUserOrAdminMiddleware loads the `:id` user into the context when it is the session user
// or the session user is an admin. Others get a 404.
func ctxUserOrAdminMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if ctx.Param("id") == claims.Subject || claims.HasRole(user.RoleAdmin) {
				usr, err := svc.Get(ctx.Request().Context(), ctx.Param("id"))
				if err == nil {
					ctx.Set(contextObjectKey, usr)
					return next(ctx)
				}
				if !core.IsNotFound(err) {
					return errors.Wrap(err, "finding user by ID")
				}
			}
			return errHttpNotFound
		}
	}
}
