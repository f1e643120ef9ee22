package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iepapp/iep/core/tenant"
)

type tenantApi struct {
	svc      *tenant.Service
	validate *validator.Validate
}

func registerTenantAPI(authed *echo.Group, deps *Deps) {
	api := tenantApi{svc: deps.TenantSvc, validate: deps.Validate}

	g := authed.Group("/tenant")
	g.GET("", api.retrieve)
	g.PUT("", api.update, adminOnly)
	g.GET("/onboarding", api.onboarding, adminOnly)
	g.POST("/onboarding/:step", api.completeStep, adminOnly)
}

func (api *tenantApi) retrieve(ctx echo.Context) error {
	t, err := getContextTenant(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *tenantApi) update(ctx echo.Context) error {
	t, err := getContextTenant(ctx)
	if err != nil {
		return err
	}

	var data tenant.UpdateTenant
	if err := bind(ctx, &data, "UpdateTenant"); err != nil {
		return err
	}
	if err := data.Validate(t, api.validate); err != nil {
		return err
	}

	t, err = api.svc.Update(ctx.Request().Context(), t.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating tenant")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *tenantApi) onboarding(ctx echo.Context) error {
	t, err := getContextTenant(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tenant.OnboardingOf(t))
}

func (api *tenantApi) completeStep(ctx echo.Context) error {
	t, err := getContextTenant(ctx)
	if err != nil {
		return err
	}
	ob, err := api.svc.CompleteOnboardingStep(ctx.Request().Context(), t.ID, ctx.Param("step"))
	if err != nil {
		return errors.Wrap(err, "completing onboarding step")
	}
	return ctx.JSON(http.StatusOK, ob)
}
