package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iepapp/iep/core/webhook"
)

type webhookApi struct {
	svc      *webhook.Service
	validate *validator.Validate
}

func registerWebhookAPI(authed *echo.Group, deps *Deps) {
	api := webhookApi{svc: deps.WebhookSvc, validate: deps.Validate}

	g := authed.Group("/webhooks", adminOnly)
	g.GET("", api.query)
	g.POST("", api.create)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update)
	g.DELETE("/:id", api.destroy)
	g.POST("/:id/ping", api.ping)
}

func (api *webhookApi) create(ctx echo.Context) error {
	var data webhook.NewWebhook
	if err := bind(ctx, &data, "NewWebhook"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	w, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating webhook")
	}
	return ctx.JSON(http.StatusCreated, w)
}

func (api *webhookApi) query(ctx echo.Context) error {
	opts, err := bindListOptions(ctx)
	if err != nil {
		return err
	}
	filter := webhook.QueryFilter{Event: ctx.QueryParam("event")}
	if filter.IsActive, err = queryBool(ctx, "isActive"); err != nil {
		return err
	}

	hooks, total, err := api.svc.Query(ctx.Request().Context(), filter, opts)
	if err != nil {
		return errors.Wrap(err, "querying webhooks")
	}
	return ctx.JSON(http.StatusOK, newListResponse(hooks, total, opts.Page))
}

func (api *webhookApi) retrieve(ctx echo.Context) error {
	w, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding webhook by ID")
	}
	return ctx.JSON(http.StatusOK, w)
}

func (api *webhookApi) update(ctx echo.Context) error {
	var data webhook.UpdateWebhook
	if err := bind(ctx, &data, "UpdateWebhook"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	w, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating webhook")
	}
	return ctx.JSON(http.StatusOK, w)
}

func (api *webhookApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting webhook")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// ping delivers a ping event synchronously and reports the outcome.
func (api *webhookApi) ping(ctx echo.Context) error {
	d, err := api.svc.Ping(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "pinging webhook")
	}
	return ctx.JSON(http.StatusOK, d)
}
