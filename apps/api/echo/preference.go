package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bunkguard/core/preference"
)

type preferenceApi struct {
	svc      preference.Service
	validate *validator.Validate
}

func registerPreferenceAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := preferenceApi{
		svc:      deps.PrefSvc,
		validate: deps.Validate,
	}

	pg := g.Group("/preferences", jwt)
	pg.GET("", api.retrieve)
	pg.PUT("", api.update)
}

func (api *preferenceApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	prefs, err := api.svc.Get(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "getting preferences")
	}
	return ctx.JSON(http.StatusOK, prefs)
}

func (api *preferenceApi) update(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	var data preference.UpdatePreferences
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePreferences")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	prefs, err := api.svc.Update(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "updating preferences")
	}
	return ctx.JSON(http.StatusOK, prefs)
}
