package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bunkguard/core/semester"
)

var errSemNotFoundInCtx = errors.New("semester object not found in echo.Context")

type semesterApi struct {
	svc      semester.Service
	validate *validator.Validate
}

func registerSemesterAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := semesterApi{
		svc:      deps.SemesterSvc,
		validate: deps.Validate,
	}

	sg := g.Group("/semesters", jwt)
	sg.GET("", api.query)
	sg.POST("", api.create)

	dg := sg.Group("/:id", ownSemesterMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)

	g.GET("/gpa", api.gpa, jwt)
}

func contextSemester(ctx echo.Context) (semester.Semester, error) {
	sem, ok := ctx.Get(objectContextKey).(semester.Semester)
	if !ok {
		return semester.Semester{}, errors.Wrap(errSemNotFoundInCtx, "retrieving object from context")
	}
	return sem, nil
}

// Handlers

func (api *semesterApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	sems, err := api.svc.Query(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying semesters")
	}
	if sems == nil {
		sems = []semester.Semester{}
	}
	return ctx.JSON(http.StatusOK, sems)
}

func (api *semesterApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	var data semester.NewSemester
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSemester")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	sem, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sem)
}

func (api *semesterApi) retrieve(ctx echo.Context) error {
	sem, err := contextSemester(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sem)
}

func (api *semesterApi) update(ctx echo.Context) error {
	sem, err := contextSemester(ctx)
	if err != nil {
		return err
	}
	var data semester.UpdateSemester
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSemester")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if sem, err = api.svc.Update(ctx.Request().Context(), sem, data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sem)
}

func (api *semesterApi) destroy(ctx echo.Context) error {
	sem, err := contextSemester(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), sem.OwnerID, sem.ID); err != nil {
		return errors.Wrap(err, "deleting semester")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *semesterApi) gpa(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	rep, err := api.svc.GPA(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "computing GPA")
	}
	return ctx.JSON(http.StatusOK, rep)
}
