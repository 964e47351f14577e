package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bunkguard/core/subject"
)

var errSubjNotFoundInCtx = errors.New("subject object not found in echo.Context")

type subjectApi struct {
	svc      subject.Service
	validate *validator.Validate
}

func registerSubjectAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := subjectApi{
		svc:      deps.SubjectSvc,
		validate: deps.Validate,
	}

	sg := g.Group("/subjects", jwt)
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.DELETE("", api.destroyMultiple)

	// detail endpoints
	dg := sg.Group("/:id", ownSubjectMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.GET("/projection", api.project)
	dg.GET("/attendance", api.logs)
	dg.POST("/attendance", api.mark)
	dg.DELETE("/attendance/:logID", api.undo)

	tg := g.Group("/timetable", jwt)
	tg.GET("", api.timetable)
	tg.POST("", api.addTimetableEntry)
	tg.DELETE("/:id", api.deleteTimetableEntry)

	g.GET("/calendar", api.calendar, jwt)
	g.GET("/dashboard", api.dashboard, jwt)
	g.GET("/reports", api.report, jwt)
}

func contextSubject(ctx echo.Context) (subject.Subject, error) {
	subj, ok := ctx.Get(objectContextKey).(subject.Subject)
	if !ok {
		return subject.Subject{}, errors.Wrap(errSubjNotFoundInCtx, "retrieving object from context")
	}
	return subj, nil
}

// Handlers

func (api *subjectApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	filter := new(subject.QueryFilter)
	if err = ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []subject.View{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	views, err := api.svc.Query(ctx.Request().Context(), claims.Subject, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *subjectApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	var data subject.NewSubject
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	subj, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return err
	}
	view, err := api.svc.View(ctx.Request().Context(), subj)
	if err != nil {
		return errors.Wrap(err, "viewing subject")
	}
	return ctx.JSON(http.StatusCreated, view)
}

func (api *subjectApi) retrieve(ctx echo.Context) error {
	subj, err := contextSubject(ctx)
	if err != nil {
		return err
	}
	view, err := api.svc.View(ctx.Request().Context(), subj)
	if err != nil {
		return errors.Wrap(err, "viewing subject")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *subjectApi) update(ctx echo.Context) error {
	subj, err := contextSubject(ctx)
	if err != nil {
		return err
	}
	var data subject.UpdateSubject
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSubject")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if subj, err = api.svc.Update(ctx.Request().Context(), subj, data); err != nil {
		return err
	}
	view, err := api.svc.View(ctx.Request().Context(), subj)
	if err != nil {
		return errors.Wrap(err, "viewing subject")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *subjectApi) destroy(ctx echo.Context) error {
	subj, err := contextSubject(ctx)
	if err != nil {
		return err
	}
	if _, err = api.svc.Delete(ctx.Request().Context(), subj.OwnerID, subj.ID); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *subjectApi) destroyMultiple(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	var query DestroyMultipleRequest
	if err = ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	if _, err = api.svc.Delete(ctx.Request().Context(), claims.Subject, query.IDs...); err != nil {
		return errors.Wrap(err, "deleting subjects")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *subjectApi) project(ctx echo.Context) error {
	subj, err := contextSubject(ctx)
	if err != nil {
		return err
	}
	target, err := queryFloat(ctx, "target")
	if err != nil {
		return err
	}

	proj, err := api.svc.Project(ctx.Request().Context(), subj, target)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, proj)
}

func (api *subjectApi) logs(ctx echo.Context) error {
	subj, err := contextSubject(ctx)
	if err != nil {
		return err
	}
	from, to, err := queryDateRange(ctx)
	if err != nil {
		return err
	}

	logs, err := api.svc.Logs(ctx.Request().Context(), subject.LogFilter{
		OwnerID:   subj.OwnerID,
		SubjectID: subj.ID,
		From:      from,
		To:        to,
	})
	if err != nil {
		return errors.Wrap(err, "querying logs")
	}
	if logs == nil {
		logs = []subject.Log{}
	}
	return ctx.JSON(http.StatusOK, logs)
}

func (api *subjectApi) mark(ctx echo.Context) error {
	subj, err := contextSubject(ctx)
	if err != nil {
		return err
	}
	var data subject.NewLog
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLog")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	log, subj, err := api.svc.Mark(ctx.Request().Context(), subj, data)
	if err != nil {
		return err
	}
	view, err := api.svc.View(ctx.Request().Context(), subj)
	if err != nil {
		return errors.Wrap(err, "viewing subject")
	}
	return ctx.JSON(http.StatusCreated, MarkResponse{Log: log, Subject: view})
}

func (api *subjectApi) undo(ctx echo.Context) error {
	subj, err := contextSubject(ctx)
	if err != nil {
		return err
	}

	if subj, err = api.svc.Undo(ctx.Request().Context(), subj, ctx.Param("logID")); err != nil {
		return err
	}
	view, err := api.svc.View(ctx.Request().Context(), subj)
	if err != nil {
		return errors.Wrap(err, "viewing subject")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *subjectApi) timetable(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	weekday, err := queryInt(ctx, "weekday")
	if err != nil {
		return err
	}

	entries, err := api.svc.Timetable(ctx.Request().Context(), claims.Subject, weekday)
	if err != nil {
		return errors.Wrap(err, "querying timetable")
	}
	if entries == nil {
		entries = []subject.TimetableEntry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *subjectApi) addTimetableEntry(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	var data subject.NewTimetableEntry
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTimetableEntry")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	entry, err := api.svc.AddTimetableEntry(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, entry)
}

func (api *subjectApi) deleteTimetableEntry(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if err = api.svc.DeleteTimetableEntry(ctx.Request().Context(), claims.Subject, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *subjectApi) calendar(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	from, to, err := queryDateRange(ctx)
	if err != nil {
		return err
	}

	days, err := api.svc.Calendar(ctx.Request().Context(), claims.Subject, from, to)
	if err != nil {
		return errors.Wrap(err, "building calendar")
	}
	return ctx.JSON(http.StatusOK, days)
}

func (api *subjectApi) dashboard(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	dash, err := api.svc.Dashboard(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "building dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}

func (api *subjectApi) report(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	from, to, err := queryDateRange(ctx)
	if err != nil {
		return err
	}

	rep, err := api.svc.Report(ctx.Request().Context(), claims.Subject, from, to)
	if err != nil {
		return errors.Wrap(err, "building report")
	}
	return ctx.JSON(http.StatusOK, rep)
}

type MarkResponse struct {
	Log     subject.Log  `json:"log"`
	Subject subject.View `json:"subject"`
}
