package echoapi

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bunkguard/core"
	"github.com/trezcool/bunkguard/core/attendance"
	"github.com/trezcool/bunkguard/core/grading"
)

// toolsApi exposes the engine without touching any stored data.
type toolsApi struct {
	validate *validator.Validate
}

func registerToolsAPI(g *echo.Group, deps ServerDeps) {
	api := toolsApi{validate: deps.Validate}

	tg := g.Group("/tools")
	tg.POST("/projection", api.projection)
	tg.POST("/sgpa", api.sgpa)
}

func (api *toolsApi) projection(ctx echo.Context) error {
	var data ProjectionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProjectionRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}
	if err := attendance.ValidateCounter(*data.Attended, *data.Total); err != nil {
		return core.InvalidField("attended", err)
	}

	return ctx.JSON(http.StatusOK, ProjectionResponse{
		Classification: attendance.Classify(*data.Attended, *data.Total),
		Projection:     attendance.Project(*data.Attended, *data.Total, data.TargetPercent),
	})
}

func (api *toolsApi) sgpa(ctx echo.Context) error {
	var data SGPARequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SGPARequest")
	}
	for i := range data.Courses {
		data.Courses[i].Grade = strings.ToUpper(core.CleanString(data.Courses[i].Grade))
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	records := make([]grading.Record, 0, len(data.Courses))
	var credits float64
	for _, c := range data.Courses {
		grade, err := grading.ParseGrade(c.Grade)
		if err != nil {
			return err
		}
		records = append(records, grading.Record{Credits: c.Credits, Grade: grade})
		credits += c.Credits
	}
	return ctx.JSON(http.StatusOK, SGPAResponse{SGPA: grading.SGPA(records), Credits: credits})
}

type (
	ProjectionRequest struct {
		Attended      *int    `json:"attended" validate:"required,gte=0"`
		Total         *int    `json:"total" validate:"required,gte=0"`
		TargetPercent float64 `json:"target_percent" validate:"gt=0,lte=100"`
	}

	ProjectionResponse struct {
		Classification attendance.Classification `json:"classification"`
		Projection     attendance.Projection     `json:"projection"`
	}

	SGPACourse struct {
		Credits float64 `json:"credits" validate:"gt=0,lte=40"`
		Grade   string  `json:"grade" validate:"required,grade"`
	}

	SGPARequest struct {
		Courses []SGPACourse `json:"courses" validate:"required,min=1,dive"`
	}

	SGPAResponse struct {
		SGPA    float64 `json:"sgpa"`
		Credits float64 `json:"credits"`
	}
)
