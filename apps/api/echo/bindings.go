package echoapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/bunkguard/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// queryTime parses the RFC 3339 query param. It is zero when absent.
func queryTime(ctx echo.Context, param string) (time.Time, error) {
	val := ctx.QueryParam(param)
	if val == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, core.NewValidationError(nil, core.FieldError{Field: param, Error: "must be an RFC 3339 time"})
	}
	return t.UTC(), nil
}

// queryDate parses the YYYY-MM-DD query param. It is zero when absent.
func queryDate(ctx echo.Context, param string) (time.Time, error) {
	val := ctx.QueryParam(param)
	if val == "" {
		return time.Time{}, nil
	}
	d, err := core.ParseDate(val)
	if err != nil {
		return time.Time{}, core.NewValidationError(nil, core.FieldError{Field: param, Error: "must be a date formatted as YYYY-MM-DD"})
	}
	return d, nil
}

// queryDateRange binds `from` & `to`, rejecting ranges ending before they start.
func queryDateRange(ctx echo.Context) (from, to time.Time, err error) {
	if from, err = queryDate(ctx, "from"); err != nil {
		return
	}
	if to, err = queryDate(ctx, "to"); err != nil {
		return
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		err = core.NewValidationError(nil, core.FieldError{Field: "to", Error: "to must not be before from"})
	}
	return
}

// queryFloat parses the float query param. It is nil when absent.
func queryFloat(ctx echo.Context, param string) (*float64, error) {
	val := ctx.QueryParam(param)
	if val == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return nil, core.NewValidationError(nil, core.FieldError{Field: param, Error: "must be a number"})
	}
	return &f, nil
}

// queryInt parses the int query param. It is nil when absent.
func queryInt(ctx echo.Context, param string) (*int, error) {
	val := ctx.QueryParam(param)
	if val == "" {
		return nil, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return nil, core.NewValidationError(nil, core.FieldError{Field: param, Error: "must be an integer"})
	}
	return &i, nil
}
