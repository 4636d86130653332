package pagination

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

var validate = validator.New()

// Params holds skip/limit paging parameters.
type Params struct {
	Skip  int `query:"skip" validate:"gte=0"`
	Limit int `query:"limit" validate:"gte=1,lte=1000"`
}

// FromContext reads skip and limit from the query string. Values that do not
// parse or fall out of range are rejected with a 400.
func FromContext(c echo.Context) (Params, error) {
	return FromContextWithDefault(c, DefaultLimit)
}

// FromContextWithDefault is FromContext with a caller-chosen default limit.
func FromContextWithDefault(c echo.Context, defaultLimit int) (Params, error) {
	p := Params{Limit: defaultLimit}
	if err := echo.QueryParamsBinder(c).
		Int("skip", &p.Skip).
		Int("limit", &p.Limit).
		BindError(); err != nil {
		return p, BindError(err)
	}
	if err := Validate(p); err != nil {
		return p, err
	}
	return p, nil
}

// Window returns the page of items selected by p.
func Window[T any](items []T, p Params) []T {
	if p.Skip >= len(items) {
		return []T{}
	}
	end := p.Skip + p.Limit
	if end > len(items) || end < 0 {
		end = len(items)
	}
	return items[p.Skip:end]
}

// Validate runs struct validation on v and converts failures into a 400 whose
// detail names every offending query parameter.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return echo.NewHTTPError(http.StatusBadRequest, strings.Join(msgs, "; "))
}

// BindError converts an echo binder failure into a 400 naming the parameter.
func BindError(err error) error {
	var be *echo.BindingError
	if errors.As(err, &be) {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s: invalid value %q", be.Field, strings.Join(be.Values, ",")))
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

func describe(fe validator.FieldError) string {
	name := paramName(fe)
	switch fe.Tag() {
	case "gte":
		return fmt.Sprintf("%s: must be greater than or equal to %s", name, fe.Param())
	case "lte":
		return fmt.Sprintf("%s: must be less than or equal to %s", name, fe.Param())
	default:
		return fmt.Sprintf("%s: failed %s validation", name, fe.Tag())
	}
}

// paramName maps a struct field back to its snake_case query name.
func paramName(fe validator.FieldError) string {
	var b strings.Builder
	for i, r := range fe.Field() {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
