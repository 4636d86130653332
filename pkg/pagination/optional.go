package pagination

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// OptionalInt parses query parameter name. It returns nil when the parameter
// is absent or empty.
func OptionalInt(c echo.Context, name string) (*int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, invalid(name, raw)
	}
	return &v, nil
}

// OptionalFloat is OptionalInt for floating point parameters. NaN and
// infinities are rejected.
func OptionalFloat(c echo.Context, name string) (*float64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v != v || v > 1e308 || v < -1e308 {
		return nil, invalid(name, raw)
	}
	return &v, nil
}

func invalid(name, raw string) error {
	return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s: invalid value %q", name, raw))
}
