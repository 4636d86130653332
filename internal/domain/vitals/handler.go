package vitals

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vitallab/vitallab/internal/domain/cases"
	"github.com/vitallab/vitallab/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/case/:case_id")
	g.GET("/signals", h.GetSignals)
	g.GET("/data", h.GetData)
	g.GET("/statistics", h.GetStatistics)
	g.GET("/clinical-info", h.GetClinicalInfo)
	api.GET("/case-ids", h.ListCaseIDs)
}

func (h *Handler) GetSignals(c echo.Context) error {
	id, err := cases.CaseIDParam(c)
	if err != nil {
		return err
	}
	names, err := h.svc.Signals(c.Request().Context(), id)
	if err != nil {
		return notFound(err)
	}
	return c.JSON(http.StatusOK, map[string][]string{"signals": names})
}

type windowQuery struct {
	Resolution int `validate:"gte=1"`
}

func (h *Handler) GetData(c echo.Context) error {
	id, err := cases.CaseIDParam(c)
	if err != nil {
		return err
	}
	q := Query{Signals: signalsParam(c)}
	if q.Start, q.End, err = timeBounds(c); err != nil {
		return err
	}
	wq := windowQuery{Resolution: DefaultResolution}
	if err := echo.QueryParamsBinder(c).Int("resolution", &wq.Resolution).BindError(); err != nil {
		return pagination.BindError(err)
	}
	if err := pagination.Validate(wq); err != nil {
		return err
	}
	q.Resolution = wq.Resolution

	res, err := h.svc.Data(c.Request().Context(), id, q)
	if err != nil {
		return notFound(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) GetStatistics(c echo.Context) error {
	id, err := cases.CaseIDParam(c)
	if err != nil {
		return err
	}
	start, end, err := timeBounds(c)
	if err != nil {
		return err
	}
	stats, err := h.svc.Statistics(c.Request().Context(), id, signalsParam(c), start, end)
	if err != nil {
		return notFound(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"statistics": stats})
}

func (h *Handler) GetClinicalInfo(c echo.Context) error {
	id, err := cases.CaseIDParam(c)
	if err != nil {
		return err
	}
	info, err := h.svc.ClinicalInfo(c.Request().Context(), id)
	if errors.Is(err, cases.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Case not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, info)
}

func (h *Handler) ListCaseIDs(c echo.Context) error {
	ids, err := h.svc.CaseIDs(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string][]int64{"cases": ids})
}

func notFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Case data not found")
	}
	return err
}

// signalsParam accepts repeated and comma separated signals parameters.
func signalsParam(c echo.Context) []string {
	var out []string
	for _, raw := range c.QueryParams()["signals"] {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func timeBounds(c echo.Context) (start, end *float64, err error) {
	if start, err = pagination.OptionalFloat(c, "start_time"); err != nil {
		return nil, nil, err
	}
	if end, err = pagination.OptionalFloat(c, "end_time"); err != nil {
		return nil, nil, err
	}
	if start != nil && end != nil && *start > *end {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "start_time: must not be after end_time")
	}
	return start, end, nil
}
