package cases

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/vitallab/vitallab/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/cases")
	g.GET("", h.ListCases)
	g.GET("/stats", h.GetSummary)
	g.GET("/stats/department", h.GetDepartmentStats)
	g.GET("/stats/surgery", h.GetSurgeryStats)
	g.GET("/recent", h.ListRecentCases)
	g.GET("/by-department/:department", h.ListByDepartment)
	g.GET("/:case_id", h.GetCase)
}

func (h *Handler) ListCases(c echo.Context) error {
	pg, err := pagination.FromContext(c)
	if err != nil {
		return err
	}
	f, err := filterFromContext(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListCases(c.Request().Context(), f, pg.Skip, pg.Limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func filterFromContext(c echo.Context) (Filter, error) {
	f := Filter{
		Department: c.QueryParam("department"),
		OpType:     c.QueryParam("optype"),
		Approach:   c.QueryParam("approach"),
	}
	var err error
	if f.AgeMin, err = pagination.OptionalInt(c, "age_min"); err != nil {
		return f, err
	}
	if f.AgeMax, err = pagination.OptionalInt(c, "age_max"); err != nil {
		return f, err
	}
	if f.ASA, err = pagination.OptionalInt(c, "asa"); err != nil {
		return f, err
	}
	if f.EmOp, err = pagination.OptionalInt(c, "emop"); err != nil {
		return f, err
	}
	return f, pagination.Validate(f)
}

func (h *Handler) GetCase(c echo.Context) error {
	id, err := CaseIDParam(c)
	if err != nil {
		return err
	}
	item, err := h.svc.GetCase(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Case not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

func (h *Handler) ListByDepartment(c echo.Context) error {
	pg, err := pagination.FromContext(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListByDepartment(c.Request().Context(), c.Param("department"), pg.Skip, pg.Limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListRecentCases(c echo.Context) error {
	pg, err := pagination.FromContext(c)
	if err != nil {
		return err
	}
	items, err := h.svc.RecentCases(c.Request().Context(), pg.Limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetSummary(c echo.Context) error {
	s, err := h.svc.Summary(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) GetDepartmentStats(c echo.Context) error {
	stats, err := h.svc.DepartmentStats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetSurgeryStats(c echo.Context) error {
	stats, err := h.svc.SurgeryStats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// CaseIDParam parses the :case_id path parameter.
func CaseIDParam(c echo.Context) (int64, error) {
	raw := c.Param("case_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "case_id: invalid value "+strconv.Quote(raw))
	}
	return id, nil
}
