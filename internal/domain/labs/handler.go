package labs

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vitallab/vitallab/internal/domain/cases"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/labs")
	g.GET("/by-case/:case_id", h.ListCaseLabs)
	g.GET("/by-name/:name", h.ListLabsByName)
}

func (h *Handler) ListCaseLabs(c echo.Context) error {
	id, err := cases.CaseIDParam(c)
	if err != nil {
		return err
	}
	items, err := h.svc.CaseLabs(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "No lab results found for this case")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListLabsByName(c echo.Context) error {
	items, err := h.svc.LabsByName(c.Request().Context(), c.Param("name"))
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "No lab results found for this name")
	}
	return c.JSON(http.StatusOK, items)
}
