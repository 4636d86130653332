package tracks

import (
	"errors"
	"net/http"

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
	g := api.Group("/tracks")
	g.GET("", h.ListTracks)
	g.GET("/by-case/:case_id", h.ListCaseTracks)
	g.GET("/:tid", h.GetTrack)
	g.GET("/:tid/data", h.GetTrackData)
}

func (h *Handler) ListTracks(c echo.Context) error {
	pg, err := pagination.FromContext(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListTracks(c.Request().Context(), pg.Skip, pg.Limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListCaseTracks(c echo.Context) error {
	id, err := cases.CaseIDParam(c)
	if err != nil {
		return err
	}
	items, err := h.svc.CaseTracks(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "No tracks found for this case")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetTrack(c echo.Context) error {
	t, err := h.svc.GetTrack(c.Request().Context(), c.Param("tid"))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Track not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

type dataQuery struct {
	Resolution *int `validate:"omitempty,gte=1"`
}

func (h *Handler) GetTrackData(c echo.Context) error {
	var q dataQuery
	var err error
	if q.Resolution, err = pagination.OptionalInt(c, "resolution"); err != nil {
		return err
	}
	if err := pagination.Validate(q); err != nil {
		return err
	}
	resolution := 0
	if q.Resolution != nil {
		resolution = *q.Resolution
	}

	tid := c.Param("tid")
	pts, err := h.svc.TrackData(c.Request().Context(), tid, resolution)
	if errors.Is(err, ErrNotFound) || (err == nil && len(pts) == 0) {
		return echo.NewHTTPError(http.StatusNotFound, "Track data not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Series{TID: tid, Data: pts})
}
