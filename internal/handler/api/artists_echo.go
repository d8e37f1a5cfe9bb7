package api

import (
	"errors"
	"net/http"
	"time"

	"AXII/internal/domain/models"
	"AXII/internal/service/ratelimit"
	"AXII/internal/usecase"
	xhttp "AXII/pkg/http"
	xlogger "AXII/pkg/logger"
	"AXII/pkg/util"

	"github.com/labstack/echo/v4"
)

// ArtistsEchoHandler serves the registry over HTTP.
type ArtistsEchoHandler struct {
	logger *xlogger.Logger
	reg    *usecase.Registry
	rl     *ratelimit.Limiter
}

func NewArtistsEchoHandler(logger *xlogger.Logger, reg *usecase.Registry, rl *ratelimit.Limiter) *ArtistsEchoHandler {
	return &ArtistsEchoHandler{logger: logger, reg: reg, rl: rl}
}

func (h *ArtistsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/artists", h.Register)
	g.GET("/artists", h.List)
	g.POST("/artists/refresh", h.Refresh)
	g.GET("/artists/:name", h.Get)
	g.DELETE("/artists/:name", h.Remove)
	g.GET("/artists/:name/history", h.History)
	g.GET("/chart", h.Chart)
}

func (h *ArtistsEchoHandler) Register(c echo.Context) error {
	if h.rl != nil && !h.rl.Allow(c.RealIP()) {
		return xhttp.TooManyRequestsResponse(c)
	}
	req := &models.RegisterRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	name, err := usecase.NormalizeName(req.Name)
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	_, existed := h.reg.Get(name)
	a, err := h.reg.Register(c.Request().Context(), name, models.Credentials{NewsAPIKey: req.NewsAPIKey})
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	if existed {
		return xhttp.SuccessResponse(c, a)
	}
	return xhttp.CreatedResponse(c, a)
}

func (h *ArtistsEchoHandler) List(c echo.Context) error {
	req := &models.ListRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows := h.selected(req.Names)
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *ArtistsEchoHandler) Get(c echo.Context) error {
	req := &models.ArtistPathRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	a, ok := h.reg.Get(req.Name)
	if !ok {
		return xhttp.AppErrorResponse(c, toAppError(usecase.ErrNotFound))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, a)
}

func (h *ArtistsEchoHandler) Remove(c echo.Context) error {
	req := &models.ArtistPathRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.reg.Remove(c.Request().Context(), req.Name) {
		return xhttp.AppErrorResponse(c, toAppError(usecase.ErrNotFound))
	}
	return xhttp.NoContentResponse(c)
}

func (h *ArtistsEchoHandler) Refresh(c echo.Context) error {
	req := &models.RefreshRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	start := time.Now()
	rows, err := h.reg.RefreshAll(c.Request().Context(), models.Credentials{NewsAPIKey: req.NewsAPIKey})
	if err != nil {
		h.logger.Error("refresh usecase error", xlogger.Error(err), xlogger.Int("refreshed", len(rows)))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	h.logger.Info("registry refreshed", xlogger.Int("artists", len(rows)), xlogger.Duration("took_ms", time.Since(start)))
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *ArtistsEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	var since time.Time
	if req.Since != "" {
		t, ok := util.ParseTime(req.Since)
		if !ok {
			return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
				Code: "ERR_TIME", Field: "since", Message: "since must be RFC3339, a date or a unix timestamp",
			}})
		}
		since = t
	}
	rows, err := h.reg.History(c.Request().Context(), req.Name, since, req.Limit)
	if err != nil {
		if !errors.Is(err, usecase.ErrHistoryDisabled) {
			h.logger.Error("history usecase error", xlogger.String("artist", req.Name), xlogger.Error(err))
		}
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *ArtistsEchoHandler) Chart(c echo.Context) error {
	req := &models.ListRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, usecase.BuildRadarChart(h.selected(req.Names)))
}

// selected returns every artist when names is blank, otherwise the filtered subset.
func (h *ArtistsEchoHandler) selected(names string) []models.Artist {
	if list := util.SplitNames(names); len(list) > 0 {
		return h.reg.Filter(list)
	}
	return h.reg.Snapshot()
}

func toAppError(err error) error {
	switch {
	case errors.Is(err, usecase.ErrInvalidName):
		e := xhttp.BadRequestError(err.Error()).WithError(err)
		e.Field = "name"
		return e
	case errors.Is(err, usecase.ErrNotFound):
		return xhttp.NotFoundError("artist not found").WithError(err)
	case errors.Is(err, usecase.ErrHistoryDisabled):
		return xhttp.NewAppError("ERR_UNAVAILABLE", "", "history is not enabled", http.StatusServiceUnavailable).WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}
