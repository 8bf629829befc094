package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bordrail/internal/middleware"
	"github.com/iliyamo/bordrail/internal/service"
)

// ShutdownRequester sets the server-wide shutdown flag.
type ShutdownRequester interface {
	RequestShutdown() error
}

// AdminHandler holds operator-only endpoints.
type AdminHandler struct {
	Shutdown ShutdownRequester
}

// RequestShutdown: POST /v1/admin/shutdown
//
// Same effect as the DOWN command: no new clients are accepted and live
// sessions run to completion.
func (h *AdminHandler) RequestShutdown(c echo.Context) error {
	err := h.Shutdown.RequestShutdown()
	switch {
	case errors.Is(err, service.ErrShuttingDown):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already shutting down"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "shutdown failed"})
	}
	c.Logger().Warnf("shutdown requested via admin API by user=%s", middleware.CurrentUserID(c))
	return c.JSON(http.StatusAccepted, echo.Map{"status": "going down"})
}
