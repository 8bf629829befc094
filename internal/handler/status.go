package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// SessionCounter reports live protocol sessions.
type SessionCounter interface {
	SessionCount() int
}

// ShutdownState reports whether a shutdown was requested.
type ShutdownState interface {
	ShuttingDown() bool
}

// StatusHandler reports the server's live state.
type StatusHandler struct {
	Sessions SessionCounter
	State    ShutdownState
}

type statusResp struct {
	Sessions     int  `json:"sessions"`
	ShuttingDown bool `json:"shutting_down"`
}

// Status: GET /v1/status
func (h *StatusHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, statusResp{
		Sessions:     h.Sessions.SessionCount(),
		ShuttingDown: h.State.ShuttingDown(),
	})
}
