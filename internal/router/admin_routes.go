package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bordrail/internal/handler"
	"github.com/iliyamo/bordrail/internal/middleware"
	"github.com/iliyamo/bordrail/internal/utils"
)

// RegisterAdmin registers OPERATOR-scoped endpoints under /v1/admin.
// All routes require a valid JWT and the OPERATOR role.
func RegisterAdmin(v1 *echo.Group, h *handler.AdminHandler, jwtSecret string) {
	g := v1.Group(
		"/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(utils.RoleOperator),
	)
	g.POST("/shutdown", h.RequestShutdown)
}
