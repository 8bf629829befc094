package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bordrail/internal/model"
)

// CatalogReader is the read side of the ticket service.  Every call takes
// the same lock the protocol commands take.
type CatalogReader interface {
	AllRoutes() []model.Route
	TravelDays(routeID int) []string
	RunTimes(routeID int, day string) []string
	Costs(routeID int) []float64
}

// CatalogHandler serves JSON views of the route catalog.
type CatalogHandler struct {
	Tickets CatalogReader
}

// ----- DTOs -----

type routeDTO struct {
	ID              int     `json:"id"`
	Description     string  `json:"description"`
	Cost            float64 `json:"cost"`
	Type            string  `json:"type"`
	TypeDescription string  `json:"type_description"`
	Saver           bool    `json:"saver"`
}

type listResp[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func list[T any](items []T) listResp[T] {
	if items == nil {
		items = []T{}
	}
	return listResp[T]{Items: items, Total: len(items)}
}

func routeIDParam(c echo.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	return id, err == nil
}

func badRouteID(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "route id should be a number"})
}

// Routes: GET /v1/routes
func (h *CatalogHandler) Routes(c echo.Context) error {
	routes := h.Tickets.AllRoutes()
	out := make([]routeDTO, len(routes))
	for i, r := range routes {
		out[i] = routeDTO{
			ID:              r.ID,
			Description:     r.Description,
			Cost:            r.Cost,
			Type:            r.Type,
			TypeDescription: r.TypeDescription,
			Saver:           r.IsSaver(),
		}
	}
	return c.JSON(http.StatusOK, list(out))
}

// Days: GET /v1/routes/:id/days
func (h *CatalogHandler) Days(c echo.Context) error {
	id, ok := routeIDParam(c)
	if !ok {
		return badRouteID(c)
	}
	days := h.Tickets.TravelDays(id)
	if len(days) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "route has no timetable information"})
	}
	return c.JSON(http.StatusOK, list(days))
}

// Times: GET /v1/routes/:id/times?day=
func (h *CatalogHandler) Times(c echo.Context) error {
	id, ok := routeIDParam(c)
	if !ok {
		return badRouteID(c)
	}
	day := strings.TrimSpace(c.QueryParam("day"))
	if day == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "day is required"})
	}
	times := h.Tickets.RunTimes(id, day)
	if len(times) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "route has no timetable information"})
	}
	return c.JSON(http.StatusOK, list(times))
}

// Cost: GET /v1/routes/:id/cost
func (h *CatalogHandler) Cost(c echo.Context) error {
	id, ok := routeIDParam(c)
	if !ok {
		return badRouteID(c)
	}
	costs := h.Tickets.Costs(id)
	if len(costs) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "route ID does not exist"})
	}
	return c.JSON(http.StatusOK, list(costs))
}
