package router // package router wires the admin HTTP endpoints onto echo

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/bordrail/internal/config"
	"github.com/iliyamo/bordrail/internal/handler"
	"github.com/iliyamo/bordrail/internal/middleware"
)

// Deps are the collaborators the admin API reads from.
type Deps struct {
	Cfg       config.Config
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Redis     *redis.Client // nil disables rate limiting and caching

	Auth    *handler.AuthHandler
	Catalog *handler.CatalogHandler
	Status  *handler.StatusHandler
	Admin   *handler.AdminHandler
}

// New builds the admin echo instance with every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	RegisterRoutes(e)
	v1 := e.Group("/v1", middleware.NewTokenBucket(d.RateLimit, d.Redis))
	RegisterAuth(v1, d.Auth, d.Cfg.JWTSecret)
	RegisterPublic(v1, d.Catalog, d.Status, middleware.NewRedisCache(d.Cache, d.Redis))
	RegisterAdmin(v1, d.Admin, d.Cfg.JWTSecret)
	return e
}

// RegisterRoutes registers routes that need neither a token nor the rate
// limiter.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers token issuing and the token echo endpoint.
func RegisterAuth(v1 *echo.Group, a *handler.AuthHandler, jwtSecret string) {
	v1.POST("/auth/login", a.Login)
	v1.GET("/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterPublic registers the read-only views.  Catalog views go
// through cache; status never does since it changes with every client.
func RegisterPublic(v1 *echo.Group, c *handler.CatalogHandler, s *handler.StatusHandler, cache echo.MiddlewareFunc) {
	v1.GET("/status", s.Status)

	routes := v1.Group("/routes", cache)
	routes.GET("", c.Routes)
	routes.GET("/:id/days", c.Days)
	routes.GET("/:id/times", c.Times)
	routes.GET("/:id/cost", c.Cost)
}
