// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/study-hall-reservation/internal/config"
	"github.com/iliyamo/study-hall-reservation/internal/handler"
	"github.com/iliyamo/study-hall-reservation/internal/hub"
	"github.com/iliyamo/study-hall-reservation/internal/middleware"
)

// Register wires every route of the service onto the Echo instance:
// health check, auth, the seat surface and the websocket upgrade.  The
// pair-booking route is registered before the :id routes so "pair" never
// matches as a seat number.
func Register(e *echo.Echo, cfg config.Config, a *handler.AuthHandler, s *handler.SeatHandler, h *hub.Hub, rdb *redis.Client) {
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	e.GET("/healthz", handler.Health)

	limited := middleware.RateLimit(config.LoadRateLimitConfig(), rdb)
	authed := middleware.JWTAuth(cfg.JWTSecret)

	auth := e.Group("/api/auth", limited)
	auth.POST("/signup", a.Signup)
	auth.POST("/login", a.Login)
	auth.GET("/me", a.Me, authed)

	seats := e.Group("/api/seats")
	seats.GET("", s.List)
	seats.GET("/layout", s.Layout)
	seats.POST("/pair/book", s.PairBook, authed, limited)
	seats.POST("/:id/book", s.Book, authed, limited)
	seats.POST("/:id/release", s.Release, authed, limited)

	e.GET("/ws", func(c echo.Context) error { return hub.ServeWS(h, c) })
}
