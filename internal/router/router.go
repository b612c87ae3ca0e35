// Package router wires handlers onto the Echo instance.  Public browse
// routes sit behind the response cache; everything under the protected
// group requires a valid access token.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/swiftbus/bus-booking-api/internal/handler"
	"github.com/swiftbus/bus-booking-api/internal/middleware"
)

// RegisterPublic registers routes that need no authentication.  The
// cache middleware is applied per-route so auth and booking endpoints
// are never cached.
func RegisterPublic(e *echo.Echo, b *handler.BrowseHandler, cache echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health)

	v1 := e.Group("/v1")
	v1.GET("/cities", b.Cities, cache)
	v1.GET("/operators", b.Operators, cache)
	v1.GET("/bus-types", b.BusTypes, cache)
	v1.GET("/schedules/search", b.SearchSchedules, cache)
	// Seat maps are deliberately uncached: stale availability right after
	// a booking would mislead seat pickers.
	v1.GET("/schedules/:id/seats", b.ScheduleSeats)
	v1.GET("/stats", b.SiteStats, cache)
}

// RegisterAuth registers the authentication endpoints.  Logout and the
// profile endpoint require a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	v1 := e.Group("/v1/auth")
	v1.POST("/register", a.Register)
	v1.POST("/login", a.Login)
	v1.POST("/refresh", a.Refresh)
	v1.POST("/refresh-access", a.RefreshAccess)
	v1.POST("/logout", a.Logout, middleware.JWTAuth(jwtSecret))

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterBookings registers the booking lifecycle endpoints, all behind
// JWT auth.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
	g := e.Group("/v1/bookings", middleware.JWTAuth(jwtSecret))
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:uuid", h.Get)
	g.DELETE("/:uuid", h.Cancel)
	g.GET("/:uuid/ticket", h.Ticket)
}
