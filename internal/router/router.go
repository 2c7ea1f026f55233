// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/rental-availability/internal/handler"
	"github.com/iliyamo/rental-availability/internal/logger"
	"github.com/iliyamo/rental-availability/internal/middleware"
	"github.com/iliyamo/rental-availability/internal/model"
)

// RegisterMiddleware installs the process-wide middleware.  Recover runs
// inside the request logger so a panic is logged as a 500 with its request id.
func RegisterMiddleware(e *echo.Echo, log *zap.Logger) {
	e.Use(echomw.RequestID())
	e.Use(logger.RequestLogger(log))
	e.Use(echomw.Recover())
}

// RegisterRoutes registers the unauthenticated probe.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers session endpoints under /v1/auth and the
// authenticated /v1/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	me := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleOwner, model.RoleCustomer))
	me.GET("/me", a.Me)
}

// RegisterAvailability registers the public, rate limited availability
// endpoints.
func RegisterAvailability(e *echo.Echo, h *handler.AvailabilityHandler, limiter echo.MiddlewareFunc) {
	e.GET("/v1/products/:id/availability", h.GetProductAvailability, limiter)
	e.POST("/v1/availability/compute", h.Compute, limiter)
}

// RegisterOwner registers the product endpoints restricted to owners.
func RegisterOwner(e *echo.Echo, h *handler.OwnerProductHandler, jwtSecret string) {
	g := e.Group("/v1/owner", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleOwner))
	g.GET("/products/:id/reservations", h.GetReservations)
	g.PUT("/products/:id/initial-stock", h.PutInitialStock)
}
