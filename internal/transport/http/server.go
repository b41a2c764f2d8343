// Package http provides the HTTP server implementation for datachat.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/xiaot623/gogo/datachat/internal/metrics"
	"github.com/xiaot623/gogo/datachat/internal/service"
	v1 "github.com/xiaot623/gogo/datachat/internal/transport/http/v1"
)

// NewServer creates and configures the HTTP server with the REST API and the
// Prometheus endpoint.
func NewServer(svc *service.Service, m *metrics.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Handlers
	v1Handler := v1.NewHandler(svc)

	// Register Routes
	v1Handler.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	return e
}
