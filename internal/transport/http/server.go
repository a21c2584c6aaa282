// Package http provides the HTTP server implementation for the proxy.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/config"
	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/service"
	v1 "github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/transport/http/v1"
)

// NewServer creates and configures the OpenAI-compatible HTTP server.
func NewServer(svc *service.Service, cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Handlers
	v1Handler := v1.NewHandler(svc, cfg)
	v1Handler.RegisterRoutes(e)

	return e
}
