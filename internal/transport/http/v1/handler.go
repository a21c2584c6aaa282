// Package v1 exposes the OpenAI-compatible chat completions API.
package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/config"
	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/domain"
	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/service"
)

// Handler handles OpenAI-compatible HTTP requests.
type Handler struct {
	service *service.Service
	config  *config.Config
}

// NewHandler creates a new API handler.
func NewHandler(service *service.Service, cfg *config.Config) *Handler {
	return &Handler{
		service: service,
		config:  cfg,
	}
}

// RegisterRoutes registers the OpenAI-compatible routes. Both endpoints sit
// behind the bearer-key check.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1", h.apiKeyMiddleware())
	g.POST("/chat/completions", h.ChatCompletions)
	g.GET("/models", h.ListModels)
}

// errorStatus maps a service error to an HTTP status and OpenAI-style body.
func errorStatus(err error) (int, *domain.ErrorResponse) {
	switch {
	case errors.Is(err, domain.ErrEmptyConversation):
		return http.StatusBadRequest, errorBody(err.Error(), "invalid_request_error", "messages", "")
	case errors.Is(err, domain.ErrPolicyBlocked):
		return http.StatusForbidden, errorBody(err.Error(), "invalid_request_error", "model", "model_blocked")
	case errors.Is(err, domain.ErrAgentNotConfigured):
		return http.StatusInternalServerError, errorBody(err.Error(), "server_error", "", "agent_not_configured")
	case errors.Is(err, domain.ErrInvalidFragment), errors.Is(err, domain.ErrBackendInvocation):
		return http.StatusBadGateway, errorBody(err.Error(), "upstream_error", "", "")
	default:
		return http.StatusInternalServerError, errorBody(err.Error(), "server_error", "", "")
	}
}

func errorBody(message, errType, param, code string) *domain.ErrorResponse {
	return &domain.ErrorResponse{
		Error: &domain.APIError{
			Message: message,
			Type:    errType,
			Param:   param,
			Code:    code,
		},
	}
}
