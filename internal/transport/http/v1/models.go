package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/domain"
)

// ListModels handles the models list request.
// GET /api/v1/models
func (h *Handler) ListModels(c echo.Context) error {
	return c.JSON(http.StatusOK, domain.ModelsResponse{
		Object: "list",
		Data:   h.service.ListModels(),
	})
}
