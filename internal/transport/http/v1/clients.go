package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/DataWorksAI-com/MbtaWinter2026/internal/domain"
)

// ListClients returns every alias name mapped to "alive".
// GET /clients
func (h *Handler) ListClients(c echo.Context) error {
	names := h.service.ListClients(c.Request().Context())
	result := make(map[string]string, len(names))
	for _, name := range names {
		result[name] = "alive"
	}
	return c.JSON(http.StatusOK, result)
}

// RegisterClient creates or replaces a client alias.
// POST /clients
func (h *Handler) RegisterClient(c echo.Context) error {
	var req domain.ClientRegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	ack, err := h.service.RegisterClient(c.Request().Context(), req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, ack)
}

// DeleteClient removes a client alias.
// DELETE /clients/:client_name
func (h *Handler) DeleteClient(c echo.Context) error {
	ack, err := h.service.DeleteClient(c.Request().Context(), c.Param("client_name"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, ack)
}
