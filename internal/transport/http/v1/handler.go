// Package v1 provides the HTTP handlers for the agent registry.
package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/DataWorksAI-com/MbtaWinter2026/internal/domain"
	"github.com/DataWorksAI-com/MbtaWinter2026/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers the registry routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Agent registry API
	e.POST("/register", h.RegisterAgent)
	e.PUT("/agents/:agent_id/status", h.UpdateAgentStatus)
	e.DELETE("/agents/:agent_id", h.DeleteAgent)
	e.GET("/agents/:agent_id", h.GetAgent)
	e.GET("/lookup/:id", h.Lookup)
	e.GET("/search", h.Search)
	e.GET("/list", h.ListAgents)
	e.GET("/stats", h.Stats)

	// Client aliases
	e.GET("/clients", h.ListClients)
	e.POST("/clients", h.RegisterClient)
	e.DELETE("/clients/:client_name", h.DeleteClient)

	// Agent facts
	e.POST("/api/agent-facts", h.PutAgentFacts)
	e.GET("/agent-facts", h.ListAgentFacts)
	e.GET("/@:agent_name", h.GetAgentFacts)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Health(c.Request().Context()))
}

// errorResponse maps a service error onto its HTTP status.
func errorResponse(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}
