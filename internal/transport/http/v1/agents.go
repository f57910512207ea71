package v1

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/DataWorksAI-com/MbtaWinter2026/internal/domain"
	"github.com/DataWorksAI-com/MbtaWinter2026/internal/registry"
)

// RegisterAgent registers or re-registers an agent.
// POST /register
func (h *Handler) RegisterAgent(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	ack, err := h.service.RegisterAgent(ctx, req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, ack)
}

// UpdateAgentStatus applies a partial status update.
// PUT /agents/:agent_id/status
func (h *Handler) UpdateAgentStatus(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	update, err := domain.ParseStatusUpdate(body)
	if err != nil {
		return errorResponse(c, err)
	}

	view, err := h.service.UpdateAgentStatus(ctx, c.Param("agent_id"), update)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "updated",
		"agent":  view,
	})
}

// DeleteAgent removes an agent and its aliases.
// DELETE /agents/:agent_id
func (h *Handler) DeleteAgent(c echo.Context) error {
	ack, err := h.service.DeleteAgent(c.Request().Context(), c.Param("agent_id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, ack)
}

// GetAgent returns the full record of an agent.
// GET /agents/:agent_id
func (h *Handler) GetAgent(c echo.Context) error {
	view, err := h.service.GetAgent(c.Request().Context(), c.Param("agent_id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Lookup resolves an agent id or client alias.
// GET /lookup/:id
func (h *Handler) Lookup(c echo.Context) error {
	view, err := h.service.LookupAgent(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Search filters agents by id substring, capabilities and tags.
// GET /search?q=&capabilities=&tags=
func (h *Handler) Search(c echo.Context) error {
	q := registry.SearchQuery{
		Query:        c.QueryParam("q"),
		Capabilities: c.QueryParam("capabilities"),
		Tags:         c.QueryParam("tags"),
	}
	return c.JSON(http.StatusOK, h.service.SearchAgents(c.Request().Context(), q))
}

// ListAgents returns agent_id -> agent_url.
// GET /list
func (h *Handler) ListAgents(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.ListAgents(c.Request().Context()))
}

// Stats returns directory counters.
// GET /stats
func (h *Handler) Stats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Stats(c.Request().Context()))
}
