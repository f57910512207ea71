package v1

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// PutAgentFacts stores or merges an agent facts document.
// POST /api/agent-facts
func (h *Handler) PutAgentFacts(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	res, err := h.service.PutAgentFacts(c.Request().Context(), body)
	if err != nil {
		return errorResponse(c, err)
	}
	if res.Created {
		return c.JSON(http.StatusOK, map[string]string{"status": "success", "id": res.ID})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "success", "id": res.ID, "message": "updated"})
}

// GetAgentFacts returns the facts document of one agent.
// GET /@:agent_name (a trailing ".json" is ignored)
func (h *Handler) GetAgentFacts(c echo.Context) error {
	name := strings.TrimSuffix(c.Param("agent_name"), ".json")

	doc, err := h.service.GetAgentFacts(c.Request().Context(), name)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, doc)
}

// ListAgentFacts returns every stored facts document.
// GET /agent-facts
func (h *Handler) ListAgentFacts(c echo.Context) error {
	docs, err := h.service.ListAgentFacts(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"agent_facts": docs,
		"count":       len(docs),
	})
}
