package v1

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/DataWorksAI-com/MbtaWinter2026/internal/registry"
	"github.com/DataWorksAI-com/MbtaWinter2026/internal/service"
)

func TestAgentFactsRoundTrip(t *testing.T) {
	e, _ := newTestServer(t)

	rec := do(t, e, http.MethodPost, "/api/agent-facts", `{"agent_name":"mbta-alerts","version":"1.0"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	var created map[string]string
	decode(t, rec, &created)
	if created["status"] != "success" || created["id"] == "" {
		t.Fatalf("unexpected create response: %v", created)
	}

	rec = do(t, e, http.MethodPost, "/api/agent-facts", `{"agent_name":"mbta-alerts","endpoint":"http://alerts"}`)
	var updated map[string]string
	decode(t, rec, &updated)
	if updated["message"] != "updated" || updated["id"] != created["id"] {
		t.Fatalf("unexpected update response: %v", updated)
	}

	rec = do(t, e, http.MethodGet, "/@mbta-alerts.json", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: %d %s", rec.Code, rec.Body.String())
	}
	var doc map[string]string
	decode(t, rec, &doc)
	if doc["version"] != "1.0" || doc["endpoint"] != "http://alerts" {
		t.Fatalf("facts not merged: %v", doc)
	}

	rec = do(t, e, http.MethodGet, "/agent-facts", "")
	var list struct {
		AgentFacts []map[string]string `json:"agent_facts"`
		Count      int                 `json:"count"`
	}
	decode(t, rec, &list)
	if list.Count != 1 || len(list.AgentFacts) != 1 {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestAgentFactsErrors(t *testing.T) {
	e, _ := newTestServer(t)

	if rec := do(t, e, http.MethodPost, "/api/agent-facts", `{"version":"1.0"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if rec := do(t, e, http.MethodGet, "/@ghost.json", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAgentFactsWithoutStore(t *testing.T) {
	engine := registry.New(registry.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	engine.Bootstrap(context.Background())
	e := echo.New()
	NewHandler(service.New(engine, nil, nil, nil, nil)).RegisterRoutes(e)

	if rec := do(t, e, http.MethodPost, "/api/agent-facts", `{"agent_name":"a1"}`); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if rec := do(t, e, http.MethodGet, "/agent-facts", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
