package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DataWorksAI-com/MbtaWinter2026/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func TestSQLiteStoreAgents(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	owner := "rider-app"
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	agent := &domain.AgentRecord{
		AgentID:      "mbta-alerts",
		AgentURL:     "http://alerts:8001",
		APIURL:       "http://alerts:8001/api",
		Alive:        true,
		AssignedTo:   &owner,
		Description:  "service alerts",
		Capabilities: []string{"alerts", "delays"},
		Tags:         []string{"transit"},
		LastUpdate:   now,
	}
	if err := store.UpsertAgent(ctx, agent); err != nil {
		t.Fatalf("UpsertAgent failed: %v", err)
	}

	agents, err := store.LoadAgents(ctx)
	if err != nil {
		t.Fatalf("LoadAgents failed: %v", err)
	}
	if len(agents) != 1 {
		t.Fatalf("expected 1 agent, got %d", len(agents))
	}
	got := agents[0]
	if got.AgentURL != agent.AgentURL || got.APIURL != agent.APIURL || !got.Alive || got.Description != agent.Description {
		t.Fatalf("unexpected agent: %+v", got)
	}
	if got.AssignedTo == nil || *got.AssignedTo != owner {
		t.Fatalf("unexpected assigned_to: %v", got.AssignedTo)
	}
	if len(got.Capabilities) != 2 || got.Capabilities[1] != "delays" || len(got.Tags) != 1 {
		t.Fatalf("unexpected lists: %+v", got)
	}
	if !got.LastUpdate.Equal(now) {
		t.Fatalf("unexpected last_update: %v", got.LastUpdate)
	}

	// Overwrite clears optional fields.
	agent.Alive = false
	agent.AssignedTo = nil
	agent.APIURL = ""
	agent.Capabilities = nil
	if err := store.UpsertAgent(ctx, agent); err != nil {
		t.Fatalf("UpsertAgent overwrite failed: %v", err)
	}
	agents, _ = store.LoadAgents(ctx)
	got = agents[0]
	if got.Alive || got.AssignedTo != nil || got.APIURL != "" {
		t.Fatalf("overwrite not applied: %+v", got)
	}
	if got.Capabilities == nil || len(got.Capabilities) != 0 {
		t.Fatalf("expected empty capabilities, got %v", got.Capabilities)
	}

	if err := store.DeleteAgent(ctx, "mbta-alerts"); err != nil {
		t.Fatalf("DeleteAgent failed: %v", err)
	}
	if err := store.DeleteAgent(ctx, "mbta-alerts"); err != nil {
		t.Fatalf("DeleteAgent of missing agent failed: %v", err)
	}
	agents, _ = store.LoadAgents(ctx)
	if len(agents) != 0 {
		t.Fatalf("expected no agents, got %+v", agents)
	}
}

func TestSQLiteStoreAgentOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	for _, id := range []string{"c", "a", "b"} {
		if err := store.UpsertAgent(ctx, &domain.AgentRecord{AgentID: id, AgentURL: "http://" + id}); err != nil {
			t.Fatalf("UpsertAgent %s failed: %v", id, err)
		}
	}
	// Overwriting keeps the original position.
	if err := store.UpsertAgent(ctx, &domain.AgentRecord{AgentID: "c", AgentURL: "http://c2"}); err != nil {
		t.Fatalf("UpsertAgent failed: %v", err)
	}

	agents, err := store.LoadAgents(ctx)
	if err != nil {
		t.Fatalf("LoadAgents failed: %v", err)
	}
	var ids []string
	for _, a := range agents {
		ids = append(ids, a.AgentID)
	}
	if len(ids) != 3 || ids[0] != "c" || ids[1] != "a" || ids[2] != "b" {
		t.Fatalf("unexpected order: %v", ids)
	}
	if agents[0].AgentURL != "http://c2" {
		t.Fatalf("overwrite not applied: %+v", agents[0])
	}
}

func TestSQLiteStoreClients(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	if err := store.UpsertClient(ctx, &domain.ClientAlias{ClientName: "rider", AgentID: "a1", APIURL: "http://rider"}); err != nil {
		t.Fatalf("UpsertClient failed: %v", err)
	}
	if err := store.UpsertClient(ctx, &domain.ClientAlias{ClientName: "kiosk", AgentID: "a1"}); err != nil {
		t.Fatalf("UpsertClient failed: %v", err)
	}
	if err := store.UpsertClient(ctx, &domain.ClientAlias{ClientName: "rider", AgentID: "a2"}); err != nil {
		t.Fatalf("UpsertClient overwrite failed: %v", err)
	}

	clients, err := store.LoadClients(ctx)
	if err != nil {
		t.Fatalf("LoadClients failed: %v", err)
	}
	if len(clients) != 2 || clients[0].ClientName != "rider" || clients[1].ClientName != "kiosk" {
		t.Fatalf("unexpected clients: %+v", clients)
	}
	if clients[0].AgentID != "a2" || clients[0].APIURL != "" {
		t.Fatalf("overwrite not applied: %+v", clients[0])
	}

	if err := store.DeleteClient(ctx, "rider"); err != nil {
		t.Fatalf("DeleteClient failed: %v", err)
	}
	clients, _ = store.LoadClients(ctx)
	if len(clients) != 1 || clients[0].ClientName != "kiosk" {
		t.Fatalf("unexpected clients after delete: %+v", clients)
	}
}

func TestSQLiteStoreAgentFacts(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	missing, err := store.GetAgentFacts(ctx, "a1")
	if err != nil {
		t.Fatalf("GetAgentFacts failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil facts, got %+v", missing)
	}

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	facts := &domain.AgentFacts{
		ID:        "f-1",
		AgentName: "a1",
		Document: map[string]json.RawMessage{
			"agent_name": json.RawMessage(`"a1"`),
			"version":    json.RawMessage(`"1.0"`),
		},
		CreatedAt: created,
		UpdatedAt: created,
	}
	if err := store.PutAgentFacts(ctx, facts); err != nil {
		t.Fatalf("PutAgentFacts failed: %v", err)
	}

	// An update replaces the document but keeps id and created_at.
	facts.ID = "f-2"
	facts.Document["version"] = json.RawMessage(`"2.0"`)
	facts.UpdatedAt = created.Add(time.Hour)
	if err := store.PutAgentFacts(ctx, facts); err != nil {
		t.Fatalf("PutAgentFacts update failed: %v", err)
	}

	got, err := store.GetAgentFacts(ctx, "a1")
	if err != nil {
		t.Fatalf("GetAgentFacts failed: %v", err)
	}
	if got.ID != "f-1" || !got.CreatedAt.Equal(created) || !got.UpdatedAt.Equal(created.Add(time.Hour)) {
		t.Fatalf("unexpected facts metadata: %+v", got)
	}
	if string(got.Document["version"]) != `"2.0"` {
		t.Fatalf("unexpected document: %s", got.Document["version"])
	}

	all, err := store.ListAgentFacts(ctx)
	if err != nil {
		t.Fatalf("ListAgentFacts failed: %v", err)
	}
	if len(all) != 1 || all[0].AgentName != "a1" {
		t.Fatalf("unexpected facts list: %+v", all)
	}
}

func TestSQLiteStorePing(t *testing.T) {
	store := newTestStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	store.Close()
	if err := store.Ping(context.Background()); err == nil {
		t.Fatalf("expected Ping to fail after Close")
	}
}
