package registryclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DataWorksAI-com/MbtaWinter2026/internal/domain"
	"github.com/DataWorksAI-com/MbtaWinter2026/internal/registry"
)

func TestClientRegisterAndUpdate(t *testing.T) {
	var gotPaths []string
	var gotPatch map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPaths = append(gotPaths, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/register":
			var req domain.RegisterRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("failed to decode request: %v", err)
			}
			json.NewEncoder(w).Encode(domain.Ack{Status: "success", ID: req.AgentID})
		case "/agents/a1/status":
			body, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(body, &gotPatch); err != nil {
				t.Fatalf("failed to decode patch: %v", err)
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "updated",
				"agent":  domain.AgentView{AgentID: "a1", Alive: true},
			})
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ack, err := client.Register(ctx, domain.RegisterRequest{AgentID: "a1", AgentURL: "http://a1"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if ack.Status != "success" || ack.ID != "a1" {
		t.Fatalf("unexpected ack: %+v", ack)
	}

	alive := true
	view, err := client.UpdateStatus(ctx, "a1", StatusPatch{Alive: &alive})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !view.Alive {
		t.Fatalf("unexpected view: %+v", view)
	}
	if len(gotPatch) != 1 || gotPatch["alive"] != true {
		t.Fatalf("patch sent absent fields: %v", gotPatch)
	}
	if len(gotPaths) != 2 || gotPaths[0] != "POST /register" || gotPaths[1] != "PUT /agents/a1/status" {
		t.Fatalf("unexpected requests: %v", gotPaths)
	}
}

func TestClientSearchEncodesQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("q") != "mbta" || r.URL.Query().Get("tags") != "transit,ferry" {
			t.Fatalf("unexpected query: %s", r.URL.RawQuery)
		}
		if _, ok := r.URL.Query()["capabilities"]; ok {
			t.Fatalf("empty capabilities should not be sent")
		}
		json.NewEncoder(w).Encode([]domain.AgentView{{AgentID: "mbta-alerts"}})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	views, err := client.Search(context.Background(), registry.SearchQuery{Query: "mbta", Tags: "transit,ferry"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(views) != 1 || views[0].AgentID != "mbta-alerts" {
		t.Fatalf("unexpected views: %+v", views)
	}
}

func TestClientErrorMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"ID 'ghost' not found"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.Lookup(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Message != "ID 'ghost' not found" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClientUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, time.Second)
	if _, err := client.Stats(context.Background()); err == nil {
		t.Fatalf("expected error for closed server")
	}
}
