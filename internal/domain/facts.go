package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// AgentFacts is a free-form JSON document describing an agent, keyed by
// its agent_name field.
type AgentFacts struct {
	ID        string
	AgentName string
	Document  map[string]json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ParseAgentFacts decodes a facts document and extracts its agent_name.
func ParseAgentFacts(body []byte) (*AgentFacts, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil || doc == nil {
		return nil, fmt.Errorf("%w: agent facts must be a JSON object", ErrInvalidInput)
	}
	var name string
	if raw, ok := doc["agent_name"]; !ok || json.Unmarshal(raw, &name) != nil || strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: agent_name is required", ErrInvalidInput)
	}
	return &AgentFacts{AgentName: name, Document: doc}, nil
}

// Merge overlays the top-level fields of other onto f.
func (f *AgentFacts) Merge(other map[string]json.RawMessage) {
	if f.Document == nil {
		f.Document = make(map[string]json.RawMessage, len(other))
	}
	for k, v := range other {
		f.Document[k] = v
	}
}

// FactsResult reports the outcome of storing a facts document.
type FactsResult struct {
	ID      string `json:"id"`
	Created bool   `json:"created"`
}
