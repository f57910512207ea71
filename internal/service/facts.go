package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/DataWorksAI-com/MbtaWinter2026/internal/domain"
)

// PutAgentFacts stores a facts document keyed by its agent_name. An existing
// document is merged field by field and keeps its id.
func (s *Service) PutAgentFacts(ctx context.Context, body []byte) (res domain.FactsResult, err error) {
	ctx, end := s.startSpan(ctx, "registry.PutAgentFacts")
	defer func() { end(err) }()

	if s.facts == nil {
		return domain.FactsResult{}, domain.ErrStoreUnavailable
	}
	incoming, err := domain.ParseAgentFacts(body)
	if err != nil {
		return domain.FactsResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Store.Timeout)
	defer cancel()

	s.factsMu.Lock()
	defer s.factsMu.Unlock()

	existing, err := s.facts.GetAgentFacts(ctx, incoming.AgentName)
	if err != nil {
		return domain.FactsResult{}, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	now := s.now().UTC()
	created := existing == nil
	if created {
		incoming.ID = uuid.NewString()
		incoming.CreatedAt = now
		existing = incoming
	} else {
		existing.Merge(incoming.Document)
	}
	existing.UpdatedAt = now

	if err := s.facts.PutAgentFacts(ctx, existing); err != nil {
		return domain.FactsResult{}, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	s.logger.Info("agent facts stored", "agent_name", existing.AgentName, "id", existing.ID, "created", created)
	return domain.FactsResult{ID: existing.ID, Created: created}, nil
}

// GetAgentFacts returns the stored document for agentName.
func (s *Service) GetAgentFacts(ctx context.Context, agentName string) (doc map[string]json.RawMessage, err error) {
	ctx, end := s.startSpan(ctx, "registry.GetAgentFacts", attribute.String("agent_name", agentName))
	defer func() { end(err) }()

	if s.facts == nil {
		return nil, domain.ErrStoreUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.Store.Timeout)
	defer cancel()

	facts, err := s.facts.GetAgentFacts(ctx, agentName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if facts == nil {
		return nil, fmt.Errorf("%w: no facts for agent %s", domain.ErrNotFound, agentName)
	}
	return facts.Document, nil
}

// ListAgentFacts returns every stored document.
func (s *Service) ListAgentFacts(ctx context.Context) (docs []map[string]json.RawMessage, err error) {
	ctx, end := s.startSpan(ctx, "registry.ListAgentFacts")
	defer func() { end(err) }()

	if s.facts == nil {
		return nil, domain.ErrStoreUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.Store.Timeout)
	defer cancel()

	all, err := s.facts.ListAgentFacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	docs = make([]map[string]json.RawMessage, 0, len(all))
	for _, f := range all {
		docs = append(docs, f.Document)
	}
	return docs, nil
}
