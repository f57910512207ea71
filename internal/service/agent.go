package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/DataWorksAI-com/MbtaWinter2026/internal/domain"
	"github.com/DataWorksAI-com/MbtaWinter2026/internal/registry"
	"github.com/DataWorksAI-com/MbtaWinter2026/policy"
)

func (s *Service) RegisterAgent(ctx context.Context, req domain.RegisterRequest) (ack domain.Ack, err error) {
	ctx, end := s.startSpan(ctx, "registry.RegisterAgent", attribute.String("agent_id", req.AgentID))
	defer func() { end(err) }()

	if err := req.Validate(); err != nil {
		return domain.Ack{}, err
	}
	if err := s.admit(ctx, policy.Input{
		Operation: policy.OpRegisterAgent,
		AgentID:   req.AgentID,
		AgentURL:  req.AgentURL,
		APIURL:    req.APIURL,
	}); err != nil {
		return domain.Ack{}, err
	}
	return s.engine.Register(ctx, req)
}

func (s *Service) UpdateAgentStatus(ctx context.Context, agentID string, u domain.StatusUpdate) (view domain.AgentView, err error) {
	ctx, end := s.startSpan(ctx, "registry.UpdateAgentStatus", attribute.String("agent_id", agentID))
	defer func() { end(err) }()

	return s.engine.UpdateStatus(ctx, agentID, u)
}

func (s *Service) DeleteAgent(ctx context.Context, agentID string) (ack domain.Ack, err error) {
	ctx, end := s.startSpan(ctx, "registry.DeleteAgent", attribute.String("agent_id", agentID))
	defer func() { end(err) }()

	return s.engine.Delete(ctx, agentID)
}

func (s *Service) GetAgent(ctx context.Context, agentID string) (domain.AgentView, error) {
	return s.engine.Get(agentID)
}

func (s *Service) LookupAgent(ctx context.Context, name string) (view domain.AgentView, err error) {
	_, end := s.startSpan(ctx, "registry.Lookup", attribute.String("name", name))
	defer func() { end(err) }()

	return s.engine.Lookup(name)
}

func (s *Service) SearchAgents(ctx context.Context, q registry.SearchQuery) []domain.AgentView {
	_, end := s.startSpan(ctx, "registry.Search",
		attribute.String("q", q.Query),
		attribute.String("capabilities", q.Capabilities),
		attribute.String("tags", q.Tags))
	defer end(nil)

	return s.engine.Search(q)
}

func (s *Service) ListAgents(ctx context.Context) map[string]string {
	return s.engine.ListAgents()
}

func (s *Service) ListClients(ctx context.Context) []string {
	return s.engine.ListClients()
}

func (s *Service) RegisterClient(ctx context.Context, req domain.ClientRegisterRequest) (ack domain.Ack, err error) {
	ctx, end := s.startSpan(ctx, "registry.RegisterClient", attribute.String("client_name", req.ClientName))
	defer func() { end(err) }()

	if err := req.Validate(); err != nil {
		return domain.Ack{}, err
	}
	if err := s.admit(ctx, policy.Input{
		Operation:  policy.OpRegisterClient,
		ClientName: req.ClientName,
		AgentID:    req.AgentID,
		APIURL:     req.APIURL,
	}); err != nil {
		return domain.Ack{}, err
	}
	return s.engine.RegisterClient(ctx, req)
}

func (s *Service) DeleteClient(ctx context.Context, clientName string) (ack domain.Ack, err error) {
	ctx, end := s.startSpan(ctx, "registry.DeleteClient", attribute.String("client_name", clientName))
	defer func() { end(err) }()

	return s.engine.DeleteClient(ctx, clientName)
}

func (s *Service) Stats(ctx context.Context) domain.Stats {
	return s.engine.Stats()
}

// admit evaluates the registration policy, if one is configured.
func (s *Service) admit(ctx context.Context, input policy.Input) error {
	if s.policyEngine == nil {
		return nil
	}
	decision, reason, err := s.policyEngine.Evaluate(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to evaluate registration policy: %w", err)
	}
	if decision == policy.DecisionDeny {
		s.logger.Info("registration denied by policy", "operation", input.Operation, "agent_id", input.AgentID, "client_name", input.ClientName, "reason", reason)
		if reason == "" {
			return domain.ErrPolicyDenied
		}
		return fmt.Errorf("%w: %s", domain.ErrPolicyDenied, reason)
	}
	return nil
}
