// Package store defines the durable storage contract and its implementations.
package store

import (
	"context"

	"github.com/DataWorksAI-com/MbtaWinter2026/internal/domain"
)

// Store is the durable mirror of the registry directory. Every write is an
// upsert or delete keyed by agent_id / client_name; the store never decides
// what to write.
type Store interface {
	// Agent operations
	LoadAgents(ctx context.Context) ([]domain.AgentRecord, error)
	UpsertAgent(ctx context.Context, agent *domain.AgentRecord) error
	DeleteAgent(ctx context.Context, agentID string) error

	// Client alias operations
	LoadClients(ctx context.Context) ([]domain.ClientAlias, error)
	UpsertClient(ctx context.Context, client *domain.ClientAlias) error
	DeleteClient(ctx context.Context, clientName string) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}

// FactsStore persists agent facts documents.
type FactsStore interface {
	GetAgentFacts(ctx context.Context, agentName string) (*domain.AgentFacts, error)
	PutAgentFacts(ctx context.Context, facts *domain.AgentFacts) error
	ListAgentFacts(ctx context.Context) ([]domain.AgentFacts, error)
}
