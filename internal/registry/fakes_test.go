package registry

import (
	"context"
	"errors"
	"sync"

	"github.com/DataWorksAI-com/MbtaWinter2026/internal/domain"
)

var errStoreDown = errors.New("connection refused")

// memStore is an in-memory Store that can be switched to fail every call.
type memStore struct {
	mu      sync.Mutex
	agents  map[string]domain.AgentRecord
	clients map[string]domain.ClientAlias
	failing bool
}

func newMemStore() *memStore {
	return &memStore{
		agents:  make(map[string]domain.AgentRecord),
		clients: make(map[string]domain.ClientAlias),
	}
}

func (m *memStore) setFailing(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing = v
}

func (m *memStore) check() error {
	if m.failing {
		return errStoreDown
	}
	return nil
}

func (m *memStore) LoadAgents(ctx context.Context) ([]domain.AgentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return nil, err
	}
	var out []domain.AgentRecord
	for _, a := range m.agents {
		out = append(out, a)
	}
	return out, nil
}

func (m *memStore) UpsertAgent(ctx context.Context, agent *domain.AgentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	m.agents[agent.AgentID] = *agent.Clone()
	return nil
}

func (m *memStore) DeleteAgent(ctx context.Context, agentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	delete(m.agents, agentID)
	return nil
}

func (m *memStore) LoadClients(ctx context.Context) ([]domain.ClientAlias, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return nil, err
	}
	var out []domain.ClientAlias
	for _, c := range m.clients {
		out = append(out, c)
	}
	return out, nil
}

func (m *memStore) UpsertClient(ctx context.Context, client *domain.ClientAlias) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	m.clients[client.ClientName] = *client
	return nil
}

func (m *memStore) DeleteClient(ctx context.Context, clientName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	delete(m.clients, clientName)
	return nil
}

func (m *memStore) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.check()
}

func (m *memStore) Close() error { return nil }

// hangingStore loads from memStore but blocks every write until the
// caller's context expires.
type hangingStore struct {
	*memStore
}

func (h hangingStore) UpsertAgent(ctx context.Context, _ *domain.AgentRecord) error {
	<-ctx.Done()
	return ctx.Err()
}

func (h hangingStore) DeleteAgent(ctx context.Context, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

func (h hangingStore) UpsertClient(ctx context.Context, _ *domain.ClientAlias) error {
	<-ctx.Done()
	return ctx.Err()
}

func (h hangingStore) DeleteClient(ctx context.Context, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

// clientsDownStore serves agents but fails to load client aliases.
type clientsDownStore struct {
	*memStore
}

func (clientsDownStore) LoadClients(context.Context) ([]domain.ClientAlias, error) {
	return nil, errStoreDown
}
