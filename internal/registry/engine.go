// Package registry implements the agent directory: an in-memory cache of
// agents and client aliases that serves every read, mirrored best-effort to
// a durable store on every mutation.
//
// The cache is authoritative. A mutation commits in memory, releases the
// lock and then persists the affected records under one storeTimeout
// deadline; a store failure is logged and never undoes the mutation.
// Records whose write failed stay pending and are written again once the
// store answers. A crash before that loses those updates on restart.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DataWorksAI-com/MbtaWinter2026/internal/domain"
	store "github.com/DataWorksAI-com/MbtaWinter2026/internal/repository"
)

// DefaultStoreTimeout bounds every call into the durable store.
const DefaultStoreTimeout = 5 * time.Second

// Engine owns the directory and applies all registry operations to it.
type Engine struct {
	mu  sync.RWMutex
	dir *Directory

	store        store.Store
	storeTimeout time.Duration
	storeOK      atomic.Bool

	// locks serializes writes per record so that each write reflects the
	// cache state at the time it runs.
	locks keyLocks

	// pending maps records whose cache state may be missing from the store
	// to the version that last changed them. Guarded by mu.
	pending map[recordKey]uint64
	version uint64

	replaying atomic.Bool
	replays   sync.WaitGroup

	logger *slog.Logger
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore attaches a durable store.
func WithStore(s store.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithStoreTimeout overrides DefaultStoreTimeout.
func WithStoreTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.storeTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine with an empty directory. Call Bootstrap before
// serving requests to load the durable store.
func New(opts ...Option) *Engine {
	e := &Engine{
		dir:          NewDirectory(),
		pending:      make(map[recordKey]uint64),
		storeTimeout: DefaultStoreTimeout,
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.storeOK.Store(e.store != nil)
	return e
}

// Bootstrap replaces the directory with the contents of the durable store.
// If either agents or clients cannot be read the engine starts empty and
// cache-only.
func (e *Engine) Bootstrap(ctx context.Context) {
	if e.store == nil {
		e.logger.Info("no durable store configured, running cache-only")
		return
	}

	loadCtx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	agents, err := e.store.LoadAgents(loadCtx)
	if err != nil {
		e.storeFailed("load_agents", "", err)
		return
	}

	dir := NewDirectory()
	for i := range agents {
		a := agents[i]
		if a.AgentID == "" {
			continue
		}
		dir.putAgent(&a)
	}

	clients, err := e.store.LoadClients(loadCtx)
	if err != nil {
		e.storeFailed("load_clients", "", err)
		return
	}
	for i := range clients {
		c := clients[i]
		if c.ClientName == "" {
			continue
		}
		dir.putClient(&c)
	}
	e.storeSucceeded()

	e.mu.Lock()
	e.dir = dir
	e.mu.Unlock()

	e.logger.Info("directory loaded", "agents", len(dir.agents), "clients", len(dir.clients))
}

// Register creates or overwrites an agent. The agent starts not alive with
// no owner, capabilities or tags; it must announce liveness via UpdateStatus.
func (e *Engine) Register(ctx context.Context, req domain.RegisterRequest) (domain.Ack, error) {
	if err := req.Validate(); err != nil {
		return domain.Ack{}, err
	}

	rec := &domain.AgentRecord{
		AgentID:      req.AgentID,
		AgentURL:     req.AgentURL,
		APIURL:       req.APIURL,
		Description:  req.Description,
		Capabilities: []string{},
		Tags:         []string{},
		LastUpdate:   e.now(),
	}

	e.mu.Lock()
	e.dir.putAgent(rec)
	e.markPending(agentKey(req.AgentID))
	e.mu.Unlock()

	e.persist(ctx, agentKey(req.AgentID))
	e.logger.Info("agent registered", "agent_id", req.AgentID)

	return domain.Ack{
		Status:  "success",
		ID:      req.AgentID,
		Message: fmt.Sprintf("Agent %s registered", req.AgentID),
	}, nil
}

// UpdateStatus merges the present fields of u into the agent.
func (e *Engine) UpdateStatus(ctx context.Context, agentID string, u domain.StatusUpdate) (domain.AgentView, error) {
	e.mu.Lock()
	cur, ok := e.dir.agent(agentID)
	if !ok {
		e.mu.Unlock()
		return domain.AgentView{}, fmt.Errorf("agent %q: %w", agentID, domain.ErrNotFound)
	}
	rec := cur.Clone()
	applyStatus(rec, u)
	rec.LastUpdate = e.now()
	e.dir.putAgent(rec)
	e.markPending(agentKey(agentID))
	view := rec.View()
	e.mu.Unlock()

	e.persist(ctx, agentKey(agentID))
	return view, nil
}

func applyStatus(rec *domain.AgentRecord, u domain.StatusUpdate) {
	if u.Alive.Set {
		rec.Alive = u.Alive.Value
	}
	if u.AssignedTo.Set {
		rec.AssignedTo = u.AssignedTo.Value
	}
	if u.Capabilities.Set {
		rec.Capabilities = append([]string{}, u.Capabilities.Value...)
	}
	if u.Tags.Set {
		rec.Tags = append([]string{}, u.Tags.Value...)
	}
	if u.Description.Set {
		rec.Description = u.Description.Value
	}
}

// Delete removes an agent together with every alias pointing at it. Both
// removals happen in one critical section, and the cascade is persisted
// under a single store deadline.
func (e *Engine) Delete(ctx context.Context, agentID string) (domain.Ack, error) {
	e.mu.Lock()
	if _, ok := e.dir.agent(agentID); !ok {
		e.mu.Unlock()
		return domain.Ack{}, fmt.Errorf("agent %q: %w", agentID, domain.ErrNotFound)
	}
	e.dir.removeAgent(agentID)
	aliases := e.dir.clientsOf(agentID)
	keys := []recordKey{agentKey(agentID)}
	e.markPending(keys[0])
	for _, name := range aliases {
		e.dir.removeClient(name)
		keys = append(keys, clientKey(name))
		e.markPending(clientKey(name))
	}
	e.mu.Unlock()

	e.persist(ctx, keys...)
	e.logger.Info("agent deleted", "agent_id", agentID, "aliases_removed", len(aliases))

	return domain.Ack{Status: "deleted", ID: agentID}, nil
}

// RegisterClient creates or overwrites a client alias. The referenced agent
// does not have to exist.
func (e *Engine) RegisterClient(ctx context.Context, req domain.ClientRegisterRequest) (domain.Ack, error) {
	if err := req.Validate(); err != nil {
		return domain.Ack{}, err
	}

	e.mu.Lock()
	e.dir.putClient(&domain.ClientAlias{
		ClientName: req.ClientName,
		APIURL:     req.APIURL,
		AgentID:    req.AgentID,
	})
	e.markPending(clientKey(req.ClientName))
	e.mu.Unlock()

	e.persist(ctx, clientKey(req.ClientName))
	e.logger.Info("client registered", "client_name", req.ClientName, "agent_id", req.AgentID)

	return domain.Ack{
		Status:  "success",
		ID:      req.ClientName,
		Message: fmt.Sprintf("Client %s registered", req.ClientName),
	}, nil
}

// DeleteClient removes a client alias.
func (e *Engine) DeleteClient(ctx context.Context, clientName string) (domain.Ack, error) {
	e.mu.Lock()
	if _, ok := e.dir.client(clientName); !ok {
		e.mu.Unlock()
		return domain.Ack{}, fmt.Errorf("client %q: %w", clientName, domain.ErrNotFound)
	}
	e.dir.removeClient(clientName)
	e.markPending(clientKey(clientName))
	e.mu.Unlock()

	e.persist(ctx, clientKey(clientName))
	return domain.Ack{Status: "deleted", ID: clientName}, nil
}

// Lookup resolves name as an agent_id, then as a client alias.
func (e *Engine) Lookup(name string) (domain.AgentView, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	view, err := Resolve(e.dir, name)
	if err != nil {
		return domain.AgentView{}, fmt.Errorf("lookup %q: %w", name, err)
	}
	return view, nil
}

// Get returns one agent.
func (e *Engine) Get(agentID string) (domain.AgentView, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	a, ok := e.dir.agent(agentID)
	if !ok {
		return domain.AgentView{}, fmt.Errorf("agent %q: %w", agentID, domain.ErrNotFound)
	}
	return a.View(), nil
}

// Search returns the agents matching q in registration order.
func (e *Engine) Search(q SearchQuery) []domain.AgentView {
	e.mu.RLock()
	defer e.mu.RUnlock()

	matched := Filter(e.dir.Agents(), q)
	out := make([]domain.AgentView, len(matched))
	for i, a := range matched {
		out[i] = a.View()
	}
	return out
}

// ListAgents returns agent_id -> agent_url for every agent.
func (e *Engine) ListAgents() map[string]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return AgentURLs(e.dir)
}

// ListClients returns every known client alias name.
func (e *Engine) ListClients() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return ClientNames(e.dir)
}

// Stats aggregates the current directory.
func (e *Engine) Stats() domain.Stats {
	e.mu.RLock()
	s := Summarize(e.dir)
	e.mu.RUnlock()
	s.DurableStoreEnabled = e.DurableStoreEnabled()
	return s
}

// DurableStoreEnabled reports whether a store is attached and its last call succeeded.
func (e *Engine) DurableStoreEnabled() bool {
	return e.store != nil && e.storeOK.Load()
}

// Wait blocks until any replay of pending records has finished.
func (e *Engine) Wait() {
	e.replays.Wait()
}

// markPending records that k changed in the cache. The caller holds mu.
func (e *Engine) markPending(k recordKey) {
	if e.store == nil {
		return
	}
	e.version++
	e.pending[k] = e.version
}

// persist mirrors the current cache state of keys to the store. All writes
// share one deadline; after the first failure the rest stay pending.
func (e *Engine) persist(ctx context.Context, keys ...recordKey) {
	if e.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.storeTimeout)
	defer cancel()

	for _, k := range keys {
		if err := e.write(ctx, k); err != nil {
			return
		}
	}
}

// write upserts or deletes one record so the store matches the cache.
func (e *Engine) write(ctx context.Context, k recordKey) error {
	unlock, err := e.locks.lock(ctx, k)
	if err != nil {
		e.storeFailed("wait", k.name, err)
		return err
	}
	defer unlock()

	e.mu.RLock()
	version, ok := e.pending[k]
	var agent *domain.AgentRecord
	var alias *domain.ClientAlias
	if k.client {
		if c, found := e.dir.client(k.name); found {
			cp := *c
			alias = &cp
		}
	} else if a, found := e.dir.agent(k.name); found {
		agent = a.Clone()
	}
	e.mu.RUnlock()
	if !ok {
		return nil
	}

	var op string
	switch {
	case k.client && alias != nil:
		op, err = "upsert_client", e.store.UpsertClient(ctx, alias)
	case k.client:
		op, err = "delete_client", e.store.DeleteClient(ctx, k.name)
	case agent != nil:
		op, err = "upsert_agent", e.store.UpsertAgent(ctx, agent)
	default:
		op, err = "delete_agent", e.store.DeleteAgent(ctx, k.name)
	}
	if err != nil {
		e.storeFailed(op, k.name, err)
		return err
	}

	e.mu.Lock()
	if e.pending[k] == version {
		delete(e.pending, k)
	}
	e.mu.Unlock()
	e.storeSucceeded()
	return nil
}

// replay writes every pending record after the store comes back. It stops
// at the first failure; the next recovery starts it again.
func (e *Engine) replay() {
	defer e.replays.Done()
	defer e.replaying.Store(false)

	e.mu.RLock()
	keys := make([]recordKey, 0, len(e.pending))
	for k := range e.pending {
		keys = append(keys, k)
	}
	e.mu.RUnlock()

	for _, k := range keys {
		ctx, cancel := context.WithTimeout(context.Background(), e.storeTimeout)
		err := e.write(ctx, k)
		cancel()
		if err != nil {
			return
		}
	}
	if len(keys) > 0 {
		e.logger.Info("replayed pending store writes", "records", len(keys))
	}
}

func (e *Engine) storeFailed(op, key string, err error) {
	e.storeOK.Store(false)
	e.logger.Warn("durable store call failed, continuing cache-only",
		"op", op, "key", key, "error", fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err))
}

func (e *Engine) storeSucceeded() {
	if e.storeOK.Swap(true) {
		return
	}
	e.logger.Info("durable store available")
	if e.replaying.CompareAndSwap(false, true) {
		e.replays.Add(1)
		go e.replay()
	}
}
