package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/DataWorksAI-com/MbtaWinter2026/internal/domain"
)

// SQLiteStore implements Store and FactsStore using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	tracer trace.Tracer
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	store := &SQLiteStore{db: db, tracer: otel.Tracer("registry/store")}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS agents (
			agent_id TEXT PRIMARY KEY,
			agent_url TEXT NOT NULL,
			api_url TEXT,
			alive INTEGER NOT NULL DEFAULT 0,
			assigned_to TEXT,
			description TEXT NOT NULL DEFAULT '',
			capabilities TEXT,
			tags TEXT,
			last_update DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			seq INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS client_registry (
			client_name TEXT PRIMARY KEY,
			api_url TEXT,
			agent_id TEXT NOT NULL,
			seq INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_client_registry_agent ON client_registry(agent_id)`,
		`CREATE TABLE IF NOT EXISTS agent_facts (
			agent_name TEXT PRIMARY KEY,
			id TEXT NOT NULL,
			document TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// LoadAgents returns every stored agent in first-registration order.
func (s *SQLiteStore) LoadAgents(ctx context.Context) ([]domain.AgentRecord, error) {
	ctx, span := s.tracer.Start(ctx, "store.LoadAgents")
	defer span.End()

	rows, err := s.db.QueryContext(ctx,
		`SELECT agent_id, agent_url, api_url, alive, assigned_to, description, capabilities, tags, last_update
		 FROM agents ORDER BY seq, rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []domain.AgentRecord
	for rows.Next() {
		var agent domain.AgentRecord
		var apiURL, assignedTo, caps, tags sql.NullString
		if err := rows.Scan(&agent.AgentID, &agent.AgentURL, &apiURL, &agent.Alive, &assignedTo,
			&agent.Description, &caps, &tags, &agent.LastUpdate); err != nil {
			return nil, err
		}
		agent.APIURL = apiURL.String
		if assignedTo.Valid {
			v := assignedTo.String
			agent.AssignedTo = &v
		}
		agent.Capabilities = decodeList(caps)
		agent.Tags = decodeList(tags)
		agents = append(agents, agent)
	}
	span.SetAttributes(attribute.Int("agents", len(agents)))
	return agents, rows.Err()
}

// UpsertAgent inserts the agent or overwrites its fields.
func (s *SQLiteStore) UpsertAgent(ctx context.Context, agent *domain.AgentRecord) error {
	ctx, span := s.tracer.Start(ctx, "store.UpsertAgent", trace.WithAttributes(attribute.String("agent_id", agent.AgentID)))
	defer span.End()

	caps, _ := json.Marshal(nonNil(agent.Capabilities))
	tags, _ := json.Marshal(nonNil(agent.Tags))
	var assignedTo sql.NullString
	if agent.AssignedTo != nil {
		assignedTo = sql.NullString{String: *agent.AssignedTo, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO agents (agent_id, agent_url, api_url, alive, assigned_to, description, capabilities, tags, last_update, seq)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM agents))
		 ON CONFLICT(agent_id) DO UPDATE SET
			agent_url = excluded.agent_url,
			api_url = excluded.api_url,
			alive = excluded.alive,
			assigned_to = excluded.assigned_to,
			description = excluded.description,
			capabilities = excluded.capabilities,
			tags = excluded.tags,
			last_update = excluded.last_update`,
		agent.AgentID, agent.AgentURL, nullString(agent.APIURL), agent.Alive, assignedTo,
		agent.Description, string(caps), string(tags), agent.LastUpdate)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// DeleteAgent removes an agent. Deleting a missing agent is not an error.
func (s *SQLiteStore) DeleteAgent(ctx context.Context, agentID string) error {
	ctx, span := s.tracer.Start(ctx, "store.DeleteAgent", trace.WithAttributes(attribute.String("agent_id", agentID)))
	defer span.End()

	_, err := s.db.ExecContext(ctx, `DELETE FROM agents WHERE agent_id = ?`, agentID)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// LoadClients returns every stored client alias.
func (s *SQLiteStore) LoadClients(ctx context.Context) ([]domain.ClientAlias, error) {
	ctx, span := s.tracer.Start(ctx, "store.LoadClients")
	defer span.End()

	rows, err := s.db.QueryContext(ctx,
		`SELECT client_name, api_url, agent_id FROM client_registry ORDER BY seq, rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []domain.ClientAlias
	for rows.Next() {
		var client domain.ClientAlias
		var apiURL sql.NullString
		if err := rows.Scan(&client.ClientName, &apiURL, &client.AgentID); err != nil {
			return nil, err
		}
		client.APIURL = apiURL.String
		clients = append(clients, client)
	}
	return clients, rows.Err()
}

// UpsertClient inserts the alias or overwrites its fields.
func (s *SQLiteStore) UpsertClient(ctx context.Context, client *domain.ClientAlias) error {
	ctx, span := s.tracer.Start(ctx, "store.UpsertClient", trace.WithAttributes(attribute.String("client_name", client.ClientName)))
	defer span.End()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO client_registry (client_name, api_url, agent_id, seq)
		 VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM client_registry))
		 ON CONFLICT(client_name) DO UPDATE SET
			api_url = excluded.api_url,
			agent_id = excluded.agent_id`,
		client.ClientName, nullString(client.APIURL), client.AgentID)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// DeleteClient removes a client alias. Deleting a missing alias is not an error.
func (s *SQLiteStore) DeleteClient(ctx context.Context, clientName string) error {
	ctx, span := s.tracer.Start(ctx, "store.DeleteClient", trace.WithAttributes(attribute.String("client_name", clientName)))
	defer span.End()

	_, err := s.db.ExecContext(ctx, `DELETE FROM client_registry WHERE client_name = ?`, clientName)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// GetAgentFacts retrieves a facts document by agent name.
func (s *SQLiteStore) GetAgentFacts(ctx context.Context, agentName string) (*domain.AgentFacts, error) {
	var facts domain.AgentFacts
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT agent_name, id, document, created_at, updated_at FROM agent_facts WHERE agent_name = ?`,
		agentName).Scan(&facts.AgentName, &facts.ID, &doc, &facts.CreatedAt, &facts.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(doc), &facts.Document); err != nil {
		return nil, fmt.Errorf("corrupt facts document for %s: %w", agentName, err)
	}
	return &facts, nil
}

// PutAgentFacts inserts or replaces a facts document.
func (s *SQLiteStore) PutAgentFacts(ctx context.Context, facts *domain.AgentFacts) error {
	doc, err := json.Marshal(facts.Document)
	if err != nil {
		return fmt.Errorf("failed to encode facts document: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO agent_facts (agent_name, id, document, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(agent_name) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		facts.AgentName, facts.ID, string(doc), facts.CreatedAt, facts.UpdatedAt)
	return err
}

// ListAgentFacts lists all facts documents.
func (s *SQLiteStore) ListAgentFacts(ctx context.Context) ([]domain.AgentFacts, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT agent_name, id, document, created_at, updated_at FROM agent_facts ORDER BY created_at, agent_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []domain.AgentFacts
	for rows.Next() {
		var facts domain.AgentFacts
		var doc string
		if err := rows.Scan(&facts.AgentName, &facts.ID, &doc, &facts.CreatedAt, &facts.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(doc), &facts.Document); err != nil {
			return nil, fmt.Errorf("corrupt facts document for %s: %w", facts.AgentName, err)
		}
		all = append(all, facts)
	}
	return all, rows.Err()
}

func decodeList(v sql.NullString) []string {
	list := []string{}
	if v.Valid && v.String != "" {
		_ = json.Unmarshal([]byte(v.String), &list)
	}
	return list
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
