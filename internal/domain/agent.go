// Package domain defines the core domain models for the agent registry.
package domain

import (
	"slices"
	"time"
)

// AgentRecord is the stored description of a registered agent.
type AgentRecord struct {
	AgentID      string    `json:"agent_id"`
	AgentURL     string    `json:"agent_url"`
	APIURL       string    `json:"api_url,omitempty"`
	Alive        bool      `json:"alive"`
	AssignedTo   *string   `json:"assigned_to"`
	Description  string    `json:"description"`
	Capabilities []string  `json:"capabilities"`
	Tags         []string  `json:"tags"`
	LastUpdate   time.Time `json:"last_update"`
}

// Clone returns a deep copy so callers never share slices with the directory.
func (a *AgentRecord) Clone() *AgentRecord {
	if a == nil {
		return nil
	}
	c := *a
	if a.AssignedTo != nil {
		v := *a.AssignedTo
		c.AssignedTo = &v
	}
	c.Capabilities = slices.Clone(a.Capabilities)
	c.Tags = slices.Clone(a.Tags)
	return &c
}

// View renders the record as returned to callers.
func (a *AgentRecord) View() AgentView {
	v := AgentView{
		AgentID:      a.AgentID,
		AgentURL:     a.AgentURL,
		APIURL:       a.APIURL,
		Alive:        a.Alive,
		Description:  a.Description,
		Capabilities: slices.Clone(a.Capabilities),
		Tags:         slices.Clone(a.Tags),
		LastUpdate:   a.LastUpdate,
	}
	if v.Capabilities == nil {
		v.Capabilities = []string{}
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}
	if a.AssignedTo != nil {
		s := *a.AssignedTo
		v.AssignedTo = &s
	}
	return v
}

// AgentView is the full read model of an agent.
type AgentView struct {
	AgentID      string    `json:"agent_id"`
	AgentURL     string    `json:"agent_url"`
	APIURL       string    `json:"api_url"`
	Alive        bool      `json:"alive"`
	AssignedTo   *string   `json:"assigned_to"`
	Description  string    `json:"description"`
	Capabilities []string  `json:"capabilities"`
	Tags         []string  `json:"tags"`
	LastUpdate   time.Time `json:"last_update"`
}

// ClientAlias maps a client-facing name onto an agent.
type ClientAlias struct {
	ClientName string `json:"client_name"`
	APIURL     string `json:"api_url"`
	AgentID    string `json:"agent_id"`
}

// Ack acknowledges a successful mutation.
type Ack struct {
	Status  string `json:"status"`
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
}

// Stats is an aggregate over the directory.
type Stats struct {
	TotalAgents         int  `json:"total_agents"`
	AliveAgents         int  `json:"alive_agents"`
	TotalClients        int  `json:"total_clients"`
	DurableStoreEnabled bool `json:"durable_store_enabled"`
}
