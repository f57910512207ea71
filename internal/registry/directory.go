package registry

import (
	"slices"

	"github.com/DataWorksAI-com/MbtaWinter2026/internal/domain"
)

// Directory is the in-memory pair of maps the Engine serves reads from.
// It is not safe for concurrent use; the Engine guards it.
type Directory struct {
	agents     map[string]*domain.AgentRecord
	agentOrder []string

	clients     map[string]*domain.ClientAlias
	clientOrder []string
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		agents:  make(map[string]*domain.AgentRecord),
		clients: make(map[string]*domain.ClientAlias),
	}
}

func (d *Directory) agent(id string) (*domain.AgentRecord, bool) {
	a, ok := d.agents[id]
	return a, ok
}

// putAgent inserts or overwrites an agent. Overwrites keep their original position.
func (d *Directory) putAgent(a *domain.AgentRecord) {
	if _, ok := d.agents[a.AgentID]; !ok {
		d.agentOrder = append(d.agentOrder, a.AgentID)
	}
	d.agents[a.AgentID] = a
}

func (d *Directory) removeAgent(id string) {
	delete(d.agents, id)
	d.agentOrder = slices.DeleteFunc(d.agentOrder, func(s string) bool { return s == id })
}

func (d *Directory) client(name string) (*domain.ClientAlias, bool) {
	c, ok := d.clients[name]
	return c, ok
}

func (d *Directory) putClient(c *domain.ClientAlias) {
	if _, ok := d.clients[c.ClientName]; !ok {
		d.clientOrder = append(d.clientOrder, c.ClientName)
	}
	d.clients[c.ClientName] = c
}

func (d *Directory) removeClient(name string) {
	delete(d.clients, name)
	d.clientOrder = slices.DeleteFunc(d.clientOrder, func(s string) bool { return s == name })
}

// clientsOf returns the aliases that point at agentID.
func (d *Directory) clientsOf(agentID string) []string {
	var names []string
	for _, name := range d.clientOrder {
		if d.clients[name].AgentID == agentID {
			names = append(names, name)
		}
	}
	return names
}

// Agents returns the agents in insertion order.
func (d *Directory) Agents() []*domain.AgentRecord {
	out := make([]*domain.AgentRecord, 0, len(d.agentOrder))
	for _, id := range d.agentOrder {
		out = append(out, d.agents[id])
	}
	return out
}

// Clients returns the client aliases in insertion order.
func (d *Directory) Clients() []*domain.ClientAlias {
	out := make([]*domain.ClientAlias, 0, len(d.clientOrder))
	for _, name := range d.clientOrder {
		out = append(out, d.clients[name])
	}
	return out
}
