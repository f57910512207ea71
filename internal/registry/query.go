package registry

import (
	"strings"

	"github.com/DataWorksAI-com/MbtaWinter2026/internal/domain"
)

// SearchQuery holds the search predicates. Empty fields match everything.
type SearchQuery struct {
	// Query is matched case-insensitively as a substring of agent_id.
	Query string
	// Capabilities is a comma-separated list; an agent matches if it has any of them.
	Capabilities string
	// Tags is a comma-separated list; an agent matches if it has any of them.
	Tags string
}

// ParseFilterList splits a comma-separated filter, trimming items and
// dropping empty ones.
func ParseFilterList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

type predicate func(*domain.AgentRecord) bool

func nameContains(query string) predicate {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	return func(a *domain.AgentRecord) bool {
		return strings.Contains(strings.ToLower(a.AgentID), q)
	}
}

func intersects(want []string, field func(*domain.AgentRecord) []string) predicate {
	if len(want) == 0 {
		return nil
	}
	return func(a *domain.AgentRecord) bool {
		for _, have := range field(a) {
			for _, w := range want {
				if have == w {
					return true
				}
			}
		}
		return false
	}
}

// Filter returns the agents that satisfy every predicate in q, preserving
// the input order.
func Filter(agents []*domain.AgentRecord, q SearchQuery) []*domain.AgentRecord {
	var preds []predicate
	for _, p := range []predicate{
		nameContains(q.Query),
		intersects(ParseFilterList(q.Capabilities), func(a *domain.AgentRecord) []string { return a.Capabilities }),
		intersects(ParseFilterList(q.Tags), func(a *domain.AgentRecord) []string { return a.Tags }),
	} {
		if p != nil {
			preds = append(preds, p)
		}
	}

	out := make([]*domain.AgentRecord, 0, len(agents))
next:
	for _, a := range agents {
		for _, p := range preds {
			if !p(a) {
				continue next
			}
		}
		out = append(out, a)
	}
	return out
}

// Resolve looks name up first as an agent_id, then as a client alias.
// An alias returns its agent with the alias api_url substituted, unless the
// alias has none.
func Resolve(d *Directory, name string) (domain.AgentView, error) {
	if a, ok := d.agent(name); ok {
		return a.View(), nil
	}
	c, ok := d.client(name)
	if !ok {
		return domain.AgentView{}, domain.ErrNotFound
	}
	a, ok := d.agent(c.AgentID)
	if !ok {
		return domain.AgentView{}, domain.ErrDanglingAlias
	}
	view := a.View()
	if c.APIURL != "" {
		view.APIURL = c.APIURL
	}
	return view, nil
}

// Summarize aggregates counts over the directory.
func Summarize(d *Directory) domain.Stats {
	s := domain.Stats{
		TotalAgents:  len(d.agents),
		TotalClients: len(d.clients),
	}
	for _, a := range d.agents {
		if a.Alive {
			s.AliveAgents++
		}
	}
	return s
}

// AgentURLs flattens the directory to agent_id -> agent_url.
func AgentURLs(d *Directory) map[string]string {
	out := make(map[string]string, len(d.agents))
	for id, a := range d.agents {
		out[id] = a.AgentURL
	}
	return out
}

// ClientNames lists the known aliases in registration order.
func ClientNames(d *Directory) []string {
	out := make([]string, len(d.clientOrder))
	copy(out, d.clientOrder)
	return out
}
