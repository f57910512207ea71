package policy

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/rego"
)

// Decisions returned by a registration policy.
const (
	DecisionAllow = "allow"
	DecisionDeny  = "deny"
)

// Input is the document a registration policy evaluates.
type Input struct {
	Operation  string `json:"operation"`
	AgentID    string `json:"agent_id,omitempty"`
	AgentURL   string `json:"agent_url,omitempty"`
	APIURL     string `json:"api_url,omitempty"`
	ClientName string `json:"client_name,omitempty"`
}

// Operations evaluated by the policy.
const (
	OpRegisterAgent  = "register_agent"
	OpRegisterClient = "register_client"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.registry_policy"),
		rego.Module("registry_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// NewEngineFromFile loads the policy from path, or DefaultPolicy when path is empty.
func NewEngineFromFile(ctx context.Context, path string) (*Engine, error) {
	if path == "" {
		return NewEngine(ctx, DefaultPolicy)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy %s: %w", path, err)
	}
	return NewEngine(ctx, string(content))
}

// Evaluate checks a registration against the policy.
// Returns: decision (allow, deny), reason (optional), error
func (e *Engine) Evaluate(ctx context.Context, input Input) (string, string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionAllow, "default", nil
	}

	doc, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return "", "", fmt.Errorf("policy package is not an object")
	}

	reason, _ := doc["reason"].(string)
	switch decision := doc["decision"].(type) {
	case nil:
		return DecisionAllow, "default", nil
	case string:
		if decision != DecisionAllow && decision != DecisionDeny {
			return "", "", fmt.Errorf("unknown policy decision %q", decision)
		}
		return decision, reason, nil
	default:
		return "", "", fmt.Errorf("policy decision has type %T, want string", decision)
	}
}

// DefaultPolicy admits every registration.
const DefaultPolicy = `
package registry_policy

default decision = "allow"
`
