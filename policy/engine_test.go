package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const denyLocalhost = `
package registry_policy

default decision = "allow"

decision = "deny" {
	input.operation == "register_agent"
	startswith(input.agent_url, "http://localhost")
}

reason = "localhost endpoints are not reachable by clients" {
	decision == "deny"
}
`

func TestDefaultPolicyAllows(t *testing.T) {
	ctx := context.Background()
	e, err := NewEngine(ctx, DefaultPolicy)
	require.NoError(t, err)

	decision, _, err := e.Evaluate(ctx, Input{Operation: OpRegisterAgent, AgentID: "a1", AgentURL: "http://x"})
	require.NoError(t, err)
	require.Equal(t, DecisionAllow, decision)
}

func TestPolicyDeny(t *testing.T) {
	ctx := context.Background()
	e, err := NewEngine(ctx, denyLocalhost)
	require.NoError(t, err)

	decision, reason, err := e.Evaluate(ctx, Input{Operation: OpRegisterAgent, AgentID: "a1", AgentURL: "http://localhost:8000"})
	require.NoError(t, err)
	require.Equal(t, DecisionDeny, decision)
	require.Contains(t, reason, "localhost")

	decision, _, err = e.Evaluate(ctx, Input{Operation: OpRegisterClient, ClientName: "c1", AgentID: "a1"})
	require.NoError(t, err)
	require.Equal(t, DecisionAllow, decision)
}

func TestPolicyUnknownDecision(t *testing.T) {
	ctx := context.Background()
	e, err := NewEngine(ctx, `
package registry_policy

decision = "maybe"
`)
	require.NoError(t, err)

	_, _, err = e.Evaluate(ctx, Input{Operation: OpRegisterAgent})
	require.Error(t, err)
}

func TestNewEngineRejectsBadRego(t *testing.T) {
	_, err := NewEngine(context.Background(), "package registry_policy\n\ndecision = {")
	require.Error(t, err)
}

func TestNewEngineFromFile(t *testing.T) {
	ctx := context.Background()

	e, err := NewEngineFromFile(ctx, "")
	require.NoError(t, err)
	decision, _, err := e.Evaluate(ctx, Input{Operation: OpRegisterAgent})
	require.NoError(t, err)
	require.Equal(t, DecisionAllow, decision)

	path := filepath.Join(t.TempDir(), "policy.rego")
	require.NoError(t, os.WriteFile(path, []byte(denyLocalhost), 0o600))
	e, err = NewEngineFromFile(ctx, path)
	require.NoError(t, err)
	decision, _, err = e.Evaluate(ctx, Input{Operation: OpRegisterAgent, AgentURL: "http://localhost"})
	require.NoError(t, err)
	require.Equal(t, DecisionDeny, decision)

	_, err = NewEngineFromFile(ctx, filepath.Join(t.TempDir(), "missing.rego"))
	require.Error(t, err)
}
