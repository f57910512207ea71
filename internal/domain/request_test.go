package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseStatusUpdate_Presence(t *testing.T) {
	u, err := ParseStatusUpdate([]byte(`{"alive": true}`))
	require.NoError(t, err)
	require.Equal(t, Some(true), u.Alive)
	require.False(t, u.AssignedTo.Set)
	require.False(t, u.Capabilities.Set)
	require.False(t, u.Tags.Set)
	require.False(t, u.Description.Set)
}

func TestParseStatusUpdate_AllFields(t *testing.T) {
	u, err := ParseStatusUpdate([]byte(`{
		"alive": false,
		"assigned_to": "ops",
		"capabilities": ["route"],
		"tags": [],
		"description": "bus planner"
	}`))
	require.NoError(t, err)
	require.Equal(t, Some(false), u.Alive)
	require.True(t, u.AssignedTo.Set)
	require.Equal(t, "ops", *u.AssignedTo.Value)
	require.Equal(t, Some([]string{"route"}), u.Capabilities)
	require.Equal(t, Some([]string{}), u.Tags)
	require.Equal(t, Some("bus planner"), u.Description)
}

func TestParseStatusUpdate_WrongShapesAreDropped(t *testing.T) {
	u, err := ParseStatusUpdate([]byte(`{
		"capabilities": "route",
		"tags": [1, 2],
		"description": 42,
		"assigned_to": {"team": "x"}
	}`))
	require.NoError(t, err)
	require.True(t, u.Empty())
}

func TestParseStatusUpdate_NullAssignedToClears(t *testing.T) {
	u, err := ParseStatusUpdate([]byte(`{"assigned_to": null}`))
	require.NoError(t, err)
	require.True(t, u.AssignedTo.Set)
	require.Nil(t, u.AssignedTo.Value)
}

func TestParseStatusUpdate_AliveTruthiness(t *testing.T) {
	tests := map[string]bool{
		`{"alive": 1}`:     true,
		`{"alive": 0}`:     false,
		`{"alive": "yes"}`: true,
		`{"alive": ""}`:    false,
		`{"alive": null}`:  false,
		`{"alive": [1]}`:   true,
	}
	for body, want := range tests {
		u, err := ParseStatusUpdate([]byte(body))
		require.NoError(t, err, body)
		require.Equal(t, Some(want), u.Alive, body)
	}
}

func TestParseStatusUpdate_EmptyBody(t *testing.T) {
	u, err := ParseStatusUpdate(nil)
	require.NoError(t, err)
	require.True(t, u.Empty())

	u, err = ParseStatusUpdate([]byte("null"))
	require.NoError(t, err)
	require.True(t, u.Empty())
}

func TestParseStatusUpdate_NotAnObject(t *testing.T) {
	_, err := ParseStatusUpdate([]byte(`[1,2]`))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestRegisterRequestValidate(t *testing.T) {
	require.NoError(t, RegisterRequest{AgentID: "a", AgentURL: "http://a"}.Validate())
	require.ErrorIs(t, RegisterRequest{AgentID: " ", AgentURL: "http://a"}.Validate(), ErrInvalidInput)
	require.ErrorIs(t, RegisterRequest{AgentID: "a"}.Validate(), ErrInvalidInput)
}

func TestParseAgentFacts(t *testing.T) {
	f, err := ParseAgentFacts([]byte(`{"agent_name": "planner", "skills": ["route"]}`))
	require.NoError(t, err)
	require.Equal(t, "planner", f.AgentName)
	require.Contains(t, f.Document, "skills")

	_, err = ParseAgentFacts([]byte(`{"skills": []}`))
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = ParseAgentFacts([]byte(`"planner"`))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestAgentFactsMerge(t *testing.T) {
	f, err := ParseAgentFacts([]byte(`{"agent_name": "p", "a": 1, "b": 2}`))
	require.NoError(t, err)

	f.Merge(map[string]json.RawMessage{"b": json.RawMessage(`3`), "c": json.RawMessage(`"new"`)})
	require.Len(t, f.Document, 4)
	require.JSONEq(t, `1`, string(f.Document["a"]))
	require.JSONEq(t, `3`, string(f.Document["b"]))
	require.JSONEq(t, `"new"`, string(f.Document["c"]))
}
