package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// RegisterRequest is the input to agent registration.
type RegisterRequest struct {
	AgentID     string `json:"agent_id"`
	AgentURL    string `json:"agent_url"`
	APIURL      string `json:"api_url,omitempty"`
	Description string `json:"description,omitempty"`
}

// Validate checks the required fields.
func (r RegisterRequest) Validate() error {
	if strings.TrimSpace(r.AgentID) == "" {
		return fmt.Errorf("%w: agent_id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(r.AgentURL) == "" {
		return fmt.Errorf("%w: agent_url is required", ErrInvalidInput)
	}
	return nil
}

// ClientRegisterRequest is the input to client alias registration.
type ClientRegisterRequest struct {
	ClientName string `json:"client_name"`
	APIURL     string `json:"api_url,omitempty"`
	AgentID    string `json:"agent_id"`
}

// Validate checks the required fields.
func (r ClientRegisterRequest) Validate() error {
	if strings.TrimSpace(r.ClientName) == "" {
		return fmt.Errorf("%w: client_name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(r.AgentID) == "" {
		return fmt.Errorf("%w: agent_id is required", ErrInvalidInput)
	}
	return nil
}

// Field is an optional value with explicit presence.
type Field[T any] struct {
	Set   bool
	Value T
}

// Some returns a present field.
func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// StatusUpdate is an already-validated partial update. Only fields with
// Set == true are applied.
type StatusUpdate struct {
	Alive        Field[bool]
	AssignedTo   Field[*string]
	Capabilities Field[[]string]
	Tags         Field[[]string]
	Description  Field[string]
}

// Empty reports whether no field is present.
func (u StatusUpdate) Empty() bool {
	return !u.Alive.Set && !u.AssignedTo.Set && !u.Capabilities.Set && !u.Tags.Set && !u.Description.Set
}

// ParseStatusUpdate decodes a JSON object into a StatusUpdate.
//
// A body that is not a JSON object is invalid input. Individual fields with
// the wrong shape are dropped: capabilities and tags must be arrays of
// strings, description a string, assigned_to a string or null. alive takes
// the truthiness of whatever value was sent.
func ParseStatusUpdate(body []byte) (StatusUpdate, error) {
	var u StatusUpdate

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return u, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return u, fmt.Errorf("%w: body must be a JSON object", ErrInvalidInput)
	}
	if raw == nil {
		return u, nil
	}

	if v, ok := raw["alive"]; ok {
		u.Alive = Some(truthy(v))
	}
	if v, ok := raw["assigned_to"]; ok {
		if isNull(v) {
			u.AssignedTo = Some[*string](nil)
		} else {
			var s string
			if json.Unmarshal(v, &s) == nil {
				u.AssignedTo = Some(&s)
			}
		}
	}
	if v, ok := raw["capabilities"]; ok {
		if list, ok := stringList(v); ok {
			u.Capabilities = Some(list)
		}
	}
	if v, ok := raw["tags"]; ok {
		if list, ok := stringList(v); ok {
			u.Tags = Some(list)
		}
	}
	if v, ok := raw["description"]; ok {
		var s string
		if !isNull(v) && json.Unmarshal(v, &s) == nil {
			u.Description = Some(s)
		}
	}

	return u, nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

func stringList(v json.RawMessage) ([]string, bool) {
	if isNull(v) {
		return nil, false
	}
	var list []string
	if err := json.Unmarshal(v, &list); err != nil {
		return nil, false
	}
	if list == nil {
		list = []string{}
	}
	return list, true
}

func truthy(v json.RawMessage) bool {
	var x interface{}
	if err := json.Unmarshal(v, &x); err != nil {
		return false
	}
	switch t := x.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []interface{}:
		return len(t) > 0
	case map[string]interface{}:
		return len(t) > 0
	}
	return false
}
