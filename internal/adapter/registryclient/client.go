// Package registryclient provides an HTTP client for the agent registry.
package registryclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DataWorksAI-com/MbtaWinter2026/internal/domain"
	"github.com/DataWorksAI-com/MbtaWinter2026/internal/registry"
)

// Client is an HTTP client for a registry server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new registry client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// StatusPatch is a partial status update. Nil fields are not sent.
type StatusPatch struct {
	Alive        *bool    `json:"alive,omitempty"`
	AssignedTo   *string  `json:"assigned_to,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Description  *string  `json:"description,omitempty"`
}

// StatusError is a non-2xx response from the registry.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("registry returned status %d: %s", e.Code, e.Message)
}

// Unwrap maps the status code back onto the registry error kinds.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusBadRequest:
		return domain.ErrInvalidInput
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusServiceUnavailable:
		return domain.ErrStoreUnavailable
	}
	return nil
}

func (c *Client) Register(ctx context.Context, req domain.RegisterRequest) (domain.Ack, error) {
	var ack domain.Ack
	err := c.do(ctx, http.MethodPost, "/register", req, &ack)
	return ack, err
}

func (c *Client) UpdateStatus(ctx context.Context, agentID string, patch StatusPatch) (domain.AgentView, error) {
	var resp struct {
		Agent domain.AgentView `json:"agent"`
	}
	err := c.do(ctx, http.MethodPut, "/agents/"+url.PathEscape(agentID)+"/status", patch, &resp)
	return resp.Agent, err
}

func (c *Client) Lookup(ctx context.Context, name string) (domain.AgentView, error) {
	var view domain.AgentView
	err := c.do(ctx, http.MethodGet, "/lookup/"+url.PathEscape(name), nil, &view)
	return view, err
}

func (c *Client) Search(ctx context.Context, q registry.SearchQuery) ([]domain.AgentView, error) {
	params := url.Values{}
	if q.Query != "" {
		params.Set("q", q.Query)
	}
	if q.Capabilities != "" {
		params.Set("capabilities", q.Capabilities)
	}
	if q.Tags != "" {
		params.Set("tags", q.Tags)
	}
	path := "/search"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var views []domain.AgentView
	err := c.do(ctx, http.MethodGet, path, nil, &views)
	return views, err
}

// List returns agent_id -> agent_url.
func (c *Client) List(ctx context.Context) (map[string]string, error) {
	var agents map[string]string
	err := c.do(ctx, http.MethodGet, "/list", nil, &agents)
	return agents, err
}

// Clients returns the registered alias names.
func (c *Client) Clients(ctx context.Context) (map[string]string, error) {
	var clients map[string]string
	err := c.do(ctx, http.MethodGet, "/clients", nil, &clients)
	return clients, err
}

func (c *Client) RegisterClient(ctx context.Context, req domain.ClientRegisterRequest) (domain.Ack, error) {
	var ack domain.Ack
	err := c.do(ctx, http.MethodPost, "/clients", req, &ack)
	return ack, err
}

func (c *Client) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	err := c.do(ctx, http.MethodGet, "/stats", nil, &stats)
	return stats, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to reach registry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(bodyBytes))
		if json.Unmarshal(bodyBytes, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return &StatusError{Code: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
