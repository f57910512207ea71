// Package rpc exposes the registry read path and heartbeats over JSON-RPC
// for in-cluster agents that keep a long-lived TCP connection.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"sync"

	"github.com/DataWorksAI-com/MbtaWinter2026/internal/domain"
	"github.com/DataWorksAI-com/MbtaWinter2026/internal/registry"
	"github.com/DataWorksAI-com/MbtaWinter2026/internal/service"
)

// Server serves the "Registry" JSON-RPC methods.
type Server struct {
	mu        sync.Mutex
	listener  net.Listener
	rpcServer *rpc.Server
	logger    *slog.Logger
	done      chan struct{}
}

// NewServer creates a new RPC server bound to the registry service.
func NewServer(svc *service.Service, logger *slog.Logger) (*Server, error) {
	rpcServer := rpc.NewServer()
	handler := &Handler{service: svc}
	if err := rpcServer.RegisterName("Registry", handler); err != nil {
		return nil, fmt.Errorf("register rpc handler: %w", err)
	}

	return &Server{
		rpcServer: rpcServer,
		logger:    logger,
		done:      make(chan struct{}),
	}, nil
}

// Start begins accepting RPC connections on the given address.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown closes it.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				close(s.done)
				return nil
			}
			s.logger.Warn("rpc accept error", "error", err)
			continue
		}

		go s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(conn))
	}
}

// Shutdown stops accepting new RPC connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return nil
	}

	if err := ln.Close(); err != nil {
		return err
	}

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handler implements the registry RPC methods.
type Handler struct {
	service *service.Service
}

// LookupArgs names an agent id or client alias.
type LookupArgs struct {
	Name string `json:"name"`
}

// SearchReply wraps search results.
type SearchReply struct {
	Agents []domain.AgentView `json:"agents"`
}

// HeartbeatArgs reports an agent's liveness.
type HeartbeatArgs struct {
	AgentID string `json:"agent_id"`
	Alive   bool   `json:"alive"`
}

// StatsArgs is empty.
type StatsArgs struct{}

// Lookup resolves an agent id or client alias.
func (h *Handler) Lookup(req *LookupArgs, resp *domain.AgentView) error {
	if req == nil || req.Name == "" {
		return errors.New("name is required")
	}

	view, err := h.service.LookupAgent(context.Background(), req.Name)
	if err != nil {
		return err
	}
	*resp = view
	return nil
}

// Search filters agents.
func (h *Handler) Search(req *registry.SearchQuery, resp *SearchReply) error {
	if req == nil {
		req = &registry.SearchQuery{}
	}
	resp.Agents = h.service.SearchAgents(context.Background(), *req)
	return nil
}

// Heartbeat sets an agent's liveness, leaving its other fields alone.
func (h *Handler) Heartbeat(req *HeartbeatArgs, resp *domain.AgentView) error {
	if req == nil || req.AgentID == "" {
		return errors.New("agent_id is required")
	}

	update := domain.StatusUpdate{Alive: domain.Some(req.Alive)}
	view, err := h.service.UpdateAgentStatus(context.Background(), req.AgentID, update)
	if err != nil {
		return err
	}
	*resp = view
	return nil
}

// Stats returns directory counters.
func (h *Handler) Stats(req *StatsArgs, resp *domain.Stats) error {
	*resp = h.service.Stats(context.Background())
	return nil
}
