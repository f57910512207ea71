package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/DataWorksAI-com/MbtaWinter2026/internal/config"
	"github.com/DataWorksAI-com/MbtaWinter2026/internal/registry"
	store "github.com/DataWorksAI-com/MbtaWinter2026/internal/repository"
	"github.com/DataWorksAI-com/MbtaWinter2026/policy"
)

type Service struct {
	engine       *registry.Engine
	facts        store.FactsStore
	config       *config.Config
	policyEngine *policy.Engine
	tracer       trace.Tracer
	logger       *slog.Logger

	factsMu sync.Mutex
	now     func() time.Time
}

// New wires the service. facts, policyEngine and tracer may be nil: without
// facts the facts endpoints report the store unavailable, without a policy
// every registration is admitted.
func New(engine *registry.Engine, facts store.FactsStore, cfg *config.Config, policyEngine *policy.Engine, tracer trace.Tracer) *Service {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	if cfg == nil {
		d := config.Defaults()
		cfg = &d
	}
	return &Service{
		engine:       engine,
		facts:        facts,
		config:       cfg,
		policyEngine: policyEngine,
		tracer:       tracer,
		logger:       slog.Default(),
		now:          time.Now,
	}
}

// HealthStatus is the liveness report of the registry process.
type HealthStatus struct {
	Status    string    `json:"status"`
	Store     bool      `json:"store"`
	Timestamp time.Time `json:"timestamp"`
}

// Health reports process health and whether the durable store is in use.
func (s *Service) Health(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Store:     s.engine.DurableStoreEnabled(),
		Timestamp: s.now(),
	}
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
