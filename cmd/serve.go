package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"github.com/DataWorksAI-com/MbtaWinter2026/internal/config"
	"github.com/DataWorksAI-com/MbtaWinter2026/internal/logging"
	"github.com/DataWorksAI-com/MbtaWinter2026/internal/registry"
	store "github.com/DataWorksAI-com/MbtaWinter2026/internal/repository"
	"github.com/DataWorksAI-com/MbtaWinter2026/internal/service"
	"github.com/DataWorksAI-com/MbtaWinter2026/internal/tracing"
	handler "github.com/DataWorksAI-com/MbtaWinter2026/internal/transport/http"
	"github.com/DataWorksAI-com/MbtaWinter2026/internal/transport/rpc"
	"github.com/DataWorksAI-com/MbtaWinter2026/policy"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the registry server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "HTTP port (default 6900)")
	serveCmd.Flags().Bool("no-store", false, "run cache-only without the durable store")
	rootCmd.AddCommand(serveCmd)

	_ = v.BindPFlag("http.port", serveCmd.Flags().Lookup("port"))
}

// app is a fully wired registry process.
type app struct {
	server    *echo.Echo
	rpcServer *rpc.Server
	service   *service.Service
	closers   []func(context.Context) error
}

// newApp wires the store, engine, policy and HTTP server from cfg. A store
// that cannot be opened leaves the registry running cache-only.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{}

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("initialize tracing: %w", err)
	}
	a.closers = append(a.closers, provider.Shutdown)
	if provider.Enabled() {
		logger.Info("tracing enabled", "exporter", cfg.Tracing.Exporter, "sample_rate", cfg.Tracing.SampleRate)
	}

	engineOpts := []registry.Option{
		registry.WithLogger(logger),
		registry.WithStoreTimeout(cfg.Store.Timeout),
	}
	var facts store.FactsStore
	if cfg.Store.Enabled {
		db, err := store.NewSQLiteStore(cfg.Store.DSN)
		if err != nil {
			logger.Warn("durable store unavailable, running cache-only", "dsn", cfg.Store.DSN, "error", err)
		} else {
			engineOpts = append(engineOpts, registry.WithStore(db))
			facts = db
			a.closers = append(a.closers, func(context.Context) error { return db.Close() })
		}
	}

	engine := registry.New(engineOpts...)
	engine.Bootstrap(ctx)
	a.closers = append(a.closers, func(context.Context) error {
		engine.Wait()
		return nil
	})

	var policyEngine *policy.Engine
	if cfg.Policy.File != "" {
		policyEngine, err = policy.NewEngineFromFile(ctx, cfg.Policy.File)
	} else {
		policyEngine, err = policy.NewEngine(ctx, policy.DefaultPolicy)
	}
	if err != nil {
		a.close(ctx, logger)
		return nil, fmt.Errorf("initialize policy engine: %w", err)
	}

	a.service = service.New(engine, facts, cfg, policyEngine, provider.Tracer())
	a.server = handler.NewServer(a.service)
	if cfg.RPC.Addr != "" {
		a.rpcServer, err = rpc.NewServer(a.service, logger)
		if err != nil {
			a.close(ctx, logger)
			return nil, err
		}
	}
	return a, nil
}

func (a *app) close(ctx context.Context, logger *slog.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("shutdown step failed", "error", err)
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	if noStore, _ := cmd.Flags().GetBool("no-store"); noStore {
		cfg.Store.Enabled = false
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	logger.Info("starting registry",
		"port", cfg.HTTP.Port,
		"store_enabled", cfg.Store.Enabled,
		"dsn", cfg.Store.DSN,
		"policy_file", cfg.Policy.File,
		"tracing", cfg.Tracing.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
		if err := a.server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Info("registry API started", "port", cfg.HTTP.Port)

	if a.rpcServer != nil {
		go func() {
			if err := a.rpcServer.Start(cfg.RPC.Addr); err != nil {
				errCh <- fmt.Errorf("rpc: %w", err)
			}
		}()
		logger.Info("registry RPC started", "addr", cfg.RPC.Addr)
	}

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	logger.Info("shutting down registry")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("failed to shutdown server gracefully", "error", err)
	}
	if a.rpcServer != nil {
		if err := a.rpcServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("failed to shutdown rpc server gracefully", "error", err)
		}
	}
	a.close(shutdownCtx, logger)

	logger.Info("registry stopped")
	if serveErr != nil {
		return fmt.Errorf("serve: %w", serveErr)
	}
	return nil
}
