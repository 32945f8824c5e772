package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/italolelis/fetch_nodes/internal/cleanup"
	"github.com/italolelis/fetch_nodes/internal/config"
	"github.com/italolelis/fetch_nodes/internal/fetch"
	"github.com/italolelis/fetch_nodes/internal/http/rest"
	"github.com/italolelis/fetch_nodes/internal/logctx"
	"github.com/italolelis/fetch_nodes/internal/node"
	"github.com/italolelis/fetch_nodes/internal/nodes"
	"github.com/italolelis/fetch_nodes/internal/notifier"
	"github.com/italolelis/fetch_nodes/internal/storage"
	"github.com/italolelis/fetch_nodes/internal/storage/sqlite"
	"github.com/italolelis/fetch_nodes/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	logger := slog.New(logctx.NewTraceHandler(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("fetch nodes starting...", "log_level", cfg.LogLevel, "base_dir", cfg.BaseDir, "version", version)

	if err := run(logctx.WithLogger(ctx, logger), cfg); err != nil {
		slog.Error("fatal error", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := logctx.LoggerFromContext(ctx)

	// =========================================================================
	// Start Telemetry
	tel, err := telemetry.New(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		InstanceID:     telemetry.GenerateInstanceID(),
		OTLPEndpoint:   cfg.OTLPEndpoint,
	})
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown telemetry", "err", err)
		}
	}()

	// =========================================================================
	// Start Database
	database, err := sqlite.InitDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to init database: %w", err)
	}
	defer database.Close()

	history := sqlite.NewInstrumentedFetchRepository(database, tel)

	// =========================================================================
	// Register Nodes
	httpClient := fetch.NewHTTPClient()

	registry := node.NewRegistry(tel)
	if err := nodes.Register(registry, nodes.Deps{
		Fetcher:   fetch.NewFetcher(cfg.BaseDir, httpClient),
		History:   history,
		Notifier:  notifier.New(cfg.DiscordWebhookURL, httpClient),
		Telemetry: tel,
		Stdout:    os.Stdout,
	}); err != nil {
		return err
	}

	logger.Info("nodes registered", "display_names", registry.DisplayNameMappings())

	// =========================================================================
	// Start API Service
	server := setupServer(ctx, cfg, registry, history, tel)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Initializing API support", "host", cfg.Web.BindAddress)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		logger.Info("start shutdown")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to gracefully shutdown the server", "err", err)

			if err = server.Close(); err != nil {
				return fmt.Errorf("could not stop server gracefully: %w", err)
			}
		}

		return nil
	})

	// =========================================================================
	// Start Cleanup
	if cfg.KeepFetchedFor > 0 {
		g.Go(func() error {
			runCleanup(gctx, history, cfg)
			return nil
		})
	}

	return g.Wait()
}

// setupServer prepares the handlers and services to create the http rest server.
func setupServer(ctx context.Context, cfg *config.Config, registry *node.Registry, history storage.FetchRepository, tel *telemetry.Telemetry) *http.Server {
	r := chi.NewRouter()
	r.Use(telemetry.RequestID)
	r.Use(telemetry.HTTPLogging)
	r.Use(telemetry.NewHTTPMiddleware(tel).Middleware)

	rest.RegisterHello(r)
	r.Handle("/metrics", tel.Handler())
	r.Mount("/", rest.NewNodeHandler(registry, history).Routes())

	return &http.Server{
		Addr:         cfg.Web.BindAddress,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		Handler:      r,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
}

func runCleanup(ctx context.Context, history storage.FetchRepository, cfg *config.Config) {
	logger := logctx.LoggerFromContext(ctx)

	ticker := time.NewTicker(cfg.CleanupInterval)
	defer ticker.Stop()

	logger.Info("cleanup enabled", "retention", cfg.KeepFetchedFor.String(), "interval", cfg.CleanupInterval.String())

	for {
		select {
		case <-ctx.Done():
			logger.Info("cleanup goroutine shutting down.")

			return
		case <-ticker.C:
			saved, err := history.GetSavedFetches(ctx)
			if err != nil {
				logger.Error("failed to get saved fetches for cleanup", "err", err)

				continue
			}

			deleted, err := cleanup.DeleteExpiredFiles(ctx, saved, cfg.KeepFetchedFor)
			if err != nil {
				logger.Error("failed to delete expired files", "err", err)
			}

			if deleted > 0 {
				logger.Info("cleanup finished", "deleted", deleted)
			}
		}
	}
}
