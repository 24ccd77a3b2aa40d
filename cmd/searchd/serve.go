package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seportal/searchd/internal/aggregator"
	"github.com/seportal/searchd/internal/config"
	dbRedis "github.com/seportal/searchd/internal/db/redis"
	"github.com/seportal/searchd/internal/domain"
	logpkg "github.com/seportal/searchd/internal/logger"
	"github.com/seportal/searchd/internal/metrics"
	"github.com/seportal/searchd/internal/portal"
	vectorrepo "github.com/seportal/searchd/internal/repository/vector"
	chiTransport "github.com/seportal/searchd/internal/transport/chi"
	openaiEmb "github.com/seportal/searchd/internal/transport/openai"
	healthuc "github.com/seportal/searchd/internal/usecase/health"
	indexeruc "github.com/seportal/searchd/internal/usecase/indexer"
	searchuc "github.com/seportal/searchd/internal/usecase/search"
	"github.com/seportal/searchd/internal/version"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the search HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting searchd API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	deps, err := buildServices(cfg, logger)
	if err != nil {
		return err
	}
	defer deps.store.Close()

	server := chiTransport.NewServer(deps.search, deps.indexer, deps.agg, deps.health)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Mount(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-quit:
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// services is the assembled dependency graph shared by serve and reindex.
type services struct {
	store   *dbRedis.Store
	agg     *aggregator.Aggregator
	repo    *vectorrepo.Repo
	indexer *indexeruc.Service
	search  *searchuc.Service
	health  *healthuc.Service
}

// buildServices is the composition root: store, embedder, portal client,
// aggregator and use case services wired per configuration.
func buildServices(cfg config.Config, logger *zap.Logger) (*services, error) {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create database store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database")

	// Register embedding metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()

	embedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
	})
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	portalClient := portal.NewClient(portal.Config{
		BaseURL: cfg.Portal.BaseURL,
		APIKey:  cfg.Portal.APIKey,
		Timeout: time.Duration(cfg.Portal.TimeoutSec) * time.Second,
	})

	agg := aggregator.New(portalClient, logger)
	repo := vectorrepo.New(store, cfg.Database.KeyPrefix, cfg.Embedding.Dimensions)

	embedTimeout := time.Duration(cfg.Embedding.TimeoutSec) * time.Second

	return &services{
		store:   store,
		agg:     agg,
		repo:    repo,
		indexer: indexeruc.New(agg, repo, embedder, embedTimeout, logger),
		search:  searchuc.New(repo, embedder, cfg.Embedding.Model, cfg.Search.TopK, embedTimeout),
		health:  healthuc.New(store, newEmbeddingHealthChecker(embedder)),
	}, nil
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
