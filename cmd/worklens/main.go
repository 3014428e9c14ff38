package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/worklens/internal/config"
	"github.com/kailas-cloud/worklens/internal/db"
	dbRedis "github.com/kailas-cloud/worklens/internal/db/redis"
	"github.com/kailas-cloud/worklens/internal/domain"
	"github.com/kailas-cloud/worklens/internal/domain/query"
	logpkg "github.com/kailas-cloud/worklens/internal/logger"
	"github.com/kailas-cloud/worklens/internal/metrics"
	"github.com/kailas-cloud/worklens/internal/repository/embcache"
	searchrepo "github.com/kailas-cloud/worklens/internal/repository/search"
	"github.com/kailas-cloud/worklens/internal/transport/azdo"
	chiTransport "github.com/kailas-cloud/worklens/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/worklens/internal/transport/openai"
	healthuc "github.com/kailas-cloud/worklens/internal/usecase/health"
	indexeruc "github.com/kailas-cloud/worklens/internal/usecase/indexer"
	searchuc "github.com/kailas-cloud/worklens/internal/usecase/search"
	"github.com/kailas-cloud/worklens/internal/version"
	"github.com/kailas-cloud/worklens/internal/worker"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting worklens search service",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.Int("projects", len(cfg.Indexer.Projects)),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register Prometheus metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSyncMetrics()

	embedder := buildEmbedder(cfg.Embedding, store, logger)

	dims := 0
	if embedder != nil {
		dims = embedder.Dimensions()
	}

	repo := searchrepo.New(store, searchrepo.Config{
		RRFK:                cfg.Search.RRFK,
		CandidateMultiplier: cfg.Search.CandidateMultiplier,
	})
	if err := repo.EnsureIndex(ctx, dims); err != nil {
		logger.Fatal("Failed to ensure search index", zap.Error(err))
	}
	logger.Info("Search index ready", zap.Int("vector_dimensions", dims))

	parser := query.New(cfg.Search.ProjectAliases)
	searchSvc := searchuc.New(repo, parser, embedder, logger)
	healthSvc := healthuc.New(store, embeddingHealthChecker(embedder))

	// Background sync worker
	var syncWorker *worker.Worker
	if len(cfg.Indexer.Projects) > 0 {
		source := azdo.NewClient(&azdo.Config{
			BaseURL:       cfg.Upstream.BaseURL,
			PAT:           cfg.Upstream.PAT,
			RatePerSecond: cfg.Upstream.RatePerSecond,
			DetailFanout:  cfg.Upstream.DetailFanout,
			ClosedWindow:  time.Duration(cfg.Upstream.ClosedWindowDays) * 24 * time.Hour,
			Timeout:       time.Duration(cfg.Upstream.TimeoutSec) * time.Second,
			Logger:        logger,
		})
		indexerSvc := indexeruc.New(source, repo, embedder, indexeruc.Config{
			StalenessGrace: time.Duration(cfg.Indexer.StalenessGraceSec) * time.Second,
			EmbedBatchSize: cfg.Indexer.EmbedBatchSize,
			WorkItemWindow: time.Duration(cfg.Indexer.WorkItemWindowDays) * 24 * time.Hour,
		}, logger)

		projects := make([]worker.Project, len(cfg.Indexer.Projects))
		for i, p := range cfg.Indexer.Projects {
			projects[i] = worker.Project{Organization: p.Organization, Project: p.Project}
		}
		syncWorker = worker.New(indexerSvc, projects, cfg.Indexer.Interval(), logger)
		syncWorker.Start(ctx)
	} else {
		logger.Info("No projects configured, sync worker disabled")
	}

	server := chiTransport.NewServer(searchSvc, healthSvc, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	// Stop the worker first so an in-flight cycle finishes its writes
	// before the store connection goes away.
	if syncWorker != nil {
		syncWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the embedder chain: OpenAI -> Cached.
// Returns nil when no API key is configured; the service then indexes
// and searches lexical-only.
func buildEmbedder(cfg config.EmbeddingConfig, store db.Store, logger *zap.Logger) domain.Embedder {
	if cfg.APIKey == "" {
		logger.Info("No embedding provider configured, running lexical-only")
		return nil
	}

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   "openai",
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if cfg.CacheEnabled {
		embedder = embcache.New(base, store, metrics.EmbeddingCacheTotal, logger)
	}

	logger.Info("Embedder created",
		zap.String("model", cfg.Model),
		zap.Int("dimensions", cfg.Dimensions),
		zap.Bool("cache", cfg.CacheEnabled),
	)
	return embedder
}

// embeddingHealthChecker adapts a nilable embedder to the health contract.
// Returns a nil interface when there is nothing to check.
func embeddingHealthChecker(embedder domain.Embedder) healthuc.EmbeddingChecker {
	if embedder == nil {
		return nil
	}
	if hc, ok := embedder.(domain.HealthChecker); ok {
		return hc
	}
	return nil
}
