// Package app wires the configuration, stores, search engine, indexer, and
// HTTP server into a runnable application.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"subsearch/internal/config"
	"subsearch/internal/indexer"
	"subsearch/internal/logger"
	"subsearch/internal/metrics"
	"subsearch/internal/search"
	"subsearch/internal/segment"
	"subsearch/internal/server"
	"subsearch/internal/store"
)

// Application is the top-level orchestrator of the subtitle indexing service
type Application struct {
	config    *config.Configuration
	zapLogger *zap.Logger
	engine    *search.BleveEngine
	videos    store.VideoStore
	cache     store.SubtitleCacheStore
	indexer   *indexer.Indexer
	server    *server.Server

	// closers for backends that hold connections, in open order
	closers []func()
}

// NewApplication creates a new application instance with all components initialized
func NewApplication() (*Application, error) {
	// Load configuration from config file if CONFIG_PATH is set, otherwise use environment variables
	var cfg *config.Configuration
	var err error

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		cfg, err = config.NewConfigurationFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.NewConfigurationFromEnv()
		if err != nil {
			return nil, fmt.Errorf("failed to load config from environment: %w", err)
		}
	}

	zapLogger, err := logger.NewFromConfig(cfg.IsDevelopmentLogging())
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	app := &Application{config: cfg, zapLogger: zapLogger}

	app.engine, err = search.NewBleveEngineWithLogger(cfg.GetIndexDir(), zapLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to open search engine: %w", err)
	}

	if err := app.openStores(); err != nil {
		app.engine.Close()
		return nil, err
	}

	extractor := segment.NewExtractorWithLogger(segment.NewRuleDetector(), zapLogger)

	app.indexer = indexer.NewIndexerWithLogger(app.videos, app.cache, app.engine, extractor, cfg.GetIndexAlias(), zapLogger)
	app.server = server.NewServer(cfg.GetHTTPAddr(), app.indexer, app.videos, zapLogger)

	m := metrics.New()
	app.indexer.SetMetrics(m)
	app.server.SetMetrics(m)

	return app, nil
}

// openStores creates the video store and subtitle cache backends selected by
// the configuration
func (app *Application) openStores() error {
	switch backend := app.config.GetStoreBackend(); backend {
	case "memory":
		app.videos = store.NewMemoryVideoStore()
	case "cassandra":
		cassandra, err := store.NewCassandraVideoStore(app.config.GetCassandraHosts(), app.config.GetCassandraKeyspace(), app.zapLogger)
		if err != nil {
			return fmt.Errorf("failed to open video store: %w", err)
		}
		app.videos = cassandra
		app.closers = append(app.closers, cassandra.Close)
	default:
		return fmt.Errorf("unknown store backend %q", backend)
	}

	switch backend := app.config.GetCacheBackend(); backend {
	case "memory":
		app.cache = store.NewMemoryCacheStore()
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		redis, err := store.NewRedisCacheStore(ctx, app.config.GetRedisAddr(), app.zapLogger)
		if err != nil {
			return fmt.Errorf("failed to open subtitle cache: %w", err)
		}
		app.cache = redis
		app.closers = append(app.closers, func() { redis.Close() })
	default:
		return fmt.Errorf("unknown cache backend %q", backend)
	}

	return nil
}

// Run starts the HTTP server and blocks until the context is cancelled or
// the server fails
func (app *Application) Run(ctx context.Context) error {
	app.zapLogger.Info("starting subtitle indexing service",
		zap.String("addr", app.config.GetHTTPAddr()),
		zap.String("index_dir", app.config.GetIndexDir()),
		zap.String("index_alias", app.config.GetIndexAlias()),
		zap.String("store_backend", app.config.GetStoreBackend()),
		zap.String("cache_backend", app.config.GetCacheBackend()))

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- app.server.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		app.zapLogger.Info("shutdown signal received, stopping application")
		return nil
	}
}

// Shutdown gracefully stops all components in reverse order
func (app *Application) Shutdown() error {
	app.zapLogger.Info("shutting down application components")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.server.Shutdown(shutdownCtx); err != nil {
		app.zapLogger.Error("error stopping HTTP server", zap.Error(err))
	}

	for i := len(app.closers) - 1; i >= 0; i-- {
		app.closers[i]()
	}

	if err := app.engine.Close(); err != nil {
		app.zapLogger.Error("error closing search engine", zap.Error(err))
	}

	app.zapLogger.Info("application shutdown completed")
	return nil
}
