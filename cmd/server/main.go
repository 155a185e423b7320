package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/likha-market/search-service/internal/analytics"
	"github.com/likha-market/search-service/internal/api"
	"github.com/likha-market/search-service/internal/cache"
	"github.com/likha-market/search-service/internal/catalog"
	"github.com/likha-market/search-service/internal/config"
	"github.com/likha-market/search-service/internal/kafka"
	"github.com/likha-market/search-service/internal/lexicon"
	"github.com/likha-market/search-service/internal/models"
	"github.com/likha-market/search-service/internal/observability"
	"github.com/likha-market/search-service/internal/search"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Initialize logger
	logger, err := observability.NewLogger(cfg.Observability.LogLevel)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting search service",
		zap.String("service", cfg.Observability.ServiceName),
	)

	// Initialize tracing
	tracerShutdown, err := observability.InitTracer(cfg.Observability.ServiceName)
	if err != nil {
		logger.Warn("tracing initialization failed, continuing without tracing", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Lexical dictionary; falls back to the embedded tables when no path
	// is configured.
	dict, err := lexicon.Load(cfg.Lexicon.Path)
	if err != nil {
		return fmt.Errorf("loading lexicon: %w", err)
	}
	logger.Info("lexicon loaded", zap.Int("canonical_terms", len(dict.Canonicals())))

	// Initialize clients
	redisCache, err := cache.NewRedisCache(cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("initializing redis: %w", err)
	}
	defer redisCache.Close()
	logger.Info("redis cache initialized")

	var chClient *analytics.Client
	chClient, err = analytics.NewClient(cfg.ClickHouse, logger)
	if err != nil {
		logger.Warn("clickhouse initialization failed, analytics will be unavailable", zap.Error(err))
		chClient = nil
	} else {
		defer chClient.Close()
		if err := chClient.EnsureTables(ctx); err != nil {
			logger.Warn("clickhouse table creation failed", zap.Error(err))
		}
		logger.Info("clickhouse analytics initialized")
	}

	// In-memory catalog snapshot fed by Firestore bulk loads and the
	// Kafka change feed.
	snapshot := catalog.NewSnapshot(logger)

	loader, err := catalog.NewLoader(ctx, cfg.Firestore, cfg.Search, snapshot, logger)
	if err != nil {
		return fmt.Errorf("initializing catalog loader: %w", err)
	}
	defer loader.Close()

	if chClient != nil {
		loader.SetPopularitySource(chClient)
	}

	if err := loader.Load(ctx); err != nil {
		return fmt.Errorf("initial catalog load: %w", err)
	}
	logger.Info("catalog snapshot loaded", zap.Int("items", snapshot.Len()))

	go loader.Refresh(ctx)

	consumer := kafka.NewConsumer(cfg.Kafka, func(ctx context.Context, event *models.ChangeEvent) error {
		snapshot.Apply(event)
		return nil
	}, logger)
	if err := consumer.Start(ctx); err != nil {
		logger.Warn("kafka consumer start failed, change feed will be unavailable", zap.Error(err))
	} else {
		defer consumer.Stop()
		logger.Info("kafka consumer started")
	}

	// Initialize slow query detector
	var analyticsWriter observability.AnalyticsWriter
	if chClient != nil {
		analyticsWriter = chClient
	}
	slowQueryDetector := observability.NewSlowQueryDetector(
		cfg.Search.SlowQuery.WarningThreshold,
		cfg.Search.SlowQuery.CriticalThreshold,
		logger,
		analyticsWriter,
	)

	// Assemble the search engine
	expander := search.NewExpander(dict)
	scorer := search.NewScorer(search.DefaultWeights())
	builder := search.NewPlanBuilder(scorer, cfg.Search.DefaultPageSize, cfg.Search.MaxPageSize)
	corrector := search.NewCorrector(dict, cfg.Search.CorrectionThreshold)
	suggester := search.NewSuggestionEngine(snapshot, cfg.Search.SuggestionLimit, cfg.Search.PerSourceCap, cfg.Search.FuzzyThreshold, logger)

	engine := search.NewEngine(
		snapshot, expander, builder, corrector, suggester,
		redisCache, slowQueryDetector, cfg.Search, logger,
	)

	trending := search.NewTrendingTracker(redisCache, cfg.Search.SuggestionLimit, cfg.Redis.TTL.Trending, logger)
	engine.SetTrending(trending)
	go trending.Run(ctx)

	// Initialize HTTP server
	handler := api.NewHandler(engine, redisCache, logger)

	healthHandler := api.NewHealthHandler(logger)
	healthHandler.Register("redis", redisCache)
	healthHandler.Register("firestore", loader)
	if chClient != nil {
		healthHandler.Register("clickhouse", chClient)
	}
	healthHandler.Register("kafka", consumer)

	router := api.NewRouter(handler, healthHandler, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		return err
	}

	// Graceful shutdown
	logger.Info("starting graceful shutdown", zap.Duration("timeout", cfg.Server.ShutdownTimeout))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Stop accepting new requests
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}

	// Cancel background operations
	cancel()

	// Shutdown tracing
	if tracerShutdown != nil {
		if err := tracerShutdown(shutdownCtx); err != nil {
			logger.Error("tracer shutdown error", zap.Error(err))
		}
	}

	logger.Info("shutdown complete")
	return nil
}
