// Command searcher builds the keyword index from the configured corpus and
// serves two-keyword OR queries over HTTP.
//
// Usage:
//
//	go run ./cmd/searcher [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port, "corpus", cfg.Corpus.Source)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)

	var db *postgres.Client
	if cfg.Corpus.Source == config.SourcePostgres {
		db, err = postgres.Connect(ctx, cfg.Postgres, resilience.RetryConfig{MaxAttempts: 5, InitialDelay: time.Second})
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	}
	src, err := corpus.Open(cfg.Corpus, db)
	if err != nil {
		slog.Error("failed to open corpus", "error", err)
		os.Exit(1)
	}

	var collector *analytics.Collector
	if cfg.Analytics.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents)
		defer producer.Close()
		collector = analytics.NewCollector(producer, cfg.Analytics.BufferSize)
		collector.Start(ctx)
		defer collector.Close()
	}

	engine := indexer.NewEngine(m)
	report, err := engine.Build(ctx, src)
	if collector != nil {
		event := analytics.IndexBuildEvent{
			Type:       analytics.EventIndexBuild,
			Documents:  report.Documents,
			Keywords:   report.Keywords,
			NoiseWords: report.NoiseWords,
			DurationMs: report.Duration.Milliseconds(),
			Timestamp:  time.Now().UTC(),
		}
		if err != nil {
			event.Error = err.Error()
		}
		collector.Track(event)
	}
	if err != nil {
		slog.Error("failed to build index", "error", err)
		if collector != nil {
			collector.Close()
		}
		os.Exit(1)
	}

	var queryCache *cache.QueryCache
	var redisClient *pkgredis.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			breaker := resilience.NewCircuitBreaker("redis", resilience.CircuitBreakerConfig{
				FailureThreshold: 5,
				ResetTimeout:     30 * time.Second,
				OnStateChange: func(name string, to resilience.State) {
					m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
				},
			})
			queryCache = cache.New(redisClient, cfg.Redis.CacheTTL, breaker, m)
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	checker := health.NewChecker()
	checker.Register("index", health.ConditionCheck(engine.Ready, "index not built"))
	if redisClient != nil {
		checker.RegisterOptional("redis", health.PingCheck(redisClient.Ping))
	}
	if db != nil {
		checker.RegisterOptional("postgres", health.PingCheck(db.Ping))
	}

	var tracker handler.Tracker
	if collector != nil {
		tracker = collector
	}
	h := handler.New(executor.New(engine), engine, queryCache, tracker, m, handler.Config{
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxResults:   cfg.Search.MaxResults,
	})

	mux := http.NewServeMux()
	h.Routes(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	// Metrics stays innermost so it sees the pattern ServeMux matched.
	middlewares := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.CORS(cfg.Server.CORSOrigins),
	}
	if cfg.Server.RateLimit > 0 {
		trustedProxies, err := cfg.Server.TrustedProxyPrefixes()
		if err != nil {
			slog.Error("invalid trusted proxies", "error", err)
			os.Exit(1)
		}
		limiter := middleware.NewLimiter(cfg.Server.RateLimit, time.Minute)
		go pruneLoop(ctx, limiter)
		middlewares = append(middlewares, middleware.RateLimit(limiter, trustedProxies))
	}
	middlewares = append(middlewares, middleware.Timeout(cfg.Server.RequestTimeout), middleware.Metrics(m))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      middleware.Chain(mux, middlewares...),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, prometheus.DefaultGatherer)
		defer shutdownMetrics(context.Background())
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr, "keywords", report.Keywords)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("search service stopped")
}

func pruneLoop(ctx context.Context, l *middleware.Limiter) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Prune(); n > 0 {
				slog.Debug("pruned idle rate-limit buckets", "count", n)
			}
		}
	}
}
