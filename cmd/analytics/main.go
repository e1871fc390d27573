// Command analytics consumes search and index-build events from Kafka,
// aggregates them in memory and serves the totals at GET /api/v1/analytics.
// With PostgreSQL reachable it also snapshots the totals periodically and
// serves them at GET /api/v1/analytics/snapshots.
//
// Usage:
//
//	go run ./cmd/analytics [-config configs/development.yaml]
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
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/postgres"
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
	slog.Info("starting analytics service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	agg := analytics.NewAggregator()

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents, analytics.HandleEvent(agg))
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if err := consumer.Start(ctx); err != nil {
			slog.Error("consumer error", "error", err)
		}
	}()
	slog.Info("consuming analytics events", "topic", cfg.Kafka.Topics.SearchEvents, "group", cfg.Kafka.ConsumerGroup)

	checker := health.NewChecker()
	checker.Register("consumer", health.ConditionCheck(func() bool {
		select {
		case <-consumerDone:
			return false
		default:
			return true
		}
	}, "consumer stopped"))

	var snapshots analytics.SnapshotLister
	var snapshotsDone chan struct{}
	db, err := postgres.Connect(ctx, cfg.Postgres, resilience.RetryConfig{MaxAttempts: 3, InitialDelay: time.Second})
	if err != nil {
		slog.Warn("postgres unavailable, snapshots disabled", "error", err)
	} else {
		defer db.Close()
		store := aggregator.NewStore(db.DB)
		if err := store.EnsureSchema(ctx); err != nil {
			slog.Error("failed to prepare snapshot table", "error", err)
			os.Exit(1)
		}
		snapshots = store
		snapshotsDone = make(chan struct{})
		go func() {
			defer close(snapshotsDone)
			store.Run(ctx, agg, cfg.Analytics.SnapshotInterval)
		}()
		checker.RegisterOptional("postgres", health.PingCheck(db.Ping))
	}

	h := analytics.NewHandler(agg, snapshots)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/analytics", h.Stats)
	mux.HandleFunc("GET /api/v1/analytics/snapshots", h.Snapshots)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	server := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: middleware.Chain(mux,
			middleware.RequestID,
			middleware.CORS(cfg.Server.CORSOrigins),
			middleware.Timeout(cfg.Server.RequestTimeout),
			middleware.Metrics(m),
		),
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

	slog.Info("analytics service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	<-consumerDone
	if snapshotsDone != nil {
		<-snapshotsDone
	}
	slog.Info("analytics service stopped")
}
