package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/fuel-price-etl/internal/adapter/feed"
	"github.com/couchcryptid/fuel-price-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/fuel-price-etl/internal/adapter/jsonfile"
	kafkaadapter "github.com/couchcryptid/fuel-price-etl/internal/adapter/kafka"
	"github.com/couchcryptid/fuel-price-etl/internal/adapter/namestore"
	"github.com/couchcryptid/fuel-price-etl/internal/adapter/stationinfo"
	"github.com/couchcryptid/fuel-price-etl/internal/config"
	"github.com/couchcryptid/fuel-price-etl/internal/domain"
	"github.com/couchcryptid/fuel-price-etl/internal/observability"
	"github.com/couchcryptid/fuel-price-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	if err := run(cfg, logger, metrics); err != nil {
		logger.Error("pipeline failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize name lookup (feature-flagged via NAME_LOOKUP_ENABLED).
	var lookup domain.NameLookup
	if cfg.NameLookupEnabled {
		httpClient := stationinfo.NewHTTPClient(cfg.NameLookupTimeout, cfg.NameLookupConcurrency)
		defer httpClient.CloseIdleConnections()

		lookup = stationinfo.NewClient(httpClient, cfg.NameLookupURL, cfg.NameLookupRateLimit, cfg.NameLookupConcurrency, metrics, logger)
		if cfg.NameCachePath != "" {
			store, err := namestore.Open(cfg.NameCachePath)
			if err != nil {
				return err
			}
			defer store.Close()
			if n, err := store.Count(ctx); err == nil {
				logger.Info("name store opened", "path", cfg.NameCachePath, "names", n)
			}
			lookup = stationinfo.NewStoredLookup(lookup, store, metrics, logger)
		}
		lookup = stationinfo.NewCachedLookup(lookup, cfg.NameCacheSize, metrics)
		metrics.NameLookupEnabled.Set(1)
		logger.Info("station name lookup enabled",
			"concurrency", cfg.NameLookupConcurrency,
			"timeout", cfg.NameLookupTimeout,
			"rate_limit", cfg.NameLookupRateLimit,
			"cache_size", cfg.NameCacheSize,
		)
	} else {
		logger.Info("station name lookup disabled")
	}

	loaders := pipeline.Loaders{jsonfile.NewWriter(cfg.OutputPath, logger)}
	if len(cfg.KafkaBrokers) > 0 {
		writer := kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, metrics, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		loaders = append(loaders, writer)
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	resolver := pipeline.NewResolver(lookup, cfg.NameLookupConcurrency, logger, metrics)
	p := pipeline.New(
		feed.NewFileSource(cfg.FeedPath),
		resolver,
		loaders,
		clockwork.NewRealClock(),
		pipeline.Options{WindowDays: cfg.HistoryDays, WindowEnd: cfg.WindowEnd},
		logger,
		metrics,
	)

	if cfg.RunInterval == 0 {
		_, err := p.RunOnce(ctx)
		return err
	}
	return serve(ctx, cfg, p, logger)
}

// serve runs the pipeline on its schedule behind the health and metrics server.
func serve(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, logger *slog.Logger) error {
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx, cfg.RunInterval)
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	select {
	case err := <-done:
		if err != nil {
			return err
		}
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}

	logger.Info("shutdown complete")
	return nil
}
