package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ahump20/espn-fantasy-proxy/cache"
	"github.com/ahump20/espn-fantasy-proxy/config"
	"github.com/ahump20/espn-fantasy-proxy/espn"
	"github.com/ahump20/espn-fantasy-proxy/health"
	"github.com/ahump20/espn-fantasy-proxy/observe"
	"github.com/ahump20/espn-fantasy-proxy/server"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		listenAddr string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the caching proxy",
		Long:  "Run the proxy server: fantasy API routes behind a read-through cache, plus health and metrics endpoints.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if listenAddr != "" {
				cfg.Listen = listenAddr
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config file")
	cmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (overrides config)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (overrides config)")

	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	config.FromEnv(cfg)
	return cfg, nil
}

func runServe(ctx context.Context, cfg *config.Config) error {
	obs, err := observe.NewObserver(ctx, observe.Config{
		ServiceName: "fantasy-proxy",
		Version:     version,
		Tracing: observe.TracingConfig{
			Enabled:   cfg.Telemetry.TracingEnabled,
			Exporter:  cfg.Telemetry.TracingExporter,
			SamplePct: cfg.Telemetry.TracingSamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  cfg.Telemetry.MetricsEnabled,
			Exporter: cfg.Telemetry.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   cfg.Log.Level,
		},
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	logger := obs.Logger()

	obsMW, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return fmt.Errorf("init request middleware: %w", err)
	}

	client := espn.NewClient(espn.ClientConfig{
		FantasyBaseURL:    cfg.Upstream.FantasyBaseURL,
		ScoreboardBaseURL: cfg.Upstream.ScoreboardBaseURL,
		Timeout:           cfg.Upstream.Timeout.Std(),
	})

	store := cache.NewMemoryStore()
	var keyer cache.Keyer = cache.NewRequestKeyer()
	if cfg.Cache.ScopeCredentials {
		keyer = cache.NewCredentialKeyer(keyer, espn.HeaderESPNS2, espn.HeaderSWID)
	}
	cacheMW := cache.NewMiddleware(cache.MiddlewareConfig{
		Store: store,
		Keyer: keyer,
		Policy: cache.Policy{
			DefaultTTL: cfg.Cache.TTL.Std(),
			MaxTTL:     cfg.Cache.MaxTTL.Std(),
		},
	})

	agg := health.NewAggregator()
	agg.Register("cache", health.NewStoreChecker(store, health.StoreCheckerConfig{
		WarnEntries: cfg.Cache.WarnEntries,
	}))

	var metricsHandler http.Handler
	if cfg.Telemetry.MetricsEnabled && cfg.Telemetry.MetricsExporter == "prometheus" {
		metricsHandler = promhttp.Handler()
	}

	srv := server.New(server.Config{
		Client:  client,
		Store:   store,
		Cache:   cacheMW,
		Observe: obsMW,
		Logger:  logger,
		Health:  agg,
		Metrics: metricsHandler,
	})

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "proxy started",
			observe.Field{Key: "addr", Value: cfg.Listen},
			observe.Field{Key: "upstream", Value: cfg.Upstream.FantasyBaseURL},
			observe.Field{Key: "cache_ttl", Value: cfg.Cache.TTL.Std().String()},
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info(ctx, "shutdown signal received",
			observe.Field{Key: "signal", Value: sig.String()},
		)
	case err := <-errCh:
		return fmt.Errorf("proxy server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown proxy: %w", err)
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown telemetry: %w", err)
	}
	return nil
}
