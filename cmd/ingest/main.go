// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

// Command ingest serves the UGC ingest and read HTTP APIs: one process
// accepting click/visit/custom events onto the configured bus backend,
// and serving the read-side aggregates internal/ugcstore maintains.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/practixhq/ugc-pipeline/internal/auth"
	"github.com/practixhq/ugc-pipeline/internal/bus"
	"github.com/practixhq/ugc-pipeline/internal/bus/brokerbus"
	"github.com/practixhq/ugc-pipeline/internal/bus/logbus"
	"github.com/practixhq/ugc-pipeline/internal/config"
	"github.com/practixhq/ugc-pipeline/internal/errtracker"
	"github.com/practixhq/ugc-pipeline/internal/ingestapi"
	"github.com/practixhq/ugc-pipeline/internal/logging"
	"github.com/practixhq/ugc-pipeline/internal/middleware"
	"github.com/practixhq/ugc-pipeline/internal/readapi"
	"github.com/practixhq/ugc-pipeline/internal/supervisor"
	"github.com/practixhq/ugc-pipeline/internal/supervisor/services"
	"github.com/practixhq/ugc-pipeline/internal/ugcstore"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Str("backend", cfg.Bus.Backend).Str("environment", cfg.Server.Environment).
		Msg("Starting ingest API")

	tracker, err := errtracker.New(cfg.ErrTracker.WebhookURL, cfg.ErrTracker.Timeout)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize error tracker")
	}

	authenticator, err := newAuthenticator(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authenticator")
	}
	authMiddleware := auth.NewMiddleware(authenticator)

	buses, err := newBuses(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect event bus")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	defaultBackend, err := bus.ParseBackend(cfg.Bus.Backend)
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid bus backend")
	}

	store, err := ugcstore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Timeout)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), cfg.Mongo.Timeout)
		defer closeCancel()
		if err := store.Close(closeCtx); err != nil {
			logging.Error().Err(err).Msg("Error closing MongoDB connection")
		}
	}()

	ingestHandler := ingestapi.New(ingestapi.Config{
		DefaultBackend: defaultBackend,
		HeaderAllowed:  cfg.EventbusHeaderAllowed(),
		DebugRoutes:    cfg.Server.DebugRoutes,
	}, buses, tracker)
	readHandler := readapi.New(store)

	perfMonitor := middleware.NewPerformanceMonitor(2000)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id", "X-Session-Id", "Eventbus"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequireRequestID)
	r.Use(authMiddleware.Require)
	r.Use(chiMiddleware(middleware.PrometheusMetrics))
	r.Use(perfMonitor.Middleware)
	r.Use(chiMiddleware(middleware.Compression))
	r.Use(ingestHandler.Recoverer())
	ingestapi.Routes(r, ingestHandler)
	readapi.Mount(r, readHandler, authMiddleware)
	if cfg.Server.DebugRoutes {
		r.Get("/debug/performance", newPerformanceStatsHandler(perfMonitor))
	}

	go logSlowRequestsPeriodically(ctx, perfMonitor)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	slogLogger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddAPIService(services.NewHTTPServerService("ingest-api", server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("Ingest API service added to supervisor tree")

	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer := &http.Server{
			Addr:         config.ServerConfig{Host: cfg.Server.Host, Port: cfg.Metrics.Port}.Addr(),
			Handler:      metricsMux,
			ReadTimeout:  cfg.Server.Timeout,
			WriteTimeout: cfg.Server.Timeout,
		}
		tree.AddAPIService(services.NewHTTPServerService("metrics", metricsServer, 10*time.Second))
		logging.Info().Str("addr", metricsServer.Addr).Msg("Metrics service added to supervisor tree")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	for backend, b := range buses {
		if err := b.Close(); err != nil {
			logging.Error().Err(err).Str("backend", string(backend)).Msg("Error closing bus adapter")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// newPerformanceStatsHandler exposes perfMonitor.GetStats() as JSON,
// gated behind Config.DebugRoutes the same way ingestapi's own
// /events/exception diagnostic route is.
func newPerformanceStatsHandler(perfMonitor *middleware.PerformanceMonitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(perfMonitor.GetStats()); err != nil {
			logging.Error().Err(err).Msg("Failed to encode performance stats")
		}
	}
}

// logSlowRequestsPeriodically surfaces endpoints crossing the slow
// threshold every minute, until ctx is canceled at shutdown.
func logSlowRequestsPeriodically(ctx context.Context, perfMonitor *middleware.PerformanceMonitor) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			perfMonitor.LogSlowRequests(1000)
		}
	}
}

// chiMiddleware adapts http.HandlerFunc middleware to chi's
// func(http.Handler) http.Handler, mirroring internal/ingestapi's own
// adapter since this router composes routes from two packages under
// one middleware stack rather than using either package's NewRouter.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// newAuthenticator builds the configured auth.Authenticator.
func newAuthenticator(cfg *config.Config) (auth.Authenticator, error) {
	mode, err := auth.ParseAuthMode(cfg.Auth.Mode)
	if err != nil {
		return nil, err
	}
	switch mode {
	case auth.AuthModeNone:
		return auth.NewNoneAuthenticator(), nil
	default:
		return auth.NewRS256Authenticator(cfg.Auth.PublicKeyPath, cfg.Auth.Audience)
	}
}

// newBuses connects the configured default bus backend, plus the
// sibling backend too when a per-request header override is allowed,
// so ingestapi.Handler.selectBus always has an entry for whichever
// backend a request picks.
func newBuses(cfg *config.Config) (map[bus.Backend]bus.Bus, error) {
	defaultBackend, err := bus.ParseBackend(cfg.Bus.Backend)
	if err != nil {
		return nil, err
	}

	needed := []bus.Backend{defaultBackend}
	if cfg.EventbusHeaderAllowed() {
		if defaultBackend == bus.BackendLog {
			needed = append(needed, bus.BackendBroker)
		} else {
			needed = append(needed, bus.BackendLog)
		}
	}

	buses := make(map[bus.Backend]bus.Bus, len(needed))
	for _, backend := range needed {
		b, err := newBus(cfg, backend)
		if err != nil {
			for _, opened := range buses {
				_ = opened.Close()
			}
			return nil, err
		}
		buses[backend] = b
	}
	return buses, nil
}

func newBus(cfg *config.Config, backend bus.Backend) (bus.Bus, error) {
	breaker := bus.NewCircuitBreaker(
		"ingest-"+string(backend),
		cfg.Bus.CircuitBreakerMaxRequests,
		cfg.Bus.CircuitBreakerInterval,
		cfg.Bus.CircuitBreakerTimeout,
	)

	switch backend {
	case bus.BackendBroker:
		return brokerbus.New(brokerbus.Config{
			AmqpURI:        cfg.Bus.BrokerBus.AmqpURI,
			ConsumerGroup:  "ingest",
			CircuitBreaker: breaker,
		})
	default:
		return logbus.New(logbus.Config{
			URL:            cfg.Bus.LogBus.URL,
			ConsumerGroup:  "ingest",
			MaxReconnects:  cfg.Bus.LogBus.MaxReconnects,
			ReconnectWait:  cfg.Bus.LogBus.ReconnectWait,
			AckWaitTimeout: cfg.Bus.LogBus.AckWaitTimeout,
			MaxAckPending:  cfg.Bus.LogBus.MaxAckPending,
			CircuitBreaker: breaker,
		})
	}
}
