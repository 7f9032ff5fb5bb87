// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

// Command etlolap runs the OLAP ETL loop: it consumes every event
// topic off the bus, flattens each envelope into a columnar row, and
// bulk-loads batches into the DuckDB-backed analytics store.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/practixhq/ugc-pipeline/internal/bus"
	"github.com/practixhq/ugc-pipeline/internal/bus/brokerbus"
	"github.com/practixhq/ugc-pipeline/internal/bus/logbus"
	"github.com/practixhq/ugc-pipeline/internal/config"
	"github.com/practixhq/ugc-pipeline/internal/errtracker"
	"github.com/practixhq/ugc-pipeline/internal/etl/olap"
	"github.com/practixhq/ugc-pipeline/internal/logging"
	"github.com/practixhq/ugc-pipeline/internal/olapstore"
	"github.com/practixhq/ugc-pipeline/internal/spill"
	"github.com/practixhq/ugc-pipeline/internal/supervisor"
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

	logging.Info().Str("backend", cfg.Bus.Backend).Msg("Starting OLAP ETL")

	tracker, err := errtracker.New(cfg.ErrTracker.WebhookURL, cfg.ErrTracker.Timeout)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize error tracker")
	}

	store, err := olapstore.Open(cfg.OLAP.Path, cfg.OLAP.Database, cfg.OLAP.ClusterName)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open OLAP store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing OLAP store")
		}
	}()

	defaultBackend, err := bus.ParseBackend(cfg.Bus.Backend)
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid bus backend")
	}
	breaker := bus.NewCircuitBreaker("etl-olap", cfg.Bus.CircuitBreakerMaxRequests,
		cfg.Bus.CircuitBreakerInterval, cfg.Bus.CircuitBreakerTimeout)
	b, err := newBus(cfg, defaultBackend, breaker)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect event bus")
	}
	defer func() {
		if err := b.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing bus adapter")
		}
	}()

	spillFile := spill.Open(cfg.Spill.Path)

	loop := olap.New(olap.Config{
		Backend:            cfg.Bus.Backend,
		ConsumerGroup:      cfg.ETL.ConsumerGroup,
		BatchSize:          cfg.ETL.BatchSize,
		MinBatchBeforeLoad: cfg.ETL.MinBatchBeforeLoad,
		PollTimeout:        cfg.ETL.PollTimeout,
		BackoffInitial:     cfg.ETL.BackoffInitial,
		BackoffMax:         cfg.ETL.BackoffMax,
	}, b, store, spillFile, tracker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Prepare runs outside the supervisor tree: a schema-drift failure
	// here must abort startup loudly rather than be retried by suture.
	if err := loop.Prepare(ctx); err != nil {
		logging.Fatal().Err(err).Msg("Failed to prepare OLAP store schema")
	}

	slogLogger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	tree.AddMessagingService(loop)
	logging.Info().Msg("OLAP ETL loop added to supervisor tree")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

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

	logging.Info().Msg("Application stopped gracefully")
}

func newBus(cfg *config.Config, backend bus.Backend, breaker *gobreaker.CircuitBreaker[any]) (bus.Bus, error) {
	switch backend {
	case bus.BackendBroker:
		return brokerbus.New(brokerbus.Config{
			AmqpURI:        cfg.Bus.BrokerBus.AmqpURI,
			ConsumerGroup:  cfg.ETL.ConsumerGroup,
			CircuitBreaker: breaker,
		})
	default:
		return logbus.New(logbus.Config{
			URL:            cfg.Bus.LogBus.URL,
			ConsumerGroup:  cfg.ETL.ConsumerGroup,
			MaxReconnects:  cfg.Bus.LogBus.MaxReconnects,
			ReconnectWait:  cfg.Bus.LogBus.ReconnectWait,
			AckWaitTimeout: cfg.Bus.LogBus.AckWaitTimeout,
			MaxAckPending:  cfg.Bus.LogBus.MaxAckPending,
			CircuitBreaker: breaker,
		})
	}
}
