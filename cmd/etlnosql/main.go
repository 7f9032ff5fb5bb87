// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

// Command etlnosql runs the NoSQL ETL loop: it consumes custom events
// off the bus and applies each rating/review/bookmark operation to the
// MongoDB-backed document store the read API serves from.
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
	"github.com/practixhq/ugc-pipeline/internal/etl/nosql"
	"github.com/practixhq/ugc-pipeline/internal/logging"
	"github.com/practixhq/ugc-pipeline/internal/supervisor"
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

	logging.Info().Str("backend", cfg.Bus.Backend).Msg("Starting NoSQL ETL")

	// internal/etl/nosql deliberately does not thread an error tracker
	// into its own Loop: every operation it applies is idempotent and
	// safe to retry from a redelivered message, so only the one
	// failure mode it cannot recover from on its own, an initial
	// MongoDB connect failure, is reported here before the loop exists.
	tracker, err := errtracker.New(cfg.ErrTracker.WebhookURL, cfg.ErrTracker.Timeout)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize error tracker")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := ugcstore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Timeout)
	if err != nil {
		tracker.Report(ctx, errtracker.Event{
			Service: "etl_nosql",
			Kind:    "mongo_connect",
			Message: err.Error(),
		})
		logging.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), cfg.Mongo.Timeout)
		defer closeCancel()
		if err := store.Close(closeCtx); err != nil {
			logging.Error().Err(err).Msg("Error closing MongoDB connection")
		}
	}()

	defaultBackend, err := bus.ParseBackend(cfg.Bus.Backend)
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid bus backend")
	}
	breaker := bus.NewCircuitBreaker("etl-nosql", cfg.Bus.CircuitBreakerMaxRequests,
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

	loop := nosql.New(nosql.Config{
		Backend:            cfg.Bus.Backend,
		ConsumerGroup:      cfg.ETL.ConsumerGroup,
		BatchSize:          cfg.ETL.BatchSize,
		MinBatchBeforeLoad: cfg.ETL.MinBatchBeforeLoad,
		PollTimeout:        cfg.ETL.PollTimeout,
		BackoffInitial:     cfg.ETL.BackoffInitial,
		BackoffMax:         cfg.ETL.BackoffMax,
	}, b, store)

	slogLogger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	tree.AddMessagingService(loop)
	logging.Info().Msg("NoSQL ETL loop added to supervisor tree")

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
