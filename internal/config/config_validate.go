// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package config

import (
	"fmt"
	"strings"

	"github.com/practixhq/ugc-pipeline/internal/bus"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateBus(); err != nil {
		return err
	}
	if err := c.validateAuth(); err != nil {
		return err
	}
	if err := c.validateOLAP(); err != nil {
		return err
	}
	if err := c.validateMongo(); err != nil {
		return err
	}
	if err := c.validateETL(); err != nil {
		return err
	}
	if err := c.validateSpill(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateMetrics()
}

func (c *Config) validateServer() error {
	s := &c.Server
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", s.Port)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive")
	}
	switch strings.ToLower(s.Environment) {
	case "production", "staging", "development", "test":
	default:
		return fmt.Errorf("server.environment must be one of production, staging, development, test, got %q", s.Environment)
	}
	if len(s.CORSOrigins) == 0 {
		return fmt.Errorf("server.cors_origins must not be empty")
	}
	return nil
}

func (c *Config) validateBus() error {
	b := &c.Bus
	if _, err := bus.ParseBackend(b.Backend); err != nil {
		return fmt.Errorf("bus.backend: %w", err)
	}
	if b.LogBus.URL == "" {
		return fmt.Errorf("bus.logbus.url is required")
	}
	if b.BrokerBus.AmqpURI == "" {
		return fmt.Errorf("bus.brokerbus.amqp_uri is required")
	}
	if b.LogBus.MaxAckPending <= 0 {
		return fmt.Errorf("bus.logbus.max_ack_pending must be positive")
	}
	if b.LogBus.AckWaitTimeout <= 0 {
		return fmt.Errorf("bus.logbus.ack_wait_timeout must be positive")
	}
	if b.CircuitBreakerMaxRequests == 0 {
		return fmt.Errorf("bus.circuit_breaker_max_requests must be positive")
	}
	if b.CircuitBreakerInterval <= 0 {
		return fmt.Errorf("bus.circuit_breaker_interval must be positive")
	}
	if b.CircuitBreakerTimeout <= 0 {
		return fmt.Errorf("bus.circuit_breaker_timeout must be positive")
	}
	return nil
}

func (c *Config) validateAuth() error {
	a := &c.Auth
	switch a.Mode {
	case "none":
		return nil
	case "rs256", "":
	default:
		return fmt.Errorf("auth.mode must be rs256 or none, got %q", a.Mode)
	}
	if a.PublicKeyPath == "" {
		return fmt.Errorf("auth.public_key_path is required")
	}
	if a.Audience == "" {
		return fmt.Errorf("auth.audience is required")
	}
	return nil
}

func (c *Config) validateOLAP() error {
	o := &c.OLAP
	if o.Path == "" {
		return fmt.Errorf("olap.path is required")
	}
	if o.Database == "" {
		return fmt.Errorf("olap.database is required")
	}
	if o.ClusterName == "" {
		return fmt.Errorf("olap.cluster_name is required")
	}
	return nil
}

func (c *Config) validateMongo() error {
	m := &c.Mongo
	if m.URI == "" {
		return fmt.Errorf("mongo.uri is required")
	}
	if m.Database == "" {
		return fmt.Errorf("mongo.database is required")
	}
	if m.Timeout <= 0 {
		return fmt.Errorf("mongo.timeout must be positive")
	}
	return nil
}

func (c *Config) validateETL() error {
	e := &c.ETL
	if e.BatchSize <= 0 {
		return fmt.Errorf("etl.batch_size must be positive")
	}
	if e.MinBatchBeforeLoad < 0 {
		return fmt.Errorf("etl.min_batch_before_load must not be negative")
	}
	if e.MinBatchBeforeLoad > e.BatchSize {
		return fmt.Errorf("etl.min_batch_before_load (%d) must not exceed etl.batch_size (%d)", e.MinBatchBeforeLoad, e.BatchSize)
	}
	if e.PollTimeout <= 0 {
		return fmt.Errorf("etl.poll_timeout must be positive")
	}
	if e.BackoffInitial <= 0 {
		return fmt.Errorf("etl.backoff_initial must be positive")
	}
	if e.BackoffMax < e.BackoffInitial {
		return fmt.Errorf("etl.backoff_max must be >= etl.backoff_initial")
	}
	if e.ConsumerGroup == "" {
		return fmt.Errorf("etl.consumer_group is required")
	}
	return nil
}

func (c *Config) validateSpill() error {
	if c.Spill.Path == "" {
		return fmt.Errorf("spill.path is required")
	}
	return nil
}

func (c *Config) validateLogging() error {
	l := &c.Logging
	switch strings.ToLower(l.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("logging.level %q is not a recognised zerolog level", l.Level)
	}
	switch strings.ToLower(l.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", l.Format)
	}
	return nil
}

func (c *Config) validateMetrics() error {
	m := &c.Metrics
	if !m.Enabled {
		return nil
	}
	if m.Path == "" {
		return fmt.Errorf("metrics.path is required when metrics.enabled is true")
	}
	if m.Port <= 0 || m.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", m.Port)
	}
	return nil
}
