// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration loaded from environment
// variables and an optional YAML file, shared by the ingest API and
// both ETL binaries.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in sensible defaults for every optional setting.
//  2. Config File: optional YAML file (config.yaml) for persistent settings.
//  3. Environment Variables: override any setting via environment variables.
//
// Config is immutable after Load() returns and safe for concurrent
// read access from multiple goroutines.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Bus        BusConfig        `koanf:"bus"`
	Auth       AuthConfig       `koanf:"auth"`
	OLAP       OLAPConfig       `koanf:"olap"`
	Mongo      MongoConfig      `koanf:"mongo"`
	ETL        ETLConfig        `koanf:"etl"`
	Spill      SpillConfig      `koanf:"spill"`
	ErrTracker ErrTrackerConfig `koanf:"errtracker"`
	Logging    LoggingConfig    `koanf:"logging"`
	Metrics    MetricsConfig    `koanf:"metrics"`
}

// ServerConfig holds the ingest/read HTTP server settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
	// Timeout is the ingest HTTP server's ReadTimeout and WriteTimeout.
	// No handler-level deadline is set, so a request that outlives it is
	// not answered with a 500: its response writes fail instead.
	Timeout time.Duration `koanf:"timeout"`
	// Environment gates production-only behaviour (e.g. disabling the
	// per-request Eventbus header override).
	Environment string `koanf:"environment"`
	// DebugRoutes enables the diagnostic /events/exception route.
	DebugRoutes bool `koanf:"debug_routes"`
	// CORSOrigins lists allowed origins for the ingest/read API.
	CORSOrigins []string `koanf:"cors_origins"`
}

// BusConfig selects and configures the event bus backend.
type BusConfig struct {
	// Backend is "log" (NATS JetStream) or "broker" (AMQP). Production
	// traffic must pin one; see AllowHeaderOverride.
	Backend string `koanf:"backend"`
	// AllowHeaderOverride lets a request's Eventbus header pick the
	// backend per-request, for A/B benchmarking. It is forced false
	// whenever Server.Environment == "production" regardless of this
	// setting.
	AllowHeaderOverride bool `koanf:"allow_header_override"`

	LogBus    LogBusConfig    `koanf:"logbus"`
	BrokerBus BrokerBusConfig `koanf:"brokerbus"`

	// CircuitBreakerMaxRequests caps half-open probe requests.
	CircuitBreakerMaxRequests uint32 `koanf:"circuit_breaker_max_requests"`
	// CircuitBreakerInterval resets failure counts in the closed state.
	CircuitBreakerInterval time.Duration `koanf:"circuit_breaker_interval"`
	// CircuitBreakerTimeout is how long the breaker stays open before
	// probing again.
	CircuitBreakerTimeout time.Duration `koanf:"circuit_breaker_timeout"`
}

// LogBusConfig configures the NATS JetStream-backed log adapter.
type LogBusConfig struct {
	URL            string        `koanf:"url"`
	MaxReconnects  int           `koanf:"max_reconnects"`
	ReconnectWait  time.Duration `koanf:"reconnect_wait"`
	AckWaitTimeout time.Duration `koanf:"ack_wait_timeout"`
	MaxAckPending  int           `koanf:"max_ack_pending"`
}

// BrokerBusConfig configures the AMQP-backed broker adapter.
type BrokerBusConfig struct {
	AmqpURI string `koanf:"amqp_uri"`
}

// AuthConfig configures RS256 JWT verification for the ingest API.
type AuthConfig struct {
	// Mode selects the authenticator: "rs256" (default) or "none" for
	// local development.
	Mode string `koanf:"mode"`
	// PublicKeyPath is a PEM-encoded RSA public key used to verify the
	// identity service's RS256 signatures.
	PublicKeyPath string `koanf:"public_key_path"`
	// Audience must appear in the token's aud claim.
	Audience string `koanf:"audience"`
}

// OLAPConfig configures the columnar store the OLAP ETL loads into.
type OLAPConfig struct {
	// Path is the DuckDB database file path.
	Path string `koanf:"path"`
	// Database is the logical database name (spec: "olap").
	Database string `koanf:"database"`
	// ClusterName names the ON CLUSTER clause used in DDL, a naming-only
	// nod to the original ClickHouse-backed implementation; DuckDB has
	// no real cluster concept.
	ClusterName string `koanf:"cluster_name"`
}

// MongoConfig configures the document store used by the NoSQL ETL and
// the read API.
type MongoConfig struct {
	URI string `koanf:"uri"`
	// Database is "practixDb" for the read API and "ugc_2_collection"
	// for the ETL, per the spec's persisted-state layout; both name the
	// same physical database in this implementation, the two names
	// in spec.md §6 describe the same collections from two call sites.
	Database string        `koanf:"database"`
	Timeout  time.Duration `koanf:"timeout"`
}

// ETLConfig holds parameters shared by the OLAP and NoSQL ETL loops.
type ETLConfig struct {
	// BatchSize is the maximum number of records pulled per Consume call.
	BatchSize int `koanf:"batch_size"`
	// MinBatchBeforeLoad guards against small inserts; both the OLAP
	// and the NoSQL ETL back off and re-poll while a batch is smaller.
	MinBatchBeforeLoad int `koanf:"min_batch_before_load"`
	// PollTimeout bounds each Consume call.
	PollTimeout time.Duration `koanf:"poll_timeout"`
	// BackoffInitial/BackoffMax bound the load-retry exponential backoff.
	BackoffInitial time.Duration `koanf:"backoff_initial"`
	BackoffMax     time.Duration `koanf:"backoff_max"`
	// ConsumerGroup names the bus consumer group ("etl_olap" or
	// "etl_nosql").
	ConsumerGroup string `koanf:"consumer_group"`
}

// SpillConfig configures the OLAP ETL's durable-on-shutdown spill file.
type SpillConfig struct {
	Path string `koanf:"path"`
}

// ErrTrackerConfig configures the uncaught-error webhook sink.
type ErrTrackerConfig struct {
	WebhookURL string        `koanf:"webhook_url"`
	Timeout    time.Duration `koanf:"timeout"`
}

// LoggingConfig holds logging settings for zerolog.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// MetricsConfig controls the Prometheus metrics HTTP endpoint.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
	Port    int    `koanf:"port"`
}

// Addr returns the "host:port" listen address for the HTTP server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsProduction reports whether Environment is "production".
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// EventbusHeaderAllowed reports whether a per-request Eventbus header
// may override the configured bus backend. It is always false in
// production regardless of BusConfig.AllowHeaderOverride, per the
// foot-gun note in spec.md §9.
func (c *Config) EventbusHeaderAllowed() bool {
	return c.Bus.AllowHeaderOverride && !c.IsProduction()
}
