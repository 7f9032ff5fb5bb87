// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

// Package bus defines the capability contract shared by the two event
// bus backends (a partitioned, committed-offset log and a durable AMQP
// broker). Callers depend only on this interface; the concrete backend
// is selected at construction time from configuration, never branched
// on at the call site.
package bus

import (
	"context"
	"errors"
	"time"
)

// Backend names a concrete bus implementation.
type Backend string

const (
	// BackendLog selects the partitioned, committed-offset log adapter
	// (NATS JetStream).
	BackendLog Backend = "log"
	// BackendBroker selects the durable direct-exchange broker adapter
	// (AMQP).
	BackendBroker Backend = "broker"
)

// ErrClosed is returned by Publish/Consume/Commit once Close has run.
var ErrClosed = errors.New("bus: adapter closed")

// Message is a single record pulled from the bus, paired with enough
// bookkeeping for the ETL loops to acknowledge it individually or as
// part of a batch commit.
type Message struct {
	// Key is the partitioning/routing key the record was published
	// under (event_id for click/visit, the owning film_id/review_id
	// for custom operations).
	Key string
	// Value is the canonical JSON envelope.
	Value []byte
	// Topic is the bus topic the message was read from.
	Topic string
}

// Batch is a slice of messages pulled by a single Consume call.
type Batch []Message

// CommitToken opaquely tracks which messages a Commit call should
// acknowledge. Adapters type-assert it back to their own concrete type;
// callers never inspect it.
type CommitToken interface {
	// Topics lists which topics are represented in this token, purely
	// for logging.
	Topics() []string
}

// Bus is the shared publish/consume/commit contract. Both the log and
// broker adapters implement it in full.
type Bus interface {
	// Publish sends value to topic under the given partition/routing key.
	// It blocks only long enough to hand the record to the backend's
	// send buffer (log adapter) or to receive a broker confirmation
	// (broker adapter).
	Publish(ctx context.Context, topic, key string, value []byte) error

	// Consume pulls up to maxBatch messages across topics, waiting at
	// most timeout for the batch to fill. It may return fewer than
	// maxBatch messages (including zero) if timeout elapses first.
	Consume(ctx context.Context, topics []string, maxBatch int, timeout time.Duration) (Batch, CommitToken, error)

	// Commit acknowledges every message represented by token. Callers
	// must not call Commit until every message in the batch has been
	// durably loaded into its sink; Commit is never called on a batch
	// that was only partially loaded.
	Commit(ctx context.Context, token CommitToken) error

	// Close releases the underlying connection. It is safe to call
	// Close more than once.
	Close() error
}

// ParseBackend validates a configuration string against the known
// backend names.
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case BackendLog, "":
		return BackendLog, nil
	case BackendBroker:
		return BackendBroker, nil
	default:
		return "", errors.New("bus: unknown backend " + s)
	}
}
