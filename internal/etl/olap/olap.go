// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

// Package olap runs the OLAP ETL loop: extract events off the bus,
// guard against undersized batches, flatten each envelope into a
// columnar row, bulk-load into olapstore, and commit the bus offsets
// only once the load has landed.
package olap

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"

	"github.com/practixhq/ugc-pipeline/internal/bus"
	"github.com/practixhq/ugc-pipeline/internal/errtracker"
	"github.com/practixhq/ugc-pipeline/internal/events"
	"github.com/practixhq/ugc-pipeline/internal/logging"
	"github.com/practixhq/ugc-pipeline/internal/metrics"
	"github.com/practixhq/ugc-pipeline/internal/olapstore"
	"github.com/practixhq/ugc-pipeline/internal/spill"
)

var eventLog = logging.NewEventLogger().WithFields(map[string]interface{}{"pipeline": pipelineName})

const pipelineName = "olap"

// rowStore is the subset of *olapstore.Store the loop depends on, kept
// as an interface so tests can exercise the loop without a live DuckDB
// file.
type rowStore interface {
	CreateTable(ctx context.Context) error
	InsertBatch(ctx context.Context, rows []olapstore.Row) error
}

// Config holds the parameters shared by the extract/guard/load stages.
type Config struct {
	Backend            string
	ConsumerGroup      string
	BatchSize          int
	MinBatchBeforeLoad int
	PollTimeout        time.Duration
	BackoffInitial     time.Duration
	BackoffMax         time.Duration
}

// Loop is the OLAP ETL's suture.Service: Serve runs the
// extract/guard/transform/load/commit state machine until its context
// is canceled.
type Loop struct {
	cfg     Config
	bus     bus.Bus
	store   rowStore
	spill   *spill.File
	tracker *errtracker.Tracker
	topics  []string
}

// New returns a Loop ready to be added to a supervisor tree.
func New(cfg Config, b bus.Bus, store rowStore, spillFile *spill.File, tracker *errtracker.Tracker) *Loop {
	topics := make([]string, len(events.Topics))
	for i, t := range events.Topics {
		topics[i] = string(t)
	}
	return &Loop{cfg: cfg, bus: b, store: store, spill: spillFile, tracker: tracker, topics: topics}
}

// Prepare creates the destination table. It is called once before Serve,
// outside the supervisor tree: a schema-drift failure here must abort
// startup loudly rather than be retried by suture.
func (l *Loop) Prepare(ctx context.Context) error {
	if err := l.store.CreateTable(ctx); err != nil {
		l.tracker.Report(ctx, errtracker.Event{
			Service: "etl_olap",
			Kind:    "schema_drift",
			Message: err.Error(),
		})
		return err
	}
	return nil
}

// pendingBatch accumulates envelopes and the bus commit tokens that
// cover them across one or more extract polls, until the batch is large
// enough to load (the GUARDED stage) or shutdown forces a spill.
type pendingBatch struct {
	envelopes []events.Envelope
	tokens    []bus.CommitToken
}

func (b pendingBatch) empty() bool { return len(b.envelopes) == 0 }

// Serve implements suture.Service.
func (l *Loop) Serve(ctx context.Context) error {
	batch := l.recoverSpill()

	for {
		select {
		case <-ctx.Done():
			l.spillPending(batch)
			return nil
		default:
		}

		extracted, token, err := l.extract(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.spillPending(batch)
				return nil
			}
			logging.Error().Err(err).Msg("etl/olap: extract failed")
			continue
		}
		batch.envelopes = append(batch.envelopes, extracted...)
		if token != nil {
			batch.tokens = append(batch.tokens, token)
		}

		if len(batch.envelopes) < l.cfg.MinBatchBeforeLoad {
			// GUARDED: back off before re-polling for more records.
			select {
			case <-ctx.Done():
				l.spillPending(batch)
				return nil
			case <-time.After(l.cfg.PollTimeout):
			}
			continue
		}

		rows := transform(batch.envelopes)
		start := time.Now()
		loadErr := l.loadWithBackoff(ctx, rows)
		metrics.RecordETLBatch(pipelineName, len(rows), time.Since(start), loadErr)
		if loadErr != nil {
			logging.Error().Err(loadErr).Int("rows", len(rows)).Msg("etl/olap: load failed, batch stays uncommitted")
			if ctx.Err() != nil {
				l.spillPending(batch)
				return nil
			}
			continue // EXTRACTED: retry the same accumulated batch
		}

		if err := l.commitAll(ctx, batch.tokens); err != nil {
			logging.Error().Err(err).Msg("etl/olap: commit failed")
			continue
		}
		if err := spill.Clear(l.spill); err != nil {
			logging.Warn().Err(err).Msg("etl/olap: spill clear failed")
		}
		eventLog.LogBatchFlush(ctx, len(rows), time.Since(start).Milliseconds())
		batch = pendingBatch{}
	}
}

// extract pulls one batch from the bus and deserialises each message.
// Messages that fail to parse are logged and dropped from the returned
// envelopes, but the caller still folds their commit token into the
// pending batch so they are acknowledged and never redelivered forever.
func (l *Loop) extract(ctx context.Context) ([]events.Envelope, bus.CommitToken, error) {
	msgs, token, err := l.bus.Consume(ctx, l.topics, l.cfg.BatchSize, l.cfg.PollTimeout)
	if err != nil {
		return nil, nil, err
	}
	metrics.RecordBusConsumeBatch(l.cfg.Backend, l.cfg.ConsumerGroup, len(msgs))
	if len(msgs) == 0 {
		return nil, token, nil
	}

	envs := make([]events.Envelope, 0, len(msgs))
	for _, msg := range msgs {
		var env events.Envelope
		if err := json.Unmarshal(msg.Value, &env); err != nil {
			logging.Warn().Err(err).Str("topic", msg.Topic).Msg("etl/olap: dropping unparseable envelope")
			continue
		}
		envs = append(envs, env)
	}
	return envs, token, nil
}

// transform flattens each envelope into the destination row shape.
func transform(envs []events.Envelope) []olapstore.Row {
	rows := make([]olapstore.Row, len(envs))
	for i := range envs {
		rows[i] = olapstore.RowFromEnvelope(&envs[i])
	}
	return rows
}

// loadWithBackoff retries a bulk insert with exponential backoff up to
// cfg.BackoffMax, per spec's ceiling of roughly 180s, stopping early if
// ctx is canceled.
func (l *Loop) loadWithBackoff(ctx context.Context, rows []olapstore.Row) error {
	if len(rows) == 0 {
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = l.cfg.BackoffInitial
	bo.MaxInterval = l.cfg.BackoffMax
	bo.MaxElapsedTime = 0
	withCtx := backoff.WithContext(bo, ctx)

	attempt := 0
	return backoff.Retry(func() error {
		if attempt > 0 {
			metrics.RecordETLLoadRetry(pipelineName)
		}
		attempt++
		return l.store.InsertBatch(ctx, rows)
	}, withCtx)
}

func (l *Loop) commitAll(ctx context.Context, tokens []bus.CommitToken) error {
	for _, tok := range tokens {
		start := time.Now()
		if err := l.bus.Commit(ctx, tok); err != nil {
			return err
		}
		metrics.RecordBusCommit(l.cfg.Backend, time.Since(start))
	}
	return nil
}

// recoverSpill reloads any envelopes left over from a prior shutdown and
// prepends them to the extract queue, per spec's "spill is read first".
// Recovered envelopes carry no commit token: they were never acknowledged
// on the bus, so the same records will also be redelivered on the next
// poll and loaded again. The events table is an append-only log, so the
// resulting duplicate rows are acceptable.
func (l *Loop) recoverSpill() pendingBatch {
	envs, err := spill.Load[events.Envelope](l.spill)
	if err != nil {
		logging.Error().Err(err).Msg("etl/olap: spill load failed")
		return pendingBatch{}
	}
	if len(envs) == 0 {
		return pendingBatch{}
	}
	metrics.RecordSpillRecovery(len(envs))
	logging.Info().Int("count", len(envs)).Msg("etl/olap: recovered spilled batch")
	return pendingBatch{envelopes: envs}
}

// spillPending persists an in-flight, not-yet-loaded batch on shutdown.
// Failures are logged, not returned: a failed spill must not prevent the
// process from exiting when asked to.
func (l *Loop) spillPending(batch pendingBatch) {
	if batch.empty() {
		return
	}
	if err := spill.Save(l.spill, batch.envelopes); err != nil {
		logging.Error().Err(err).Msg("etl/olap: spill save failed")
		return
	}
	metrics.RecordSpillSave(len(batch.envelopes))
	logging.Info().Int("count", len(batch.envelopes)).Msg("etl/olap: spilled pending batch on shutdown")
}
