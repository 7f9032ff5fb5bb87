// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package nosql

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"

	"github.com/practixhq/ugc-pipeline/internal/bus"
	"github.com/practixhq/ugc-pipeline/internal/events"
	"github.com/practixhq/ugc-pipeline/internal/logging"
	"github.com/practixhq/ugc-pipeline/internal/metrics"
)

const pipelineName = "nosql"

var eventLog = logging.NewEventLogger().WithFields(map[string]interface{}{"pipeline": pipelineName})

// Config holds the parameters shared by the extract/guard/dispatch
// stages, the same tuning knobs the OLAP ETL uses.
type Config struct {
	Backend            string
	ConsumerGroup      string
	BatchSize          int
	MinBatchBeforeLoad int
	PollTimeout        time.Duration
	BackoffInitial     time.Duration
	BackoffMax         time.Duration
}

// Loop is the NoSQL ETL's suture.Service. Unlike the OLAP ETL it does
// not spill on shutdown: every operation is idempotent with respect to
// its key, so an uncommitted batch left behind at shutdown is simply
// redelivered and reprocessed from scratch on the next startup.
type Loop struct {
	cfg    Config
	bus    bus.Bus
	store  DocStore
	topics []string
}

// New returns a Loop ready to be added to a supervisor tree.
func New(cfg Config, b bus.Bus, store DocStore) *Loop {
	return &Loop{cfg: cfg, bus: b, store: store, topics: []string{string(events.EventTypeCustom)}}
}

type pendingBatch struct {
	envelopes []events.Envelope
	tokens    []bus.CommitToken
}

// Serve implements suture.Service.
func (l *Loop) Serve(ctx context.Context) error {
	var batch pendingBatch

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		extracted, token, err := l.extract(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logging.Error().Err(err).Msg("etl/nosql: extract failed")
			continue
		}
		batch.envelopes = append(batch.envelopes, extracted...)
		if token != nil {
			batch.tokens = append(batch.tokens, token)
		}

		if len(batch.envelopes) < l.cfg.MinBatchBeforeLoad {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(l.cfg.PollTimeout):
			}
			continue
		}

		start := time.Now()
		processErr := l.processWithBackoff(ctx, batch.envelopes)
		metrics.RecordETLBatch(pipelineName, len(batch.envelopes), time.Since(start), processErr)
		if processErr != nil {
			logging.Error().Err(processErr).Int("events", len(batch.envelopes)).
				Msg("etl/nosql: batch processing failed, staying uncommitted")
			if ctx.Err() != nil {
				return nil
			}
			continue
		}

		if err := l.commitAll(ctx, batch.tokens); err != nil {
			logging.Error().Err(err).Msg("etl/nosql: commit failed")
			continue
		}
		eventLog.LogBatchFlush(ctx, len(batch.envelopes), time.Since(start).Milliseconds())
		batch = pendingBatch{}
	}
}

// extract pulls one batch off the custom-operations topic. Messages
// that fail to parse are logged and dropped, but their commit token is
// still folded into the pending batch so they are acknowledged.
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
			logging.Warn().Err(err).Str("topic", msg.Topic).Msg("etl/nosql: dropping unparseable envelope")
			continue
		}
		envs = append(envs, env)
	}
	return envs, token, nil
}

// processWithBackoff dispatches every envelope in the batch in order,
// retrying the whole batch with exponential backoff on a technical
// store failure. Because every operation is idempotent with respect to
// its key, re-dispatching events already applied on an earlier attempt
// within the same retry loop is harmless.
func (l *Loop) processWithBackoff(ctx context.Context, envs []events.Envelope) error {
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
		for i := range envs {
			if err := dispatch(ctx, l.store, &envs[i]); err != nil {
				return err
			}
		}
		return nil
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
