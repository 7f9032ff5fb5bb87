// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

// Package logbus is the partitioned, committed-offset log bus adapter,
// backed by NATS JetStream through Watermill. It implements internal/bus.Bus.
package logbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/practixhq/ugc-pipeline/internal/bus"
	"github.com/practixhq/ugc-pipeline/internal/logging"
	"github.com/practixhq/ugc-pipeline/internal/metrics"
)

// Config configures the log bus adapter.
type Config struct {
	// URL is the NATS server URL, e.g. "nats://localhost:4222".
	URL string
	// ConsumerGroup names the JetStream durable consumer for a
	// subscriber built with this config ("etl_olap" or "etl_nosql").
	ConsumerGroup string
	// MaxReconnects, ReconnectWait bound the NATS client's own
	// reconnect loop; -1 means unlimited.
	MaxReconnects int
	ReconnectWait time.Duration
	// AckWaitTimeout is how long JetStream waits for an ack before
	// redelivering.
	AckWaitTimeout time.Duration
	// MaxAckPending bounds in-flight unacked messages per consumer.
	MaxAckPending int
	// CircuitBreaker gates Publish; a nil value disables it.
	CircuitBreaker *gobreaker.CircuitBreaker[any]
}

// commitToken tracks which watermill messages a batch's Commit call
// should ack. Messages are acked all-or-nothing: OLAP/NoSQL ETLs never
// call Commit until every message in the batch loaded successfully.
type commitToken struct {
	messages []*message.Message
	topics   map[string]struct{}
}

func (t *commitToken) Topics() []string {
	out := make([]string, 0, len(t.topics))
	for topic := range t.topics {
		out = append(out, topic)
	}
	return out
}

// Adapter is the log bus implementation of bus.Bus.
type Adapter struct {
	cfg Config

	mu         sync.Mutex
	closed     bool
	publisher  message.Publisher
	subscriber message.Subscriber
	channels   map[string]<-chan *message.Message
	eventLog   *logging.EventLogger
}

// New dials NATS and builds a Watermill publisher and JetStream
// subscriber bound to cfg.ConsumerGroup.
func New(cfg Config) (*Adapter, error) {
	logger := watermillLogAdapter{}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("logbus: nats disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("logbus: nats reconnected")
		}),
	}

	pub, err := wmnats.NewPublisher(wmnats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmnats.NATSMarshaler{},
		JetStream: wmnats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
			TrackMsgId:    true,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("logbus: create publisher: %w", err)
	}

	ackWait := cfg.AckWaitTimeout
	if ackWait == 0 {
		ackWait = 30 * time.Second
	}
	maxAckPending := cfg.MaxAckPending
	if maxAckPending == 0 {
		maxAckPending = 1000
	}

	sub, err := wmnats.NewSubscriber(wmnats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: cfg.ConsumerGroup,
		SubscribersCount: 1,
		AckWaitTimeout:   ackWait,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmnats.NATSMarshaler{},
		JetStream: wmnats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
			AckAsync:      false,
			DurablePrefix: cfg.ConsumerGroup,
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.MaxAckPending(maxAckPending),
				natsgo.AckWait(ackWait),
				natsgo.DeliverAll(),
			},
		},
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("logbus: create subscriber: %w", err)
	}

	eventLog := logging.NewEventLogger().WithFields(map[string]interface{}{
		"consumer_group": cfg.ConsumerGroup,
		"bus_backend":    "log",
	})
	eventLog.LogRouterStarted()

	return &Adapter{
		cfg:        cfg,
		publisher:  pub,
		subscriber: sub,
		channels:   make(map[string]<-chan *message.Message),
		eventLog:   eventLog,
	}, nil
}

// Publish hands value to the JetStream publisher under key, setting the
// NATS message-id header to key so at-least-once redeliveries dedupe on
// the JetStream side. Publish is wrapped in the configured circuit
// breaker and retries a failed publish once before surfacing an error
// to the caller, matching the ingest API's retry-once contract.
func (a *Adapter) Publish(ctx context.Context, topic, key string, value []byte) error {
	a.mu.Lock()
	closed := a.closed
	a.mu.Unlock()
	if closed {
		return bus.ErrClosed
	}

	msg := message.NewMessage(key, value)
	msg.Metadata.Set(natsgo.MsgIdHdr, key)

	publish := func() error {
		if err := a.publisher.Publish(topic, msg); err != nil {
			// One retry, so a transient connection loss does not fail the call.
			return a.publisher.Publish(topic, msg)
		}
		return nil
	}

	var err error
	if a.cfg.CircuitBreaker != nil {
		_, err = a.cfg.CircuitBreaker.Execute(func() (any, error) {
			return nil, publish()
		})
	} else {
		err = publish()
	}
	if err == nil {
		metrics.RecordBusPublish(string(bus.BackendLog), topic, true)
		a.eventLog.LogEventPublished(ctx, key, topic)
	} else {
		metrics.RecordBusPublish(string(bus.BackendLog), topic, false)
		a.eventLog.LogEventFailed(ctx, key, err)
	}
	return err
}

// Consume drains up to maxBatch messages across topics, subscribing
// lazily the first time each topic is requested, and returns as soon as
// the batch fills or timeout elapses, whichever comes first.
func (a *Adapter) Consume(ctx context.Context, topics []string, maxBatch int, timeout time.Duration) (bus.Batch, bus.CommitToken, error) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil, nil, bus.ErrClosed
	}
	for _, topic := range topics {
		if _, ok := a.channels[topic]; !ok {
			ch, err := a.subscriber.Subscribe(ctx, topic)
			if err != nil {
				a.mu.Unlock()
				return nil, nil, fmt.Errorf("logbus: subscribe %s: %w", topic, err)
			}
			a.channels[topic] = ch
			a.eventLog.LogSubscriptionStarted(topic, a.cfg.ConsumerGroup)
		}
	}
	channels := make(map[string]<-chan *message.Message, len(topics))
	for _, topic := range topics {
		channels[topic] = a.channels[topic]
	}
	a.mu.Unlock()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	batch := make(bus.Batch, 0, maxBatch)
	token := &commitToken{topics: make(map[string]struct{})}

	for len(batch) < maxBatch {
		anySelected := false
		for topic, ch := range channels {
			select {
			case msg, ok := <-ch:
				if !ok {
					continue
				}
				batch = append(batch, bus.Message{Key: msg.UUID, Value: msg.Payload, Topic: topic})
				token.messages = append(token.messages, msg)
				token.topics[topic] = struct{}{}
				anySelected = true
			default:
			}
		}
		if len(batch) >= maxBatch {
			break
		}
		select {
		case <-ctx.Done():
			return batch, token, ctx.Err()
		case <-deadline.C:
			return batch, token, nil
		default:
		}
		if !anySelected {
			// nothing ready this pass; wait briefly instead of busy-spinning
			select {
			case <-ctx.Done():
				return batch, token, ctx.Err()
			case <-deadline.C:
				return batch, token, nil
			case <-time.After(10 * time.Millisecond):
			}
		}
	}
	return batch, token, nil
}

// Commit acks every message carried by token. Per the bus contract,
// callers only invoke Commit after every message in the batch has been
// durably loaded; JetStream redelivers unacked messages after AckWait.
func (a *Adapter) Commit(ctx context.Context, token bus.CommitToken) error {
	ct, ok := token.(*commitToken)
	if !ok {
		return fmt.Errorf("logbus: commit token of wrong type %T", token)
	}
	for _, msg := range ct.messages {
		msg.Ack()
	}
	return nil
}

// Close shuts down the publisher and subscriber.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.eventLog.LogRouterStopped()
	pubErr := a.publisher.Close()
	subErr := a.subscriber.Close()
	if pubErr != nil {
		return pubErr
	}
	return subErr
}

// watermillLogAdapter routes Watermill's own diagnostic logging through
// the application's zerolog logger instead of Watermill's stdlib logger.
type watermillLogAdapter struct{}

func (watermillLogAdapter) Error(msg string, err error, fields watermill.LogFields) {
	ev := logging.Error().Err(err)
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (watermillLogAdapter) Info(msg string, fields watermill.LogFields) {
	ev := logging.Info()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (watermillLogAdapter) Debug(msg string, fields watermill.LogFields) {
	ev := logging.Debug()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (watermillLogAdapter) Trace(msg string, fields watermill.LogFields) {
	ev := logging.Trace()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (a watermillLogAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return a
}
