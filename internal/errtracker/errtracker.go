// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

// Package errtracker delivers uncaught ingest panics and ETL
// schema-drift fatals to an HTTP webhook, generalising the original
// system's SENTRY_DSN environment variable into a configurable
// webhook URL.
package errtracker

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"

	"github.com/practixhq/ugc-pipeline/internal/logging"
	"github.com/practixhq/ugc-pipeline/internal/metrics"
)

// Event is the payload delivered to the webhook for one error.
type Event struct {
	// Service names the component reporting the error ("ingest",
	// "etl_olap", "etl_nosql").
	Service string `json:"service"`
	// Kind distinguishes a recovered HTTP panic from an ETL fatal.
	Kind string `json:"kind"`
	// Message is the error's string representation.
	Message string `json:"message"`
	// RequestID correlates an ingest panic to its originating request,
	// empty for ETL-originated events.
	RequestID string `json:"request_id,omitempty"`
	// Stack is a captured stack trace, when available.
	Stack     string    `json:"stack,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Tracker delivers Events to a configured webhook URL. A Tracker with
// an empty URL is a no-op sink: Report only logs locally, so error
// tracking is optional without special-casing callers.
type Tracker struct {
	webhookURL string
	client     *http.Client
}

// New validates webhookURL (when non-empty) and returns a Tracker.
func New(webhookURL string, timeout time.Duration) (*Tracker, error) {
	if webhookURL != "" {
		if err := validateWebhookURL(webhookURL); err != nil {
			return nil, err
		}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Tracker{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// Report delivers ev to the webhook. Delivery failures are logged but
// never returned to the caller: error tracking itself must never be
// the reason a request or ETL batch fails.
func (t *Tracker) Report(ctx context.Context, ev Event) {
	ev.Timestamp = time.Now().UTC()

	logging.Error().
		Str("service", ev.Service).
		Str("kind", ev.Kind).
		Str("request_id", ev.RequestID).
		Msg(ev.Message)

	if t.webhookURL == "" {
		return
	}

	body, err := json.Marshal(ev)
	if err != nil {
		logging.Warn().Err(err).Msg("errtracker: marshal event")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.webhookURL, bytes.NewReader(body))
	if err != nil {
		logging.Warn().Err(err).Msg("errtracker: build request")
		metrics.RecordErrTrackerDelivery("request_build_failed")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		logging.Warn().Err(err).Msg("errtracker: deliver webhook")
		metrics.RecordErrTrackerDelivery("transport_error")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		metrics.RecordErrTrackerDelivery("delivered")
		return
	}
	logging.Warn().Int("status", resp.StatusCode).Msg("errtracker: webhook rejected event")
	metrics.RecordErrTrackerDelivery("rejected")
}

func validateWebhookURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return &url.Error{Op: "parse", URL: rawURL, Err: errScheme}
	}
	if parsed.Host == "" {
		return &url.Error{Op: "parse", URL: rawURL, Err: errHost}
	}
	return nil
}

var (
	errScheme = errInvalid("webhook URL must use http or https scheme")
	errHost   = errInvalid("webhook URL must have a host")
)

type errInvalid string

func (e errInvalid) Error() string { return string(e) }
