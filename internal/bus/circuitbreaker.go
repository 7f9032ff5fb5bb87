// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package bus

import (
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/practixhq/ugc-pipeline/internal/logging"
	"github.com/practixhq/ugc-pipeline/internal/metrics"
)

// NewCircuitBreaker builds the breaker logbus/brokerbus gate Publish
// with. It trips once at least half of at least three requests in a
// rolling window fail, shared by both adapters so callers configure one
// set of thresholds regardless of backend.
func NewCircuitBreaker(name string, maxRequests uint32, interval, timeout time.Duration) *gobreaker.CircuitBreaker[any] {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: maxRequests,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 3 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("bus: circuit breaker state change")
			metrics.SetBusCircuitBreakerState(name, int(to))
		},
	}
	return gobreaker.NewCircuitBreaker[any](settings)
}
