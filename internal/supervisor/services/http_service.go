// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

// Package services adapts ordinary blocking components (an HTTP
// server) into suture.Service, so the ingest API and the Prometheus
// metrics endpoint can sit in the same supervisor tree as the ETL
// loops.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// HTTPServer matches *http.Server's lifecycle methods, so
// HTTPServerService can be tested against a fake without binding a
// real socket.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService wraps an HTTP server as a suture.Service: it starts
// ListenAndServe in a goroutine, and on context cancellation calls
// Shutdown with a bounded timeout rather than dropping in-flight ingest
// requests.
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
	name            string
}

// NewHTTPServerService returns a Service wrapping server. name
// identifies the service in supervisor logs ("ingest-api",
// "metrics").
func NewHTTPServerService(name string, server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{server: server, shutdownTimeout: shutdownTimeout, name: name}
}

// Serve implements suture.Service.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("%s: %w", h.name, err)
		}
		return nil

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()

		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: shutdown: %w", h.name, err)
		}
		<-errCh
		return ctx.Err()
	}
}

// String implements fmt.Stringer so suture logs identify this service
// by name.
func (h *HTTPServerService) String() string {
	return h.name
}
