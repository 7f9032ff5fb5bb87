// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package errtracker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestNew_RejectsInvalidURL(t *testing.T) {
	if _, err := New("not-a-url", time.Second); err == nil {
		t.Error("expected error for scheme-less URL")
	}
	if _, err := New("ftp://example.com/hook", time.Second); err == nil {
		t.Error("expected error for non-http(s) scheme")
	}
}

func TestNew_EmptyURLIsNoop(t *testing.T) {
	tracker, err := New("", time.Second)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	tracker.Report(context.Background(), Event{Service: "ingest", Kind: "panic", Message: "boom"})
}

func TestReport_DeliversToWebhook(t *testing.T) {
	received := make(chan Event, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			t.Errorf("decode body: %v", err)
		}
		received <- ev
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tracker, err := New(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tracker.Report(context.Background(), Event{
		Service:   "ingest",
		Kind:      "panic",
		Message:   "nil pointer dereference",
		RequestID: "req-1",
	})

	select {
	case ev := <-received:
		if ev.Service != "ingest" || ev.Message != "nil pointer dereference" {
			t.Errorf("unexpected event delivered: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for webhook delivery")
	}
}

func TestReport_SurvivesUnreachableWebhook(t *testing.T) {
	tracker, err := New("http://127.0.0.1:1", 100*time.Millisecond)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	tracker.Report(context.Background(), Event{Service: "etl_olap", Kind: "fatal", Message: "schema drift"})
}
