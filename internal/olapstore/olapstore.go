// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

// Package olapstore persists flattened UGC envelopes to a DuckDB-backed
// columnar table for downstream analytics, the destination of the OLAP
// ETL's load stage.
package olapstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/practixhq/ugc-pipeline/internal/events"
	"github.com/practixhq/ugc-pipeline/internal/logging"
)

// Row is one flattened envelope as stored in the events table. Payload
// carries the original JSON body wrapped in a single-entry map, per the
// column's declared JSON type.
type Row struct {
	EventID      uuid.UUID
	RequestID    uuid.UUID
	SessionID    uuid.UUID
	UserID       uuid.UUID
	UserTS       time.Time
	ServerTS     time.Time
	EventbusTS   time.Time
	EventTime    time.Time
	URL          string
	EventType    string
	EventSubtype string
	Payload      map[string]string
}

// RowFromEnvelope flattens env into the row shape the events table stores,
// stamping EventTime as the moment the ETL loads it.
func RowFromEnvelope(env *events.Envelope) Row {
	return Row{
		EventID:      env.EventID,
		RequestID:    env.RequestID,
		SessionID:    env.SessionID,
		UserID:       env.UserID,
		UserTS:       env.UserTS,
		ServerTS:     env.ServerTS,
		EventbusTS:   env.EventbusTS,
		EventTime:    time.Now().UTC(),
		URL:          env.URL,
		EventType:    string(env.EventType),
		EventSubtype: string(env.EventSubtype),
		Payload:      map[string]string{"payload": string(env.Payload)},
	}
}

// Store wraps a DuckDB connection holding the events table.
type Store struct {
	db          *sql.DB
	clusterName string
}

// Open opens (creating if necessary) the DuckDB file at path and returns a
// Store bound to it. clusterName is only written to CreateTable's log
// line: a naming-only nod to the original ClickHouse ON CLUSTER clause,
// since DuckDB has no real cluster concept.
func Open(path, database, clusterName string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("olapstore: create database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("olapstore: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	logging.Info().Str("path", path).Str("database", database).Msg("olapstore: opened DuckDB")
	return &Store{db: db, clusterName: clusterName}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateTable creates the events table and its indexes if they don't
// already exist.
func (s *Store) CreateTable(ctx context.Context) error {
	// The source system declared this table ON CLUSTER in ClickHouse; the
	// DDL below has no cluster clause, and s.clusterName is only logged.
	query := `
		CREATE TABLE IF NOT EXISTS events (
			event_id TEXT PRIMARY KEY,
			request_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			user_id TEXT NOT NULL,

			user_ts TIMESTAMPTZ NOT NULL,
			server_ts TIMESTAMPTZ NOT NULL,
			eventbus_ts TIMESTAMPTZ,
			event_time TIMESTAMPTZ NOT NULL,

			url TEXT NOT NULL,
			event_type TEXT NOT NULL,
			event_subtype TEXT,
			payload JSON
		);

		CREATE INDEX IF NOT EXISTS idx_events_event_type ON events(event_type);
		CREATE INDEX IF NOT EXISTS idx_events_event_subtype ON events(event_subtype);
		CREATE INDEX IF NOT EXISTS idx_events_user_id ON events(user_id);
		CREATE INDEX IF NOT EXISTS idx_events_event_time ON events(event_time DESC);
	`
	for _, stmt := range strings.Split(query, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("olapstore: create schema: %w", err)
		}
	}

	logging.Info().Str("cluster", s.clusterName).Msg("olapstore: events table created/verified")
	return nil
}

// InsertBatch loads rows in a single transaction, so a batch either lands
// in full or not at all.
func (s *Store) InsertBatch(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("olapstore: begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, insertQuery)
	if err != nil {
		return fmt.Errorf("olapstore: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		payload, err := json.Marshal(row.Payload)
		if err != nil {
			return fmt.Errorf("olapstore: marshal payload for event %s: %w", row.EventID, err)
		}

		var eventbusTS interface{}
		if !row.EventbusTS.IsZero() {
			eventbusTS = row.EventbusTS
		}

		if _, err := stmt.ExecContext(ctx,
			row.EventID.String(),
			row.RequestID.String(),
			row.SessionID.String(),
			row.UserID.String(),
			row.UserTS,
			row.ServerTS,
			eventbusTS,
			row.EventTime,
			row.URL,
			row.EventType,
			row.EventSubtype,
			string(payload),
		); err != nil {
			return fmt.Errorf("olapstore: insert event %s: %w", row.EventID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("olapstore: commit batch of %d rows: %w", len(rows), err)
	}

	logging.Debug().Int("rows", len(rows)).Msg("olapstore: batch committed")
	return nil
}

const insertQuery = `
	INSERT INTO events (
		event_id, request_id, session_id, user_id,
		user_ts, server_ts, eventbus_ts, event_time,
		url, event_type, event_subtype, payload
	) VALUES (
		?, ?, ?, ?,
		?, ?, ?, ?,
		?, ?, ?, ?
	)
`

// Count returns the number of rows currently in the events table, used by
// tests and operational checks.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("olapstore: count rows: %w", err)
	}
	return count, nil
}
