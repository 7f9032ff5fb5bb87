// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

// Package spill is the durable-on-shutdown buffer for batches an ETL
// loop has pulled from the bus but not yet loaded into its sink. It is
// a flat, line-delimited JSON file: one envelope per line, written at
// shutdown and read back in full at the next startup.
package spill

import (
	"bufio"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/goccy/go-json"
)

// File is a line-delimited JSON spill file guarded by a mutex so the
// same *File can be shared between the shutdown-signal handler and the
// startup read without a separate lock in the caller.
type File struct {
	mu   sync.Mutex
	path string
}

// Open returns a handle to the spill file at path. The file itself is
// created lazily on the first Save call; Open never creates it.
func Open(path string) *File {
	return &File{path: path}
}

// Save overwrites the spill file with one JSON line per record. It is
// called once, at shutdown, with whatever batch was pulled from the bus
// but not yet loaded.
func Save[T any](f *File, records []T) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(records) == 0 {
		return f.clearLocked()
	}

	tmpPath := f.path + ".tmp"
	out, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(out)
	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			out.Close()
			os.Remove(tmpPath)
			return err
		}
	}
	if err := w.Flush(); err != nil {
		out.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, f.path)
}

// Load reads every record from the spill file, swallowing a missing
// file (nothing was ever spilled) exactly like the source's
// JsonFileStorage.read_events, which tolerates FileNotFoundError.
func Load[T any](f *File) ([]T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	in, err := os.Open(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer in.Close()

	var records []T
	dec := json.NewDecoder(bufio.NewReader(in))
	for {
		var rec T
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return records, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Clear removes the spill file. Called once a previously spilled batch
// has been successfully loaded and committed, mirroring the source's
// "clear spill if previously loaded" step.
func Clear(f *File) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clearLocked()
}

func (f *File) clearLocked() error {
	err := os.Remove(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
