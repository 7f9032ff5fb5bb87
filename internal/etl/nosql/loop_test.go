// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package nosql

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/practixhq/ugc-pipeline/internal/bus"
	"github.com/practixhq/ugc-pipeline/internal/events"
	"github.com/practixhq/ugc-pipeline/internal/ugcstore"
)

type fakeToken struct{ id int }

func (fakeToken) Topics() []string { return nil }

type fakeBus struct {
	mu        sync.Mutex
	batches   []bus.Batch
	committed []int
}

func (b *fakeBus) Publish(context.Context, string, string, []byte) error { return nil }

func (b *fakeBus) Consume(ctx context.Context, topics []string, maxBatch int, timeout time.Duration) (bus.Batch, bus.CommitToken, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.batches) == 0 {
		return nil, fakeToken{id: -1}, nil
	}
	next := b.batches[0]
	b.batches = b.batches[1:]
	return next, fakeToken{id: len(b.batches) + len(b.committed) + 1}, nil
}

func (b *fakeBus) Commit(ctx context.Context, token bus.CommitToken) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	tok := token.(fakeToken)
	b.committed = append(b.committed, tok.id)
	return nil
}

func (b *fakeBus) Close() error { return nil }

// fakeStore implements DocStore. Only CreateUserBookmark/DeleteUserBookmark
// are exercised by these tests; the rest satisfy the interface with
// behaviour good enough that an accidental dispatch to them fails loudly.
type fakeStore struct {
	mu        sync.Mutex
	bookmarks map[string]bool
	failNext  bool
	calls     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{bookmarks: map[string]bool{}}
}

func (s *fakeStore) key(filmID, userID uuid.UUID) string { return filmID.String() + "/" + userID.String() }

func (s *fakeStore) CreateFilmUserRating(ctx context.Context, filmID, userID uuid.UUID, value int, now time.Time) error {
	return errors.New("unexpected call: CreateFilmUserRating")
}
func (s *fakeStore) UpdateFilmUserRating(ctx context.Context, filmID, userID uuid.UUID, newValue int, now time.Time) (int, error) {
	return 0, errors.New("unexpected call: UpdateFilmUserRating")
}
func (s *fakeStore) DeleteFilmUserRating(ctx context.Context, filmID, userID uuid.UUID) (int, error) {
	return 0, errors.New("unexpected call: DeleteFilmUserRating")
}
func (s *fakeStore) ApplyFilmRatingDelta(ctx context.Context, filmID uuid.UUID, op ugcstore.DeltaOp, oldValue, newValue *int) error {
	return errors.New("unexpected call: ApplyFilmRatingDelta")
}
func (s *fakeStore) CreateFilmReview(ctx context.Context, reviewID, filmID, userID uuid.UUID, value string, now time.Time) error {
	return errors.New("unexpected call: CreateFilmReview")
}
func (s *fakeStore) UpdateFilmReview(ctx context.Context, reviewID uuid.UUID, value string, now time.Time) error {
	return errors.New("unexpected call: UpdateFilmReview")
}
func (s *fakeStore) DeleteFilmReviewCascade(ctx context.Context, reviewID uuid.UUID) error {
	return errors.New("unexpected call: DeleteFilmReviewCascade")
}
func (s *fakeStore) CreateFilmReviewUserRating(ctx context.Context, reviewID, userID uuid.UUID, value int, now time.Time) error {
	return errors.New("unexpected call: CreateFilmReviewUserRating")
}
func (s *fakeStore) UpdateFilmReviewUserRating(ctx context.Context, reviewID, userID uuid.UUID, newValue int, now time.Time) (int, error) {
	return 0, errors.New("unexpected call: UpdateFilmReviewUserRating")
}
func (s *fakeStore) DeleteFilmReviewUserRating(ctx context.Context, reviewID, userID uuid.UUID) (int, error) {
	return 0, errors.New("unexpected call: DeleteFilmReviewUserRating")
}
func (s *fakeStore) ApplyFilmReviewRatingDelta(ctx context.Context, reviewID uuid.UUID, op ugcstore.DeltaOp, oldValue, newValue *int) error {
	return errors.New("unexpected call: ApplyFilmReviewRatingDelta")
}

func (s *fakeStore) CreateUserBookmark(ctx context.Context, filmID, userID uuid.UUID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failNext {
		s.failNext = false
		return errors.New("create bookmark failed")
	}
	s.bookmarks[s.key(filmID, userID)] = true
	return nil
}

func (s *fakeStore) DeleteUserBookmark(ctx context.Context, filmID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	k := s.key(filmID, userID)
	if !s.bookmarks[k] {
		return ugcstore.ErrNotFound
	}
	delete(s.bookmarks, k)
	return nil
}

func newBookmarkMessage(t *testing.T, subtype events.EventSubtype) bus.Message {
	t.Helper()
	env := events.New(events.EventTypeCustom)
	env.RequestID = uuid.New()
	env.SessionID = uuid.New()
	env.UserID = uuid.New()
	env.URL = "https://example.test/film/1"
	env.EventSubtype = subtype
	payload, err := json.Marshal(events.BookmarkPayload{FilmID: uuid.New()})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	env.Payload = payload
	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return bus.Message{Key: env.EventID.String(), Value: raw, Topic: string(events.EventTypeCustom)}
}

func testConfig() Config {
	return Config{
		Backend:            "log",
		ConsumerGroup:      "etl_nosql",
		BatchSize:          10,
		MinBatchBeforeLoad: 2,
		PollTimeout:        5 * time.Millisecond,
		BackoffInitial:     1 * time.Millisecond,
		BackoffMax:         5 * time.Millisecond,
	}
}

func TestLoop_GuardWithholdsUndersizedBatch(t *testing.T) {
	fb := &fakeBus{batches: []bus.Batch{{newBookmarkMessage(t, events.SubtypeCreateBookmark)}}}
	fs := newFakeStore()
	loop := New(testConfig(), fb, fs)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	loop.Serve(ctx)

	if fs.calls != 0 {
		t.Fatalf("expected no dispatch below min_batch_before_load, got %d calls", fs.calls)
	}
}

func TestLoop_ProcessesAndCommitsOnceMinBatchReached(t *testing.T) {
	fb := &fakeBus{batches: []bus.Batch{
		{newBookmarkMessage(t, events.SubtypeCreateBookmark)},
		{newBookmarkMessage(t, events.SubtypeCreateBookmark)},
	}}
	fs := newFakeStore()
	loop := New(testConfig(), fb, fs)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	loop.Serve(ctx)

	if fs.calls != 2 {
		t.Fatalf("expected 2 dispatched operations, got %d", fs.calls)
	}
	if len(fb.committed) != 2 {
		t.Fatalf("expected both poll tokens committed, got %v", fb.committed)
	}
}

func TestLoop_RetriesWholeBatchOnTechnicalFailure(t *testing.T) {
	fb := &fakeBus{batches: []bus.Batch{
		{newBookmarkMessage(t, events.SubtypeCreateBookmark)},
		{newBookmarkMessage(t, events.SubtypeCreateBookmark)},
	}}
	fs := newFakeStore()
	fs.failNext = true
	loop := New(testConfig(), fb, fs)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	loop.Serve(ctx)

	if len(fb.committed) != 2 {
		t.Fatalf("expected batch committed after retry succeeded, got %v", fb.committed)
	}
	if fs.calls < 3 {
		t.Fatalf("expected at least one retried attempt (>=3 calls), got %d", fs.calls)
	}
}
