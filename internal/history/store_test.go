package history_test

import (
	"context"
	"testing"
	"time"

	"clippub/internal/history"
	"clippub/internal/testsupport"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndList(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first := history.Record{
		ID:          "job-1",
		Account:     "demo",
		Description: "first clip #funny",
		Schedule:    "2026-09-01T10:00",
		Outcome:     history.OutcomePublished,
		SessionID:   "sess-1",
		SubmittedAt: now.Add(-3 * time.Minute),
		FinishedAt:  now.Add(-2 * time.Minute),
	}
	second := history.Record{
		ID:          "job-2",
		Account:     "demo",
		Outcome:     history.OutcomeFailed,
		ErrorClass:  "driver_error",
		Detail:      "post button missing",
		SubmittedAt: now.Add(-time.Minute),
		FinishedAt:  now,
	}
	if err := store.Record(ctx, first); err != nil {
		t.Fatalf("record first: %v", err)
	}
	if err := store.Record(ctx, second); err != nil {
		t.Fatalf("record second: %v", err)
	}

	records, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0].ID != "job-2" {
		t.Fatalf("records[0].ID = %q, want newest first", records[0].ID)
	}
	if records[0].ErrorClass != "driver_error" {
		t.Fatalf("ErrorClass = %q", records[0].ErrorClass)
	}
	if records[1].Description != "first clip #funny" {
		t.Fatalf("Description = %q", records[1].Description)
	}
	if records[1].Schedule != "2026-09-01T10:00" {
		t.Fatalf("Schedule = %q", records[1].Schedule)
	}
}

func TestListHonorsLimit(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i, id := range []string{"a", "b", "c"} {
		rec := history.Record{
			ID:          id,
			Account:     "demo",
			Outcome:     history.OutcomePublished,
			SubmittedAt: now.Add(time.Duration(i) * time.Second),
			FinishedAt:  now.Add(time.Duration(i+1) * time.Second),
		}
		if err := store.Record(ctx, rec); err != nil {
			t.Fatalf("record %s: %v", id, err)
		}
	}

	records, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
}

func TestRecordRequiresIDAndOutcome(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.Record(ctx, history.Record{Outcome: history.OutcomePublished}); err == nil {
		t.Fatal("record without id succeeded")
	}
	if err := store.Record(ctx, history.Record{ID: "job-1"}); err == nil {
		t.Fatal("record without outcome succeeded")
	}
}

func TestPruneRemovesOldRecords(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	old := history.Record{
		ID:          "old",
		Account:     "demo",
		Outcome:     history.OutcomePublished,
		SubmittedAt: now.AddDate(0, 0, -40),
		FinishedAt:  now.AddDate(0, 0, -40),
	}
	fresh := history.Record{
		ID:          "fresh",
		Account:     "demo",
		Outcome:     history.OutcomePublished,
		SubmittedAt: now,
		FinishedAt:  now,
	}
	if err := store.Record(ctx, old); err != nil {
		t.Fatalf("record old: %v", err)
	}
	if err := store.Record(ctx, fresh); err != nil {
		t.Fatalf("record fresh: %v", err)
	}

	removed, err := store.Prune(ctx, 30)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	records, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0].ID != "fresh" {
		t.Fatalf("records after prune = %+v", records)
	}
}

func TestPruneDisabledByNonPositiveRetention(t *testing.T) {
	store := openStore(t)
	removed, err := store.Prune(context.Background(), 0)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 0 {
		t.Fatalf("removed = %d, want 0", removed)
	}
}
