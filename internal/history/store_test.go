package history_test

import (
	"context"
	"testing"
	"time"

	"talkclip/internal/history"
	"talkclip/internal/status"
	"talkclip/internal/testsupport"
)

func TestRecordAndList(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.NewHistory(t, cfg)
	ctx := context.Background()

	start := time.Date(2026, 10, 18, 9, 30, 0, 123, time.UTC)
	first := history.Entry{
		AttemptID:  "a-1",
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
		Character:  "akane",
		Text:       "おはようございます",
		AudioPath:  "/clips/one.wav",
		Report:     status.Report{Kind: status.KindSuccess, Message: "Saved one.wav", SubKind: status.KindWarning, SubMessage: "timeline not open"},
	}
	second := history.Entry{
		AttemptID:  "a-2",
		StartedAt:  start.Add(time.Minute),
		FinishedAt: start.Add(time.Minute),
		Report:     status.Fail("The speech host is not running.", status.KindNone, ""),
	}
	for _, e := range []history.Entry{first, second} {
		if _, err := store.Record(ctx, e); err != nil {
			t.Fatalf("record %s: %v", e.AttemptID, err)
		}
	}

	entries, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].AttemptID != "a-2" || entries[1].AttemptID != "a-1" {
		t.Fatalf("expected newest first, got %s then %s", entries[0].AttemptID, entries[1].AttemptID)
	}
	got := entries[1]
	if !got.StartedAt.Equal(first.StartedAt) || !got.FinishedAt.Equal(first.FinishedAt) {
		t.Fatalf("times not preserved: %v %v", got.StartedAt, got.FinishedAt)
	}
	if got.Text != first.Text || got.Character != "akane" || got.AudioPath != "/clips/one.wav" {
		t.Fatalf("fields not preserved: %+v", got)
	}
	if got.Report.Kind != status.KindSuccess || got.Report.SubKind != status.KindWarning || got.Report.SubMessage != "timeline not open" {
		t.Fatalf("report not preserved: %+v", got.Report)
	}
	if entries[0].Report.Kind != status.KindFail {
		t.Fatalf("expected failure report, got %+v", entries[0].Report)
	}

	limited, err := store.List(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("expected one entry with limit, got %d %v", len(limited), err)
	}
}

func TestRecordRejectsDuplicateAttempt(t *testing.T) {
	store := testsupport.NewHistory(t, testsupport.NewConfig(t))
	e := history.Entry{AttemptID: "dup", Report: status.Report{Kind: status.KindSuccess}}
	if _, err := store.Record(context.Background(), e); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Record(context.Background(), e); err == nil {
		t.Fatal("expected unique constraint error")
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Record(context.Background(), history.Entry{AttemptID: "keep", Report: status.Report{Kind: status.KindSuccess}}); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened := testsupport.NewHistory(t, cfg)
	entries, err := reopened.List(context.Background(), 10)
	if err != nil || len(entries) != 1 || entries[0].AttemptID != "keep" {
		t.Fatalf("expected persisted entry, got %+v %v", entries, err)
	}
}
