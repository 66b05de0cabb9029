package pathresolve_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"talkclip/internal/pathresolve"
)

func newResolver() pathresolve.Resolver {
	return pathresolve.Resolver{
		Template: "{character}_{text}",
		Now:      func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	}
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
}

func assertFree(t *testing.T, stem string, segmenting bool) {
	t.Helper()
	for _, ext := range pathresolve.Extensions {
		if _, err := os.Stat(stem + ext); err == nil {
			t.Fatalf("%s%s already exists", stem, ext)
		}
	}
	if !segmenting {
		return
	}
	entries, err := os.ReadDir(filepath.Dir(stem))
	if err != nil {
		t.Fatal(err)
	}
	pattern := pathresolve.SegmentPattern(filepath.Base(stem))
	for _, e := range entries {
		if pattern.MatchString(e.Name()) {
			t.Fatalf("segment %s collides with %s", e.Name(), stem)
		}
	}
}

func TestResolveReturnsBaseWhenFree(t *testing.T) {
	dir := t.TempDir()
	got, err := newResolver().Resolve(context.Background(), pathresolve.Request{Dir: dir, Character: "akane", Text: "hello"})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != filepath.Join(dir, "akane_hello") {
		t.Fatalf("unexpected stem %q", got)
	}
}

func TestResolveAppendsCounterForEachExtension(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		want     string
	}{
		{"wav", []string{"akane_hello.wav"}, "akane_hello[1]"},
		{"txt", []string{"akane_hello.txt"}, "akane_hello[1]"},
		{"exo upper case", []string{"AKANE_HELLO.EXO"}, "akane_hello[1]"},
		{"chain", []string{"akane_hello.wav", "akane_hello[1].txt", "akane_hello[2].exo"}, "akane_hello[3]"},
		{"unrelated", []string{"akane_hello.mp3", "akane_hello-1.wav"}, "akane_hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			touch(t, dir, tt.existing...)
			got, err := newResolver().Resolve(context.Background(), pathresolve.Request{Dir: dir, Character: "akane", Text: "hello"})
			if err != nil {
				t.Fatalf("Resolve returned error: %v", err)
			}
			if got != filepath.Join(dir, tt.want) {
				t.Fatalf("got %q want %q", filepath.Base(got), tt.want)
			}
			assertFree(t, got, false)
		})
	}
}

func TestResolveChecksSegmentsForSegmentingHosts(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "akane_hello-1.wav", "akane_hello-12.TXT", "akane_hello[1]-3.wav")
	got, err := newResolver().Resolve(context.Background(), pathresolve.Request{
		Dir: dir, Character: "akane", Text: "hello", Segmenting: true,
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if filepath.Base(got) != "akane_hello[2]" {
		t.Fatalf("unexpected stem %q", filepath.Base(got))
	}
	assertFree(t, got, true)
}

func TestResolveIgnoresNonNumericSegments(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "akane_hello-a.wav", "akane_hello-1.exo")
	got, err := newResolver().Resolve(context.Background(), pathresolve.Request{
		Dir: dir, Character: "akane", Text: "hello", Segmenting: true,
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if filepath.Base(got) != "akane_hello" {
		t.Fatalf("unexpected stem %q", filepath.Base(got))
	}
}

func TestResolveStopsOnCancelledContext(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "akane_hello.wav")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newResolver().Resolve(ctx, pathresolve.Request{Dir: dir, Character: "akane", Text: "hello"}); err == nil {
		t.Fatal("expected context error")
	}
}
