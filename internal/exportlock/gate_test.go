package exportlock_test

import (
	"errors"
	"path/filepath"
	"testing"

	"talkclip/internal/exportlock"
)

func TestGateRejectsSecondHolder(t *testing.T) {
	gate := exportlock.New(filepath.Join(t.TempDir(), "state", "export.lock"))
	release, err := gate.Acquire()
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := gate.Acquire(); !errors.Is(err, exportlock.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	release()
	release()

	again, err := gate.Acquire()
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	again()
}

func TestGateRejectsOtherProcessHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.lock")
	first := exportlock.New(path)
	second := exportlock.New(path)

	release, err := first.Acquire()
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer release()
	if _, err := second.Acquire(); !errors.Is(err, exportlock.ErrBusy) {
		t.Fatalf("expected ErrBusy from a separate lock handle, got %v", err)
	}
}
