package timeline_test

import (
	"context"
	"errors"
	"testing"

	"talkclip/internal/timeline"
)

const processName = "YukkuriMovieMaker_v3"

func TestAttachReachesControlsReady(t *testing.T) {
	tl := newTool()
	s := timeline.NewSession(tl.desktop(), processName)
	if err := s.Attach(context.Background()); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if s.State() != timeline.ControlsReady {
		t.Fatalf("expected controls_ready, got %s", s.State())
	}
}

func TestAttachFindsUndockedTimelineWindow(t *testing.T) {
	tl := newTool()
	tl.undock()
	s := timeline.NewSession(tl.desktop(), processName)
	if err := s.Attach(context.Background()); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if s.State() != timeline.ControlsReady {
		t.Fatalf("expected controls_ready, got %s", s.State())
	}
}

func TestAttachNotRunning(t *testing.T) {
	tests := []struct {
		name    string
		desktop func() *fakeDesktop
		state   timeline.State
	}{
		{
			name:    "process missing",
			desktop: func() *fakeDesktop { return &fakeDesktop{} },
			state:   timeline.NotAttached,
		},
		{
			name: "never idle",
			desktop: func() *fakeDesktop {
				tl := newTool()
				tl.proc.idle = false
				return tl.desktop()
			},
			state: timeline.ProcessFound,
		},
		{
			name: "main window missing",
			desktop: func() *fakeDesktop {
				tl := newTool()
				tl.proc.main = nil
				return tl.desktop()
			},
			state: timeline.InputIdleConfirmed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := timeline.NewSessionWithIdle(tt.desktop(), processName, 3, 0)
			err := s.Attach(context.Background())
			if !errors.Is(err, timeline.ErrNotRunning) {
				t.Fatalf("expected ErrNotRunning, got %v", err)
			}
			if s.State() != tt.state {
				t.Fatalf("expected state %s, got %s", tt.state, s.State())
			}
		})
	}
}

func TestAttachPollsInputIdle(t *testing.T) {
	tl := newTool()
	tl.proc.idle = false
	s := timeline.NewSessionWithIdle(tl.desktop(), processName, 4, 0)
	_ = s.Attach(context.Background())
	if tl.proc.idleHits != 4 {
		t.Fatalf("expected 4 idle polls, got %d", tl.proc.idleHits)
	}
}

func TestAttachWarnings(t *testing.T) {
	probe := &fakeDesktop{err: errors.New("bridge exploded")}
	err := timeline.NewSession(probe, processName).Attach(context.Background())
	var w *timeline.Warning
	if !errors.As(err, &w) || w.Retryable {
		t.Fatalf("expected non-retryable warning for probe error, got %v", err)
	}

	noWindow := newTool()
	noWindow.main.children = nil
	err = timeline.NewSession(noWindow.desktop(), processName).Attach(context.Background())
	if !errors.As(err, &w) || w.Retryable {
		t.Fatalf("expected non-retryable warning for missing window, got %v", err)
	}

	noControls := newTool()
	noControls.control.children = noControls.control.children[:2]
	s := timeline.NewSession(noControls.desktop(), processName)
	err = s.Attach(context.Background())
	if !timeline.IsRetryable(err) {
		t.Fatalf("expected retryable warning for missing add button, got %v", err)
	}
	if s.State() != timeline.TimelineWindowFound {
		t.Fatalf("expected timeline_window_found, got %s", s.State())
	}
	if !errors.Is(err, timeline.ErrElementNotFound) {
		t.Fatalf("expected wrapped ErrElementNotFound, got %v", err)
	}
}

func TestSelectCharacter(t *testing.T) {
	tl := newTool()
	s := timeline.NewSession(tl.desktop(), processName)
	ctx := context.Background()
	if err := s.Attach(ctx); err != nil {
		t.Fatal(err)
	}
	found, err := s.SelectCharacter(ctx, "まりさ")
	if err != nil || !found {
		t.Fatalf("expected selection, got found=%v err=%v", found, err)
	}
	if got := tl.items[1].Calls(); len(got) != 1 || got[0] != "select" {
		t.Fatalf("expected second item selected, got %v", got)
	}
	if got := tl.combo.Calls(); len(got) != 2 || got[0] != "expand" || got[1] != "collapse" {
		t.Fatalf("expected expand then collapse, got %v", got)
	}

	found, err = s.SelectCharacter(ctx, "ゆっくり")
	if err != nil || found {
		t.Fatalf("expected not found without error, got found=%v err=%v", found, err)
	}
}

func TestActionsRequireAttach(t *testing.T) {
	s := timeline.NewSession(newTool().desktop(), processName)
	if err := s.SetSpeechText(context.Background(), "x"); !errors.Is(err, timeline.ErrElementNotFound) {
		t.Fatalf("expected ErrElementNotFound before attach, got %v", err)
	}
	if err := s.ClickAdd(context.Background()); !errors.Is(err, timeline.ErrElementNotFound) {
		t.Fatalf("expected ErrElementNotFound before attach, got %v", err)
	}
}

func TestResetReturnsFreshSession(t *testing.T) {
	tl := newTool()
	s := timeline.NewSession(tl.desktop(), processName)
	if err := s.Attach(context.Background()); err != nil {
		t.Fatal(err)
	}
	fresh := s.Reset()
	if fresh == s || fresh.State() != timeline.NotAttached {
		t.Fatalf("expected a new unattached session, got %s", fresh.State())
	}
	if s.State() != timeline.ControlsReady {
		t.Fatalf("reset must not touch the old session")
	}
}
