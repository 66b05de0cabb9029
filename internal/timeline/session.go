package timeline

import (
	"context"
	"errors"
	"time"
)

const (
	timelineTitlePrefix = "タイムライン"
	timelineControl     = "TimelineControl"
	speechEditID        = "SerifuTB"
	characterComboID    = "CharactersCB"
	addButtonName       = "追加"

	idlePolls    = 25
	idleInterval = 20 * time.Millisecond
)

// State is how far a Session got attaching to the tool.
type State int

const (
	NotAttached State = iota
	ProcessFound
	InputIdleConfirmed
	MainWindowFound
	TimelineWindowFound
	ControlsReady
)

func (s State) String() string {
	switch s {
	case ProcessFound:
		return "process_found"
	case InputIdleConfirmed:
		return "input_idle"
	case MainWindowFound:
		return "main_window_found"
	case TimelineWindowFound:
		return "timeline_window_found"
	case ControlsReady:
		return "controls_ready"
	default:
		return "not_attached"
	}
}

// ErrNotRunning means there is nothing to drive; it is not a warning.
var ErrNotRunning = errors.New("timeline tool is not running")

// Warning is a user-facing automation problem.
type Warning struct {
	Message   string
	Retryable bool
	Err       error
}

func (w *Warning) Error() string {
	if w.Err != nil {
		return w.Message + ": " + w.Err.Error()
	}
	return w.Message
}

func (w *Warning) Unwrap() error { return w.Err }

// IsRetryable reports whether err is a Warning worth another attempt.
func IsRetryable(err error) bool {
	var w *Warning
	return errors.As(err, &w) && w.Retryable
}

const (
	msgProbeFailed      = "Could not check the state of the timeline tool."
	msgNoTimelineWindow = "The timeline window of the timeline tool is not open."
	msgNoControls       = "Could not find the controls of the timeline window."
	msgSetTextFailed    = "Could not enter the file path in the timeline speech field."
	msgSelectFailed     = "Could not select the character in the timeline."
	msgAddFailed        = "Could not press the add button in the timeline."
)

// Session holds the handles of one attachment. It belongs to a single export
// attempt; Reset returns a fresh one instead of clearing this one.
type Session struct {
	desktop     Desktop
	processName string

	idlePolls    int
	idleInterval time.Duration

	state      State
	process    Process
	main       Element
	window     Element
	speech     Element
	characters Element
	add        Element
}

// NewSession returns an unattached session for processName.
func NewSession(d Desktop, processName string) *Session {
	return &Session{
		desktop:      d,
		processName:  processName,
		idlePolls:    idlePolls,
		idleInterval: idleInterval,
	}
}

// Reset returns a new unattached session for the same target.
func (s *Session) Reset() *Session {
	fresh := NewSession(s.desktop, s.processName)
	fresh.idlePolls = s.idlePolls
	fresh.idleInterval = s.idleInterval
	return fresh
}

// State reports how far Attach got.
func (s *Session) State() State { return s.state }

// Attach walks NotAttached to ControlsReady. It returns ErrNotRunning when
// the tool is absent, a non-retryable Warning when the check itself fails or
// the timeline window is closed, and a retryable Warning when the controls
// are not (yet) available.
func (s *Session) Attach(ctx context.Context) error {
	proc, err := s.desktop.FindProcess(ctx, s.processName)
	if err != nil {
		return s.probe(err)
	}
	s.process = proc
	s.state = ProcessFound

	idle, err := s.waitIdle(ctx)
	if err != nil {
		return s.probe(err)
	}
	if !idle {
		return ErrNotRunning
	}
	s.state = InputIdleConfirmed

	main, err := proc.MainWindow(ctx)
	if err != nil {
		if errors.Is(err, ErrElementNotFound) {
			return ErrNotRunning
		}
		return s.probe(err)
	}
	s.main = main
	s.state = MainWindowFound

	window, err := s.findTimelineWindow(ctx)
	if err != nil {
		if errors.Is(err, ErrElementNotFound) {
			return &Warning{Message: msgNoTimelineWindow}
		}
		return s.probe(err)
	}
	s.window = window
	s.state = TimelineWindowFound

	if err := s.findControls(ctx); err != nil {
		if errors.Is(err, ErrElementNotFound) {
			return &Warning{Message: msgNoControls, Retryable: true, Err: err}
		}
		return s.probe(err)
	}
	s.state = ControlsReady
	return nil
}

func (s *Session) probe(err error) error {
	if errors.Is(err, ErrProcessNotFound) {
		return ErrNotRunning
	}
	return &Warning{Message: msgProbeFailed, Err: err}
}

func (s *Session) waitIdle(ctx context.Context) (bool, error) {
	for i := 0; i < s.idlePolls; i++ {
		idle, err := s.process.InputIdle(ctx)
		if err != nil {
			return false, err
		}
		if idle {
			return true, nil
		}
		if i+1 < s.idlePolls {
			select {
			case <-time.After(s.idleInterval):
			case <-ctx.Done():
				return false, ctx.Err()
			}
		}
	}
	return false, nil
}

// findTimelineWindow looks among the main window's child windows first and
// then among the process's top-level windows.
func (s *Session) findTimelineWindow(ctx context.Context) (Element, error) {
	conds := []Condition{
		{Property: PropControlType, Value: ControlWindow},
		{Property: PropName, Value: timelineTitlePrefix, Prefix: true},
	}
	window, err := s.main.FindChild(ctx, conds...)
	if err == nil {
		return window, nil
	}
	if !errors.Is(err, ErrElementNotFound) {
		return nil, err
	}
	return s.process.TopLevelWindow(ctx, Condition{Property: PropName, Value: timelineTitlePrefix, Prefix: true})
}

func (s *Session) findControls(ctx context.Context) error {
	ctrl, err := s.window.FindChild(ctx, Condition{Property: PropClassName, Value: timelineControl})
	if err != nil {
		return err
	}
	speech, err := ctrl.FindChild(ctx, Condition{Property: PropAutomationID, Value: speechEditID})
	if err != nil {
		return err
	}
	characters, err := ctrl.FindChild(ctx, Condition{Property: PropAutomationID, Value: characterComboID})
	if err != nil {
		return err
	}
	add, err := ctrl.FindChild(ctx, Condition{Property: PropName, Value: addButtonName})
	if err != nil {
		return err
	}
	s.speech, s.characters, s.add = speech, characters, add
	return nil
}

// SetSpeechText writes value into the speech field.
func (s *Session) SetSpeechText(ctx context.Context, value string) error {
	if s.state != ControlsReady {
		return ErrElementNotFound
	}
	return s.speech.SetValue(ctx, value)
}

// SelectCharacter picks the combo item whose child is named name. The combo
// is opened and closed first so every item is realized. found is false when
// no item carries the name.
func (s *Session) SelectCharacter(ctx context.Context, name string) (found bool, err error) {
	if s.state != ControlsReady {
		return false, ErrElementNotFound
	}
	if err := s.characters.Expand(ctx); err != nil {
		return false, err
	}
	if err := s.characters.Collapse(ctx); err != nil {
		return false, err
	}
	items, err := s.characters.FindChildren(ctx, Condition{Property: PropControlType, Value: ControlListItem})
	if err != nil {
		return false, err
	}
	for _, item := range items {
		if _, err := item.FindChild(ctx, Condition{Property: PropName, Value: name}); err != nil {
			if errors.Is(err, ErrElementNotFound) {
				continue
			}
			return false, err
		}
		return true, item.Select(ctx)
	}
	return false, nil
}

// ClickAdd presses the add button.
func (s *Session) ClickAdd(ctx context.Context) error {
	if s.state != ControlsReady {
		return ErrElementNotFound
	}
	return s.add.Invoke(ctx)
}
