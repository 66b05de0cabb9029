package timeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"talkclip/internal/config"
	"talkclip/internal/logging"
	"talkclip/internal/retry"
)

// Request describes one registration.
type Request struct {
	AudioPath       string
	Character       string
	SelectCharacter bool
	AddClip         bool
}

// Driver registers audio with retries, each retry on a fresh Session.
type Driver struct {
	Attempts int
	Delay    time.Duration
	Logger   *slog.Logger
}

// NewDriver builds a Driver from the timeline config section.
func NewDriver(cfg config.Timeline, logger *slog.Logger) Driver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return Driver{
		Attempts: cfg.MaxAttempts,
		Delay:    time.Duration(cfg.RetryDelayMS) * time.Millisecond,
		Logger:   logger,
	}
}

// Register runs the attach and action sequence. It returns the text of the
// last warning, or "" when the clip was registered or the tool is not running.
func (d Driver) Register(ctx context.Context, session *Session, req Request) string {
	logger := d.log()
	current := session
	policy := retry.Policy{MaxAttempts: d.Attempts, Delay: d.Delay, Retryable: IsRetryable}
	err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			current = current.Reset()
		}
		err := d.attempt(ctx, current, req)
		if err != nil && IsRetryable(err) {
			logger.Debug("timeline attempt failed",
				logging.Int("attempt", attempt),
				logging.String("state", current.State().String()),
				logging.Error(err),
			)
		}
		return err
	})

	var w *Warning
	switch {
	case err == nil:
		logger.Info("timeline clip registered",
			logging.String(logging.FieldEventType, "timeline_registered"),
			logging.String("audio_path", req.AudioPath),
		)
		return ""
	case errors.Is(err, ErrNotRunning):
		logger.Debug("timeline tool not running", logging.String(logging.FieldDecisionType, "timeline_skip"))
		return ""
	case errors.As(err, &w):
		logging.WarnWithContext(logger, "timeline registration failed", "timeline_failed",
			logging.String("state", current.State().String()),
			logging.String(logging.FieldErrorHint, "check that the timeline window is open"),
			logging.String(logging.FieldImpact, "clip not added to timeline"),
			logging.Error(err),
		)
		return w.Message
	default:
		logging.WarnWithContext(logger, "timeline registration aborted", "timeline_failed",
			logging.String(logging.FieldErrorHint, "export was cancelled"),
			logging.String(logging.FieldImpact, "clip not added to timeline"),
			logging.Error(err),
		)
		return msgProbeFailed
	}
}

func (d Driver) log() *slog.Logger {
	if d.Logger == nil {
		return logging.NewNop()
	}
	return d.Logger
}

func (d Driver) attempt(ctx context.Context, s *Session, req Request) error {
	if err := s.Attach(ctx); err != nil {
		return err
	}
	if err := s.SetSpeechText(ctx, req.AudioPath); err != nil {
		return &Warning{Message: msgSetTextFailed, Retryable: true, Err: err}
	}
	if req.SelectCharacter && req.Character != "" {
		found, err := s.SelectCharacter(ctx, req.Character)
		if err != nil {
			return &Warning{Message: msgSelectFailed, Retryable: true, Err: err}
		}
		if !found {
			d.log().Debug("timeline character not listed", logging.String("character", req.Character))
		}
	}
	if req.AddClip {
		if err := s.ClickAdd(ctx); err != nil {
			return &Warning{Message: msgAddFailed, Retryable: true, Err: err}
		}
	}
	return nil
}
