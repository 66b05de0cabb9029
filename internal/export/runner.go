package export

import (
	"context"
	"log/slog"

	"talkclip/internal/exportlock"
	"talkclip/internal/history"
	"talkclip/internal/logging"
)

// Runner admits one export at a time and journals each finished attempt.
type Runner struct {
	Gate         *exportlock.Gate
	History      *history.Store
	Orchestrator *Orchestrator
	Logger       *slog.Logger
}

// Run executes req, or returns exportlock.ErrBusy without side effects when
// another export is in flight.
func (r *Runner) Run(ctx context.Context, req Request) (Outcome, error) {
	if r.Gate != nil {
		release, err := r.Gate.Acquire()
		if err != nil {
			return Outcome{}, err
		}
		defer release()
	}

	out := r.Orchestrator.Export(ctx, req)
	if r.History != nil {
		if _, err := r.History.Record(ctx, history.Entry{
			AttemptID:  out.AttemptID,
			StartedAt:  out.StartedAt,
			FinishedAt: out.FinishedAt,
			Character:  out.Character,
			Text:       out.Text,
			AudioPath:  out.AudioPath,
			Report:     out.Report,
		}); err != nil {
			logging.WarnWithContext(r.logger(), "export not journaled", "history_failed",
				logging.String(logging.FieldAttemptID, out.AttemptID),
				logging.String(logging.FieldErrorHint, "check the state directory"),
				logging.String(logging.FieldImpact, "attempt missing from history"),
				logging.Error(err),
			)
		}
	}
	return out, nil
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return logging.NewNop()
	}
	return r.Logger
}
