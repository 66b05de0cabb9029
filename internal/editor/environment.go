package editor

import (
	"context"
	"log/slog"
	"time"

	"talkclip/internal/fragment"
	"talkclip/internal/logging"
)

// Environment syncs fragment settings from the editor and hands fragments to it.
type Environment struct {
	Service     Service
	Processes   ProcessChecker
	ProcessName string
	DropTimeout time.Duration
	Logger      *slog.Logger
}

// Sync replaces canvas, frame rate and audio settings with the editor's
// current project. Only Success changes s; extra frames are rescaled to keep
// their duration.
func (e Environment) Sync(ctx context.Context, s fragment.Settings) (fragment.Settings, Result) {
	info, res := e.Service.Query(ctx)
	if res != Success {
		return s, res
	}
	if !info.WindowOpened {
		return s, WindowNotFound
	}
	if !info.ProjectOpened {
		return s, ProjectNotFound
	}

	out := s
	if info.FPS > 0 {
		out = out.WithFPS(info.FPS)
	}
	out.Width = info.Width
	out.Height = info.Height
	if info.AudioSampleRate > 0 {
		out.AudioSampleRate = info.AudioSampleRate
	}
	if info.AudioChannels > 0 {
		out.AudioChannels = info.AudioChannels
	}
	logging.WithContext(ctx, e.Logger).Debug("editor settings applied",
		logging.String("before", s.String()),
		logging.String("after", out.String()),
	)
	return out, Success
}

// Handoff drops the fragment at path onto layer.
func (e Environment) Handoff(ctx context.Context, path string, frames, layer int) Result {
	timeout := e.DropTimeout
	if timeout <= 0 {
		timeout = DropTimeout
	}
	return e.Service.Drop(ctx, path, frames, layer, timeout)
}

// Warning returns the message to surface for r, or "" when there is nothing
// to report. A missing helper while the editor itself is not running is not
// worth a warning.
func (e Environment) Warning(r Result) string {
	if r == Success {
		return ""
	}
	if r == FileMappingFail && !e.editorRunning() {
		return ""
	}
	return r.Reason()
}

func (e Environment) editorRunning() bool {
	if e.Processes == nil {
		return true
	}
	return e.Processes.Running(e.ProcessName)
}
