// Package editor talks to the video editor: it reads its live project
// settings and drops fragments onto its timeline.
package editor

import (
	"context"
	"time"
)

// DropTimeout is the default bound on a drop round trip.
const DropTimeout = 3000 * time.Millisecond

// Info is the editor state published by the drop helper.
type Info struct {
	WindowOpened    bool
	ProjectOpened   bool
	Width           int
	Height          int
	FPS             float64
	AudioSampleRate int
	AudioChannels   int
	APIVersion      int
	ProjectPath     string
}

// Service queries the editor and drops files onto it.
type Service interface {
	Query(ctx context.Context) (Info, Result)
	Drop(ctx context.Context, path string, frames, layer int, timeout time.Duration) Result
}

// ProcessChecker reports whether a named process runs.
type ProcessChecker interface {
	Running(name string) bool
}
