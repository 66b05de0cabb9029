// Package host abstracts the speech engine that produces the audio file.
package host

import (
	"context"
	"errors"
)

// ErrNoText is returned by TalkText when the host holds no text.
var ErrNoText = errors.New("host has no text")

// SaveResult is the outcome of one Save.
type SaveResult struct {
	Succeeded bool
	// FilePath is the audio file actually written. Segmenting hosts may
	// write "<base>-N.wav" instead of the requested path.
	FilePath     string
	Error        string
	ExtraMessage string
}

// Host is a speech engine able to save the current text as audio.
type Host interface {
	CharacterID() string
	CharacterName() string
	IsRunning() bool
	IsSaving() bool
	IsDialogShowing() bool
	CanSaveBlankText() bool
	TalkText(ctx context.Context) (string, error)
	SetTalkText(ctx context.Context, text string) bool
	Save(ctx context.Context, path string) SaveResult
}

// SegmentingHost may split one save into numbered files and speaks with a
// named voice preset.
type SegmentingHost interface {
	Host
	VoicePresetName(ctx context.Context) (string, error)
}
