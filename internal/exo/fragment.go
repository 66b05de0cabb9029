// Package exo models AviUtl extended-edit object (.exo) fragments and encodes
// them in the editor's Shift-JIS INI dialect.
package exo

import (
	"errors"
	"fmt"
)

// Layer is one timeline object.
type Layer struct {
	Begin      int
	End        int
	Layer      int
	Group      int
	Audio      bool
	Clipping   bool
	Components []Component
}

// Fragment is a project fragment: canvas, timing and its layers.
type Fragment struct {
	Width           int
	Height          int
	Length          int
	FPSBase         int
	FPSScale        int
	AudioSampleRate int
	AudioChannels   int
	Layers          []Layer
}

// Validate checks the invariants the editor relies on.
func (f Fragment) Validate() error {
	if f.FPSScale <= 0 || f.FPSBase <= 0 {
		return errors.New("frame rate must be positive")
	}
	if f.Width <= 0 || f.Height <= 0 {
		return errors.New("canvas size must be positive")
	}
	for i, l := range f.Layers {
		if l.Begin < 1 || l.Begin > l.End {
			return fmt.Errorf("layer %d: invalid range %d-%d", i, l.Begin, l.End)
		}
		if l.End > f.Length {
			return fmt.Errorf("layer %d: end %d exceeds length %d", i, l.End, f.Length)
		}
		if len(l.Components) == 0 {
			return fmt.Errorf("layer %d: no components", i)
		}
	}
	return nil
}

// MaxEnd is the last frame used by any layer.
func (f Fragment) MaxEnd() int {
	end := 0
	for _, l := range f.Layers {
		if l.End > end {
			end = l.End
		}
	}
	return end
}
