// Package fragment builds the project fragment for a saved clip: two layers
// (caption and audio) sized from the measured audio length.
package fragment

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"talkclip/internal/config"
	"talkclip/internal/exo"
	"talkclip/internal/logging"
	"talkclip/internal/services"
	"talkclip/internal/wave"
)

const (
	textLayer  = 1
	audioLayer = 2
)

// Settings are the common project settings of a fragment.
type Settings struct {
	Width           int
	Height          int
	FPS             float64
	ExtraFrames     int
	AudioSampleRate int
	AudioChannels   int
	Grouping        bool
	Rounding        Rounding
}

// SettingsFromConfig converts the [fragment] section.
func SettingsFromConfig(c config.Fragment) (Settings, error) {
	rounding, err := ParseRounding(c.Rounding)
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Width:           c.Width,
		Height:          c.Height,
		FPS:             c.FPS,
		ExtraFrames:     c.ExtraFrames,
		AudioSampleRate: c.AudioSampleRate,
		AudioChannels:   c.AudioChannels,
		Grouping:        c.Grouping,
		Rounding:        rounding,
	}, nil
}

// WithFPS returns s at a new frame rate with extra frames rescaled so they
// cover the same time, rounded half up.
func (s Settings) WithFPS(fps float64) Settings {
	if s.FPS > 0 && fps > 0 && fps != s.FPS {
		s.ExtraFrames = int(math.Floor(float64(s.ExtraFrames)*fps/s.FPS + 0.5))
	}
	s.FPS = fps
	return s
}

// Style is the per-character look of the fragment.
type Style struct {
	PlaySpeed float64
	Clipping  bool
	Layer     int
	Text      exo.TextComponent
	Render    exo.RenderComponent
	Playback  exo.PlaybackComponent
}

// StyleFromConfig converts a configured character.
func StyleFromConfig(ch config.Character) Style {
	text := exo.NewTextComponent()
	text.Size = exo.Fixed(ch.Text.Size, 0)
	text.Font = ch.Text.Font
	text.Color = ch.Text.Color
	text.EdgeColor = ch.Text.EdgeColor
	text.Decorate = ch.Text.Decorate
	text.Align = ch.Text.Align
	text.Bold = ch.Text.Bold
	text.Italic = ch.Text.Italic
	text.SpacingX = ch.Text.SpacingX
	text.SpacingY = ch.Text.SpacingY

	render := exo.NewRenderComponent()
	xEnd, yEnd, zEnd := ch.Render.Ends()
	render.X = exo.Coordinate{Begin: ch.Render.X, End: xEnd}
	render.Y = exo.Coordinate{Begin: ch.Render.Y, End: yEnd}
	render.Z = exo.Coordinate{Begin: ch.Render.Z, End: zEnd}
	if mode := ch.Render.Movement.ModeIndex(); mode > 0 {
		render.SetMovement(exo.Movement{
			Mode:         exo.MoveMode(mode),
			Accelerating: ch.Render.Movement.Accelerate,
			Decelerating: ch.Render.Movement.Decelerate,
			Interval:     ch.Render.Movement.Interval,
		})
	}
	render.Scale = exo.Fixed(ch.Render.Scale, 2)
	render.Transparency = exo.Fixed(ch.Render.Transparency, 1)
	render.Rotation = exo.Fixed(ch.Render.Rotation, 2)
	render.Blend = exo.BlendMode(ch.Render.Blend)

	playback := exo.NewPlaybackComponent()
	playback.Volume = exo.Fixed(ch.Volume, 1)
	playback.Pan = exo.Fixed(ch.Pan, 1)

	return Style{
		PlaySpeed: ch.PlaySpeed,
		Clipping:  ch.Clipping,
		Layer:     ch.Layer,
		Text:      *text,
		Render:    *render,
		Playback:  *playback,
	}
}

// Input is everything needed to build a fragment.
type Input struct {
	AudioPath string
	Ticks     int64
	Text      string
	Style     Style
	Settings  Settings
}

// Build computes frames and assembles the two layers. It returns the
// fragment and the audio frame count.
func Build(in Input) (exo.Fragment, int, error) {
	playSpeed := in.Style.PlaySpeed
	if playSpeed == 0 {
		playSpeed = 100
	}
	frames, err := FrameCount(in.Ticks, in.Settings.FPS, playSpeed, in.Settings.Rounding)
	if err != nil {
		return exo.Fragment{}, 0, err
	}
	if frames < 1 {
		frames = 1
	}
	base, scale, err := FPSRatio(in.Settings.FPS)
	if err != nil {
		return exo.Fragment{}, 0, err
	}
	extra := max(in.Settings.ExtraFrames, 0)
	length := frames + extra

	text := in.Style.Text
	text.Text = in.Text
	render := in.Style.Render
	group := 0
	if in.Settings.Grouping {
		group = 1
	}
	audio := exo.NewAudioFileComponent(in.AudioPath, playSpeed)
	playback := in.Style.Playback

	f := exo.Fragment{
		Width:           in.Settings.Width,
		Height:          in.Settings.Height,
		Length:          length,
		FPSBase:         base,
		FPSScale:        scale,
		AudioSampleRate: in.Settings.AudioSampleRate,
		AudioChannels:   in.Settings.AudioChannels,
		Layers: []exo.Layer{
			{
				Begin:      1,
				End:        length,
				Layer:      textLayer,
				Group:      group,
				Clipping:   in.Style.Clipping,
				Components: []exo.Component{&text, &render},
			},
			{
				Begin:      1,
				End:        frames,
				Layer:      audioLayer,
				Group:      group,
				Audio:      true,
				Components: []exo.Component{audio, &playback},
			},
		},
	}
	return f, frames, nil
}

// Request asks the Builder to write a fragment file.
type Request struct {
	AudioPath    string
	FragmentPath string
	Text         string
	Style        Style
	Settings     Settings
}

// Result describes a written fragment.
type Result struct {
	Path   string
	Frames int
	Length int
}

// Builder measures audio, builds the fragment and writes it.
type Builder struct {
	Measure func(path string) (time.Duration, error)
	Logger  *slog.Logger
}

// NewBuilder measures WAV files.
func NewBuilder(logger *slog.Logger) Builder {
	return Builder{Measure: wave.Duration, Logger: logger}
}

// Write produces req.FragmentPath. Any failure leaves no fragment file behind.
func (b Builder) Write(ctx context.Context, req Request) (Result, error) {
	measure := b.Measure
	if measure == nil {
		measure = wave.Duration
	}
	length, err := measure(req.AudioPath)
	if err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "fragment", "measure audio", req.AudioPath, err)
	}
	f, frames, err := Build(Input{
		AudioPath: req.AudioPath,
		Ticks:     int64(length / 100),
		Text:      req.Text,
		Style:     req.Style,
		Settings:  req.Settings,
	})
	if err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "fragment", "build", "", err)
	}
	if err := exo.WriteFile(req.FragmentPath, f); err != nil {
		return Result{}, services.Wrap(services.ErrTransient, "fragment", "write", req.FragmentPath, err)
	}
	logging.WithContext(ctx, b.Logger).Debug("fragment written",
		logging.String("path", req.FragmentPath),
		logging.Int("frames", frames),
		logging.Int("length", f.Length),
		logging.String("rounding", req.Settings.Rounding.String()),
	)
	return Result{Path: req.FragmentPath, Frames: frames, Length: f.Length}, nil
}

// String is used in log lines.
func (s Settings) String() string {
	return fmt.Sprintf("%dx%d@%v extra=%d audio=%dHz/%dch", s.Width, s.Height, s.FPS, s.ExtraFrames, s.AudioSampleRate, s.AudioChannels)
}
