// Package export runs one speech-clip export from host checks to the final
// status report.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"talkclip/internal/config"
	"talkclip/internal/editor"
	"talkclip/internal/fragment"
	"talkclip/internal/host"
	"talkclip/internal/logging"
	"talkclip/internal/naming"
	"talkclip/internal/pathresolve"
	"talkclip/internal/services"
	"talkclip/internal/sidecar"
	"talkclip/internal/status"
	"talkclip/internal/timeline"
)

// Stage names used in logs and wrapped errors.
const (
	StagePreflight = "preflight"
	StageText      = "text"
	StagePath      = "path"
	StageSave      = "save"
	StageSidecar   = "sidecar"
	StageFragment  = "fragment"
	StageHandoff   = "handoff"
	StageTimeline  = "timeline"
)

// Outcome is the report of one attempt plus what the journal needs.
type Outcome struct {
	AttemptID  string
	StartedAt  time.Time
	FinishedAt time.Time
	Character  string
	Text       string
	AudioPath  string
	Report     status.Report
}

// Orchestrator holds the long-lived collaborators of the pipeline.
type Orchestrator struct {
	editor    editor.Service
	processes editor.ProcessChecker
	desktop   timeline.Desktop
	sidecar   sidecar.Writer
	builder   fragment.Builder
	now       func() time.Time
	newID     func() string
	logger    *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithEditor replaces the editor query/drop service and process checker.
func WithEditor(svc editor.Service, processes editor.ProcessChecker) Option {
	return func(o *Orchestrator) {
		if svc != nil {
			o.editor = svc
		}
		if processes != nil {
			o.processes = processes
		}
	}
}

// WithDesktop replaces the automation desktop of the timeline tool.
func WithDesktop(d timeline.Desktop) Option {
	return func(o *Orchestrator) {
		if d != nil {
			o.desktop = d
		}
	}
}

// WithSidecarWriter replaces the sidecar writer.
func WithSidecarWriter(w sidecar.Writer) Option {
	return func(o *Orchestrator) { o.sidecar = w }
}

// WithBuilder replaces the fragment builder.
func WithBuilder(b fragment.Builder) Option {
	return func(o *Orchestrator) { o.builder = b }
}

// WithClock replaces the clock used for names and timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDs replaces the attempt id generator.
func WithIDs(newID func() string) Option {
	return func(o *Orchestrator) {
		if newID != nil {
			o.newID = newID
		}
	}
}

// New wires the editor client and automation bridge described by cfg.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	o := &Orchestrator{
		editor: editor.Client{
			SharedMemoryPath: cfg.Editor.SharedMemoryPath,
			DropSocket:       cfg.Editor.DropSocket,
		},
		processes: editor.ProcScanner{},
		desktop:   timeline.NewBridge(cfg.Timeline.BridgeSocket),
		sidecar:   sidecar.NewWriter(logging.NewComponentLogger(logger, "sidecar")),
		builder:   fragment.NewBuilder(logging.NewComponentLogger(logger, "fragment")),
		now:       time.Now,
		newID:     uuid.NewString,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Close releases the automation bridge connection.
func (o *Orchestrator) Close() error {
	if b, ok := o.desktop.(*timeline.Bridge); ok {
		return b.Close()
	}
	return nil
}

// Export runs one attempt to completion. It never returns an error: every
// problem ends up in the report.
func (o *Orchestrator) Export(ctx context.Context, req Request) (out Outcome) {
	if ctx == nil {
		ctx = context.Background()
	}
	out.AttemptID = o.newID()
	out.StartedAt = o.now()
	ctx = services.WithAttemptID(ctx, out.AttemptID)
	logger := logging.WithContext(ctx, o.logger)
	logger.Info("export started", logging.String(logging.FieldEventType, "export_started"))

	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(logger, "export panicked", "export_panic",
				logging.String("panic", fmt.Sprint(r)),
			)
			out.Report = status.Fail(msgCannotStart, status.KindNone, "")
		}
		out.FinishedAt = o.now()
		logger.Info("export finished",
			logging.String(logging.FieldEventType, "export_finished"),
			logging.String("kind", out.Report.Kind.String()),
			logging.String("sub_kind", out.Report.SubKind.String()),
			logging.String("audio_path", out.AudioPath),
			logging.Duration("elapsed", out.FinishedAt.Sub(out.StartedAt)),
		)
	}()

	out.Report = o.run(ctx, req, &out)
	return out
}

func (o *Orchestrator) run(ctx context.Context, req Request, out *Outcome) status.Report {
	cfg := req.Config
	h := req.Host
	if cfg == nil || h == nil {
		return o.reject(ctx, StagePreflight, status.Fail(msgCannotStart, status.KindNone, ""), "request not built")
	}

	if !h.IsRunning() || h.IsSaving() || h.IsDialogShowing() {
		return o.reject(ctx, StagePreflight, status.Fail(msgCannotStart, status.KindNone, ""), "host not ready")
	}

	text, voiceText, report, ok := o.acquireText(ctx, req)
	if !ok {
		return report
	}
	out.Text = text
	subtitle := req.Rules.Subtitle.Apply(text)

	seg, segmenting := h.(host.SegmentingHost)
	charaName := h.CharacterName()
	if segmenting {
		preset, err := seg.VoicePresetName(ctx)
		if err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, o.logger), "voice preset unavailable", "preset_unavailable",
				logging.String(logging.FieldErrorHint, "check host.voice_preset"),
				logging.String(logging.FieldImpact, "character name used for file name"),
				logging.Error(err),
			)
		} else {
			charaName = preset
		}
	}
	out.Character = charaName

	wavPath, report, ok := o.resolvePath(ctx, cfg, charaName, text, segmenting)
	if !ok {
		return report
	}

	if !cfg.Text.UseHostText && !h.SetTalkText(ctx, voiceText) {
		hint := ""
		if segmenting {
			hint = msgTryPlaying
		}
		return o.reject(ctx, StageText, status.Fail(msgSetTextFailed, status.KindInformation, hint), "set text failed")
	}

	saveCtx := services.WithStage(ctx, StageSave)
	result := h.Save(saveCtx, wavPath)
	if !result.Succeeded {
		msg := result.Error
		if strings.TrimSpace(msg) == "" {
			msg = msgSaveFailed
		}
		return o.reject(ctx, StageSave, status.Fail(msg, status.KindInformation, result.ExtraMessage), "host save failed")
	}
	audio := result.FilePath
	if audio == "" {
		audio = wavPath
	}
	out.AudioPath = audio
	saved := fmt.Sprintf(msgSaved, filepath.Base(audio))
	logging.WithContext(saveCtx, o.logger).Info("audio saved",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("audio_path", audio),
	)

	if segmenting && !sameStem(wavPath, audio) {
		logging.WithContext(saveCtx, o.logger).Info("segmented save, skipping follow-up stages",
			logging.Args(logging.DecisionAttrs("segmented_save", "audio_only", "host split the audio")...)...,
		)
		return succeeded(saved, status.KindWarning, msgSegmented)
	}

	if cfg.Text.WriteSidecar {
		if err := o.writeSidecar(ctx, req, audio, subtitle); err != nil {
			return succeeded(saved, status.KindFail, msgSidecarFailed)
		}
	}

	ch := o.character(cfg, h, charaName, segmenting)

	var fragmentWarning string
	if cfg.Fragment.Enabled {
		warning, err := o.fragmentStage(ctx, req, ch, audio, subtitle)
		if err != nil {
			return succeeded(saved, status.KindFail, msgFragmentFailed)
		}
		fragmentWarning = warning
	}

	var timelineWarning string
	if cfg.Timeline.Enabled {
		name := ch.TimelineName
		if segmenting {
			name = charaName
		}
		timelineWarning = o.timelineStage(ctx, cfg, audio, name)
	}

	if warning := firstNonEmpty(fragmentWarning, timelineWarning); warning != "" {
		return succeeded(saved, status.KindWarning, warning)
	}
	return status.Report{
		Kind:       status.KindSuccess,
		Message:    saved,
		SubKind:    status.KindNone,
		SubMessage: msgOpenFolder,
		Action:     &status.Action{Name: status.ActionOpenFolder, Target: audio},
		ActionTip:  filepath.Dir(audio),
	}
}

func (o *Orchestrator) acquireText(ctx context.Context, req Request) (text, voice string, report status.Report, ok bool) {
	h := req.Host
	if req.Config.Text.UseHostText {
		t, err := h.TalkText(ctx)
		if err != nil {
			return "", "", o.reject(ctx, StageText, status.Fail(msgHostTextUnavailable, status.KindNone, ""), err.Error()), false
		}
		if !h.CanSaveBlankText() && strings.TrimSpace(t) == "" {
			return "", "", o.reject(ctx, StageText, status.Fail(msgHostTextBlank, status.KindInformation, msgBlankNotAllowed), "blank host text"), false
		}
		return t, t, status.Report{}, true
	}
	text = req.Text
	voice = req.Rules.Voice.Apply(text)
	if !h.CanSaveBlankText() && strings.TrimSpace(voice) == "" {
		return "", "", o.reject(ctx, StageText, status.Fail(msgVoiceTextBlank, status.KindInformation, msgBlankNotAllowed), "blank voice text"), false
	}
	return text, voice, status.Report{}, true
}

func (o *Orchestrator) resolvePath(ctx context.Context, cfg *config.Config, charaName, text string, segmenting bool) (string, status.Report, bool) {
	resolver := pathresolve.Resolver{
		Template:      cfg.Naming.Template,
		MaxTextLength: cfg.Naming.MaxTextLength,
		Now:           o.now,
	}
	var stem string
	err := guard(StagePath, func() error {
		var err error
		stem, err = resolver.Resolve(services.WithStage(ctx, StagePath), pathresolve.Request{
			Dir:        cfg.Paths.SaveDir,
			Character:  charaName,
			Text:       text,
			Segmenting: segmenting,
		})
		return err
	})
	if err != nil {
		return "", o.reject(ctx, StagePath, status.Fail(msgNameFailed, status.KindNone, ""), err.Error()), false
	}
	wavPath := stem + ".wav"
	if err := naming.CheckPath(wavPath, cfg.Naming.MaxPathLength); err != nil {
		msg, hint := pathMessage(naming.StatusOf(err))
		return "", o.reject(ctx, StagePath, status.Fail(msg, status.KindInformation, hint), err.Error()), false
	}
	return wavPath, status.Report{}, true
}

func (o *Orchestrator) writeSidecar(ctx context.Context, req Request, audio, subtitle string) error {
	ctx = services.WithStage(ctx, StageSidecar)
	path := replaceExt(audio, ".txt")
	err := guard(StageSidecar, func() error {
		return o.sidecar.Write(ctx, path, subtitle, req.Encoding)
	})
	logger := logging.WithContext(ctx, o.logger)
	if err != nil {
		logging.WarnWithContext(logger, "sidecar not written", "sidecar_failed",
			logging.String("path", path),
			logging.String(logging.FieldErrorHint, "close programs holding the text file"),
			logging.String(logging.FieldImpact, "audio saved without text file"),
			logging.Error(err),
		)
		return err
	}
	logger.Info("sidecar written",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("path", path),
		logging.String("encoding", req.Encoding.String()),
	)
	return nil
}

// character picks the style owner. Segmenting hosts match configured
// keywords against the preset name first.
func (o *Orchestrator) character(cfg *config.Config, h host.Host, preset string, segmenting bool) config.Character {
	if segmenting {
		if ch, ok := MatchKeyword(cfg.Characters, preset); ok {
			return ch
		}
	}
	return cfg.Character(h.CharacterID())
}

// fragmentStage builds the fragment, syncing settings from the editor first
// and handing the result off afterwards when configured. A returned error
// means no fragment was written; a warning means it was.
func (o *Orchestrator) fragmentStage(ctx context.Context, req Request, ch config.Character, audio, subtitle string) (string, error) {
	cfg := req.Config
	ctx = services.WithStage(ctx, StageFragment)
	logger := logging.WithContext(ctx, o.logger)
	env := editor.Environment{
		Service:     o.editor,
		Processes:   o.processes,
		ProcessName: cfg.Editor.ProcessName,
		DropTimeout: time.Duration(cfg.Editor.DropTimeoutMS) * time.Millisecond,
		Logger:      logging.NewComponentLogger(o.logger, "editor"),
	}

	settings := req.Fragment
	synced := editor.Success
	var warning string
	if cfg.Editor.Handoff && cfg.Editor.SyncEnvironment {
		err := guard(StageFragment, func() error {
			settings, synced = env.Sync(ctx, settings)
			return nil
		})
		if err != nil {
			settings, synced = req.Fragment, editor.Fail
		}
		if synced != editor.Success {
			warning = env.Warning(synced)
			logger.Info("editor settings not applied",
				logging.Args(logging.DecisionAttrs("environment_sync", synced.String(), "query did not succeed")...)...,
			)
		}
	}

	style := fragment.StyleFromConfig(ch)
	var result fragment.Result
	err := guard(StageFragment, func() error {
		var err error
		result, err = o.builder.Write(ctx, fragment.Request{
			AudioPath:    audio,
			FragmentPath: replaceExt(audio, ".exo"),
			Text:         subtitle,
			Style:        style,
			Settings:     settings,
		})
		return err
	})
	if err != nil {
		logging.WarnWithContext(logger, "fragment not written", "fragment_failed",
			logging.String(logging.FieldErrorHint, "check that the audio file is a readable WAV"),
			logging.String(logging.FieldImpact, "audio saved without fragment"),
			logging.Error(err),
		)
		return "", err
	}
	logger.Info("fragment written",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("path", result.Path),
		logging.Int("length", result.Length),
	)

	if !cfg.Editor.Handoff || synced != editor.Success {
		return warning, nil
	}

	hctx := services.WithStage(ctx, StageHandoff)
	dropped := editor.Fail
	if err := guard(StageHandoff, func() error {
		dropped = env.Handoff(hctx, result.Path, result.Length, style.Layer)
		return nil
	}); err != nil {
		dropped = editor.Fail
	}
	if dropped != editor.Success {
		warning = env.Warning(dropped)
		if warning != "" {
			logging.WarnWithContext(logging.WithContext(hctx, o.logger), "hand-off failed", "handoff_failed",
				logging.String("result", dropped.String()),
				logging.String(logging.FieldErrorHint, "check that the editor and its drop helper are running"),
				logging.String(logging.FieldImpact, "fragment kept on disk but not added to the editor"),
			)
		}
		return warning, nil
	}
	logging.WithContext(hctx, o.logger).Info("fragment handed off",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("layer", style.Layer),
	)
	return "", nil
}

func (o *Orchestrator) timelineStage(ctx context.Context, cfg *config.Config, audio, name string) string {
	ctx = services.WithStage(ctx, StageTimeline)
	driver := timeline.NewDriver(cfg.Timeline, logging.WithContext(ctx, logging.NewComponentLogger(o.logger, "timeline")))
	var warning string
	err := guard(StageTimeline, func() error {
		session := timeline.NewSession(o.desktop, cfg.Timeline.ProcessName)
		warning = driver.Register(ctx, session, timeline.Request{
			AudioPath:       audio,
			Character:       name,
			SelectCharacter: cfg.Timeline.SelectCharacter,
			AddClip:         cfg.Timeline.AddClip,
		})
		return nil
	})
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, o.logger), "timeline stage aborted", "timeline_failed",
			logging.Error(err),
		)
		return msgTimelineFailed
	}
	return warning
}

func (o *Orchestrator) reject(ctx context.Context, stage string, report status.Report, reason string) status.Report {
	logger := logging.WithContext(services.WithStage(ctx, stage), o.logger)
	logger.Info("export rejected",
		logging.String(logging.FieldEventType, "export_rejected"),
		logging.String("message", report.Message),
		logging.String("reason", reason),
	)
	return report
}

// guard turns a panic inside fn into an error tagged with stage.
func guard(stage string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = services.Wrap(services.ErrTransient, stage, "panic", fmt.Sprint(r), nil)
		}
	}()
	return fn()
}

func succeeded(message string, subKind status.Kind, subMessage string) status.Report {
	return status.Report{Kind: status.KindSuccess, Message: message, SubKind: subKind, SubMessage: subMessage}
}

func sameStem(a, b string) bool {
	stem := func(p string) string {
		base := filepath.Base(p)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return strings.EqualFold(stem(a), stem(b))
}

func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
