package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"talkclip/internal/config"
	"talkclip/internal/pathresolve"
)

const (
	placeholderOutput = "{output}"
	placeholderText   = "{text}"

	stderrTail = 512
)

// Executor runs one engine invocation. stdin is empty when the text is
// passed as an argument.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, stdin string) (stderr string, err error)
}

// Option configures a CommandHost.
type Option func(*CommandHost)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(h *CommandHost) {
		if exec != nil {
			h.exec = exec
		}
	}
}

// WithLookPath replaces the executable lookup used by IsRunning.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(h *CommandHost) {
		if fn != nil {
			h.lookPath = fn
		}
	}
}

// CommandHost runs a configured speech engine command per save. "{output}"
// in the command is replaced by the wav path and "{text}" by the text; text
// goes to stdin when no argument carries "{text}".
type CommandHost struct {
	command    []string
	id         string
	name       string
	allowBlank bool
	timeout    time.Duration
	textFile   string
	exec       Executor
	lookPath   func(string) (string, error)

	mu     sync.Mutex
	text   string
	hasSet bool
	saving atomic.Bool
}

// New builds the host described by cfg. Segmenting engines get a
// SegmentingCommandHost.
func New(cfg config.Host, opts ...Option) Host {
	base := newCommandHost(cfg, opts...)
	if cfg.Segmenting {
		return &SegmentingCommandHost{CommandHost: base, preset: cfg.VoicePreset}
	}
	return base
}

func newCommandHost(cfg config.Host, opts ...Option) *CommandHost {
	h := &CommandHost{
		command:    append([]string(nil), cfg.Command...),
		id:         cfg.CharacterID,
		name:       cfg.CharacterName,
		allowBlank: cfg.AllowBlankText,
		timeout:    time.Duration(cfg.TimeoutSeconds) * time.Second,
		textFile:   cfg.TextFile,
		exec:       commandExecutor{},
		lookPath:   exec.LookPath,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *CommandHost) CharacterID() string   { return h.id }
func (h *CommandHost) CharacterName() string { return h.name }

// IsRunning reports whether the engine executable can be found.
func (h *CommandHost) IsRunning() bool {
	if len(h.command) == 0 {
		return false
	}
	_, err := h.lookPath(h.command[0])
	return err == nil
}

func (h *CommandHost) IsSaving() bool         { return h.saving.Load() }
func (h *CommandHost) IsDialogShowing() bool  { return false }
func (h *CommandHost) CanSaveBlankText() bool { return h.allowBlank }

// TalkText returns the text last handed to the engine, or the contents of
// the configured text file before any text was set.
func (h *CommandHost) TalkText(context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hasSet {
		return h.text, nil
	}
	if h.textFile == "" {
		return "", ErrNoText
	}
	data, err := os.ReadFile(h.textFile)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s is missing", ErrNoText, h.textFile)
	}
	if err != nil {
		return "", fmt.Errorf("read host text: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func (h *CommandHost) SetTalkText(_ context.Context, text string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.text = text
	h.hasSet = true
	return true
}

// Save runs the engine for path and reports what it wrote.
func (h *CommandHost) Save(ctx context.Context, path string) SaveResult {
	if len(h.command) == 0 {
		return SaveResult{Error: "no speech engine command configured"}
	}
	if !h.saving.CompareAndSwap(false, true) {
		return SaveResult{Error: "a save is already running"}
	}
	defer h.saving.Store(false)

	text, _ := h.TalkText(ctx)
	args, stdin := expandArgs(h.command[1:], path, text)

	runCtx := ctx
	if h.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	stderr, err := h.exec.Run(runCtx, h.command[0], args, stdin)
	if err != nil {
		msg := "the speech engine failed"
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			msg = "the speech engine timed out"
		}
		return SaveResult{Error: msg, ExtraMessage: tail(stderr, err)}
	}

	if fileExists(path) {
		return SaveResult{Succeeded: true, FilePath: path}
	}
	if seg, ok := firstSegment(path); ok {
		return SaveResult{Succeeded: true, FilePath: seg}
	}
	return SaveResult{
		Error:        "the speech engine did not write " + filepath.Base(path),
		ExtraMessage: strings.TrimSpace(stderr),
	}
}

func expandArgs(template []string, output, text string) ([]string, string) {
	args := make([]string, 0, len(template))
	textInArgs := false
	for _, arg := range template {
		if strings.Contains(arg, placeholderText) {
			textInArgs = true
		}
		arg = strings.ReplaceAll(arg, placeholderOutput, output)
		arg = strings.ReplaceAll(arg, placeholderText, text)
		args = append(args, arg)
	}
	if textInArgs {
		return args, ""
	}
	return args, text
}

func tail(stderr string, err error) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return err.Error()
	}
	if len(stderr) > stderrTail {
		stderr = stderr[len(stderr)-stderrTail:]
	}
	return stderr
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// firstSegment finds the lowest numbered "<base>-N.wav" next to path.
func firstSegment(path string) (string, bool) {
	dir := filepath.Dir(path)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	pattern := pathresolve.SegmentPattern(base)
	type seg struct {
		n    int
		name string
	}
	var found []seg
	for _, e := range entries {
		name := e.Name()
		if !pattern.MatchString(name) || !strings.EqualFold(filepath.Ext(name), ".wav") {
			continue
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		n, err := strconv.Atoi(stem[strings.LastIndex(stem, "-")+1:])
		if err != nil {
			continue
		}
		found = append(found, seg{n: n, name: name})
	}
	if len(found) == 0 {
		return "", false
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })
	return filepath.Join(dir, found[0].name), true
}

// SegmentingCommandHost is a CommandHost whose engine splits long text.
type SegmentingCommandHost struct {
	*CommandHost
	preset string
}

// VoicePresetName returns the configured preset, or the character name.
func (h *SegmentingCommandHost) VoicePresetName(context.Context) (string, error) {
	if h.preset != "" {
		return h.preset, nil
	}
	if h.name != "" {
		return h.name, nil
	}
	return "", fmt.Errorf("no voice preset configured")
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, stdin string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stderr.String(), fmt.Errorf("run %s: %w", filepath.Base(binary), err)
	}
	return stderr.String(), nil
}
