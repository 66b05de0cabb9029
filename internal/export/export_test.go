package export_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"talkclip/internal/config"
	"talkclip/internal/editor"
	"talkclip/internal/export"
	"talkclip/internal/exportlock"
	"talkclip/internal/fragment"
	"talkclip/internal/host"
	"talkclip/internal/sidecar"
	"talkclip/internal/status"
	"talkclip/internal/testsupport"
	"talkclip/internal/timeline"
)

var fixedNow = time.Date(2026, 10, 18, 14, 5, 9, 0, time.Local)

type fakeHost struct {
	running     bool
	saving      bool
	dialog      bool
	allowBlank  bool
	id          string
	name        string
	hostText    string
	hostTextErr error
	setFails    bool

	mu    sync.Mutex
	set   []string
	saved []string
	save  func(path string) host.SaveResult
}

func newFakeHost(t *testing.T) *fakeHost {
	h := &fakeHost{running: true, id: "default", name: "Akane"}
	h.save = func(path string) host.SaveResult {
		testsupport.WriteWAV(t, path, 44100, 1, time.Second)
		return host.SaveResult{Succeeded: true, FilePath: path}
	}
	return h
}

func (h *fakeHost) CharacterID() string    { return h.id }
func (h *fakeHost) CharacterName() string  { return h.name }
func (h *fakeHost) IsRunning() bool        { return h.running }
func (h *fakeHost) IsSaving() bool         { return h.saving }
func (h *fakeHost) IsDialogShowing() bool  { return h.dialog }
func (h *fakeHost) CanSaveBlankText() bool { return h.allowBlank }

func (h *fakeHost) TalkText(context.Context) (string, error) {
	return h.hostText, h.hostTextErr
}

func (h *fakeHost) SetTalkText(_ context.Context, text string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.set = append(h.set, text)
	return !h.setFails
}

func (h *fakeHost) Save(_ context.Context, path string) host.SaveResult {
	h.mu.Lock()
	h.saved = append(h.saved, path)
	h.mu.Unlock()
	return h.save(path)
}

type segHost struct {
	*fakeHost
	preset string
}

func (h segHost) VoicePresetName(context.Context) (string, error) { return h.preset, nil }

type fakeEditor struct {
	info   editor.Info
	query  editor.Result
	drop   editor.Result
	drops  []string
	layers []int
}

func (f *fakeEditor) Query(context.Context) (editor.Info, editor.Result) { return f.info, f.query }

func (f *fakeEditor) Drop(_ context.Context, path string, _ int, layer int, _ time.Duration) editor.Result {
	f.drops = append(f.drops, path)
	f.layers = append(f.layers, layer)
	return f.drop
}

type running bool

func (r running) Running(string) bool { return bool(r) }

type brokenDesktop struct{}

func (brokenDesktop) FindProcess(context.Context, string) (timeline.Process, error) {
	return nil, errors.New("bridge protocol error")
}

func fastSidecar() sidecar.Writer {
	w := sidecar.NewWriter(nil)
	w.Policy.Delay = 0
	return w
}

func newOrchestrator(cfg *config.Config, opts ...export.Option) *export.Orchestrator {
	base := []export.Option{
		export.WithClock(func() time.Time { return fixedNow }),
		export.WithSidecarWriter(fastSidecar()),
		export.WithEditor(&fakeEditor{}, running(true)),
		export.WithDesktop(brokenDesktop{}),
	}
	return export.New(cfg, nil, append(base, opts...)...)
}

func newRequest(t *testing.T, cfg *config.Config, h host.Host, text string) export.Request {
	t.Helper()
	req, err := export.NewRequest(cfg, h, text)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	return req
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func withExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

func TestScenarioHostNotRunning(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	h := newFakeHost(t)
	h.running = false

	out := newOrchestrator(cfg).Export(context.Background(), newRequest(t, cfg, h, "hello"))
	if out.Report.Kind != status.KindFail || out.Report.Message != "Could not start saving." {
		t.Fatalf("unexpected report %s", out.Report)
	}
	if len(h.saved) != 0 || len(h.set) != 0 {
		t.Fatalf("host must not be touched: set=%v saved=%v", h.set, h.saved)
	}
	if files := listDir(t, cfg.Paths.SaveDir); len(files) != 0 {
		t.Fatalf("expected no files, got %v", files)
	}
}

func TestPreflightRejectsBusyHost(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	for _, mutate := range []func(*fakeHost){
		func(h *fakeHost) { h.saving = true },
		func(h *fakeHost) { h.dialog = true },
	} {
		h := newFakeHost(t)
		mutate(h)
		out := newOrchestrator(cfg).Export(context.Background(), newRequest(t, cfg, h, "hello"))
		if out.Report.Kind != status.KindFail {
			t.Fatalf("expected failure, got %s", out.Report)
		}
	}
}

func TestScenarioSegmentedSave(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithEditor(false), testsupport.WithTimeline())
	base := newFakeHost(t)
	base.save = func(path string) host.SaveResult {
		seg := withExt(path, "") + "-1.wav"
		testsupport.WriteWAV(t, seg, 44100, 1, time.Second)
		testsupport.WriteWAV(t, withExt(path, "")+"-2.wav", 44100, 1, time.Second)
		return host.SaveResult{Succeeded: true, FilePath: seg}
	}
	h := segHost{fakeHost: base, preset: "琴葉 茜"}
	ed := &fakeEditor{}

	out := newOrchestrator(cfg, export.WithEditor(ed, running(true))).Export(context.Background(), newRequest(t, cfg, h, "長い文章"))
	if out.Report.Kind != status.KindSuccess || out.Report.SubKind != status.KindWarning {
		t.Fatalf("expected success with warning, got %s", out.Report)
	}
	for _, name := range listDir(t, cfg.Paths.SaveDir) {
		if ext := filepath.Ext(name); ext != ".wav" {
			t.Fatalf("segmented save must only leave audio, found %s", name)
		}
	}
	if len(ed.drops) != 0 {
		t.Fatal("no hand-off expected for segmented saves")
	}
	if !strings.Contains(out.AudioPath, "琴葉 茜") {
		t.Fatalf("expected preset name in file name, got %s", out.AudioPath)
	}
}

func TestScenarioSidecarContention(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	h := newFakeHost(t)
	var holder *flock.Flock
	h.save = func(path string) host.SaveResult {
		testsupport.WriteWAV(t, path, 44100, 1, time.Second)
		holder = flock.New(withExt(path, ".txt"))
		if ok, err := holder.TryLock(); err != nil || !ok {
			t.Fatalf("lock sidecar: %v %v", ok, err)
		}
		return host.SaveResult{Succeeded: true, FilePath: path}
	}
	t.Cleanup(func() {
		if holder != nil {
			_ = holder.Unlock()
		}
	})

	attempts := 0
	writer := fastSidecar()
	writer.Policy.Retryable = func(err error) bool {
		attempts++
		return sidecar.IsContention(err)
	}

	out := newOrchestrator(cfg, export.WithSidecarWriter(writer)).Export(context.Background(), newRequest(t, cfg, h, "hello"))
	if out.Report.Kind != status.KindSuccess || out.Report.SubKind != status.KindFail {
		t.Fatalf("expected success with secondary failure, got %s", out.Report)
	}
	if !strings.Contains(out.Report.SubMessage, "text file") {
		t.Fatalf("secondary message should name the text file: %q", out.Report.SubMessage)
	}
	if attempts != 10 {
		t.Fatalf("expected 10 attempts, got %d", attempts)
	}
	if _, err := os.Stat(out.AudioPath); err != nil {
		t.Fatalf("audio must stay: %v", err)
	}
	if _, err := os.Stat(withExt(out.AudioPath, ".exo")); !os.IsNotExist(err) {
		t.Fatalf("no fragment expected after sidecar failure: %v", err)
	}
}

func TestScenarioHandoffTimeout(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithEditor(false))
	ed := &fakeEditor{drop: editor.MessageTimeout}

	out := newOrchestrator(cfg, export.WithEditor(ed, running(true))).Export(context.Background(), newRequest(t, cfg, newFakeHost(t), "hello"))
	if out.Report.Kind != status.KindSuccess || out.Report.SubKind != status.KindWarning {
		t.Fatalf("expected success with warning, got %s", out.Report)
	}
	if out.Report.SubMessage != editor.MessageTimeout.Reason() {
		t.Fatalf("unexpected warning %q", out.Report.SubMessage)
	}
	exoPath := withExt(out.AudioPath, ".exo")
	if _, err := os.Stat(exoPath); err != nil {
		t.Fatalf("fragment must stay on disk: %v", err)
	}
	if len(ed.drops) != 1 || ed.drops[0] != exoPath {
		t.Fatalf("expected one drop of %s, got %v", exoPath, ed.drops)
	}
}

func TestExportWritesAllArtifacts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Replace.Voice = []config.ReplaceRule{{Pattern: "AI", Replacement: "エーアイ"}}
	cfg.Replace.Subtitle = []config.ReplaceRule{{Pattern: "!", Replacement: "！"}}
	h := newFakeHost(t)

	out := newOrchestrator(cfg).Export(context.Background(), newRequest(t, cfg, h, "AI talk!"))
	r := out.Report
	if r.Kind != status.KindSuccess || r.SubKind != status.KindNone {
		t.Fatalf("unexpected report %s", r)
	}
	if r.Action == nil || r.Action.Name != status.ActionOpenFolder || r.Action.Target != out.AudioPath {
		t.Fatalf("expected open-folder action, got %+v", r.Action)
	}
	if r.ActionTip != cfg.Paths.SaveDir {
		t.Fatalf("expected folder tooltip, got %q", r.ActionTip)
	}
	if len(h.set) != 1 || h.set[0] != "エーアイ talk!" {
		t.Fatalf("voice text not replaced: %v", h.set)
	}
	data, err := os.ReadFile(withExt(out.AudioPath, ".txt"))
	if err != nil || string(data) != "AI talk！" {
		t.Fatalf("unexpected sidecar %q %v", data, err)
	}
	if _, err := os.Stat(withExt(out.AudioPath, ".exo")); err != nil {
		t.Fatalf("fragment missing: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(out.AudioPath), "20261018_140509_Akane_") {
		t.Fatalf("unexpected file name %s", filepath.Base(out.AudioPath))
	}
	if out.AttemptID == "" || out.Text != "AI talk!" || out.Character != "Akane" {
		t.Fatalf("outcome fields missing: %+v", out)
	}
}

func TestExportAvoidsCollisions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	orch := newOrchestrator(cfg)
	first := orch.Export(context.Background(), newRequest(t, cfg, newFakeHost(t), "same"))
	second := orch.Export(context.Background(), newRequest(t, cfg, newFakeHost(t), "same"))
	if first.AudioPath == second.AudioPath {
		t.Fatalf("expected distinct paths, both %s", first.AudioPath)
	}
	if !strings.HasSuffix(second.AudioPath, "[1].wav") {
		t.Fatalf("expected [1] suffix, got %s", second.AudioPath)
	}
}

func TestTextAcquisitionFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Text.UseHostText = true
	h := newFakeHost(t)
	h.hostTextErr = host.ErrNoText
	out := newOrchestrator(cfg).Export(context.Background(), newRequest(t, cfg, h, "ignored"))
	if out.Report.Kind != status.KindFail || out.Report.Message != "Could not read the text from the speech host." {
		t.Fatalf("unexpected report %s", out.Report)
	}

	h = newFakeHost(t)
	h.hostText = "  "
	out = newOrchestrator(cfg).Export(context.Background(), newRequest(t, cfg, h, ""))
	if out.Report.Kind != status.KindFail || out.Report.SubKind != status.KindInformation {
		t.Fatalf("expected blank rejection, got %s", out.Report)
	}

	h = newFakeHost(t)
	h.hostText = "from host"
	out = newOrchestrator(cfg).Export(context.Background(), newRequest(t, cfg, h, "ignored"))
	if out.Report.Kind != status.KindSuccess || len(h.set) != 0 {
		t.Fatalf("host text must be used as is: %s set=%v", out.Report, h.set)
	}

	plain := testsupport.NewConfig(t)
	plain.Replace.Voice = []config.ReplaceRule{{Pattern: "x", Replacement: ""}}
	out = newOrchestrator(plain).Export(context.Background(), newRequest(t, plain, newFakeHost(t), "xxx"))
	if out.Report.Message != "The text becomes blank after voice replacement." {
		t.Fatalf("unexpected report %s", out.Report)
	}
}

func TestPathRejection(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Naming.MaxPathLength = 10
	h := newFakeHost(t)
	out := newOrchestrator(cfg).Export(context.Background(), newRequest(t, cfg, h, "hello"))
	if out.Report.Message != "The save path is too long." {
		t.Fatalf("unexpected report %s", out.Report)
	}
	if len(h.saved) != 0 {
		t.Fatal("save must not run after path rejection")
	}

	missing := testsupport.NewConfig(t)
	missing.Paths.SaveDir = filepath.Join(missing.Paths.SaveDir, "absent")
	out = newOrchestrator(missing).Export(context.Background(), newRequest(t, missing, newFakeHost(t), "hello"))
	if out.Report.Message != "The save folder does not exist." {
		t.Fatalf("unexpected report %s", out.Report)
	}
}

func TestHostFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	h := newFakeHost(t)
	h.setFails = true
	seg := segHost{fakeHost: h, preset: "voice"}
	out := newOrchestrator(cfg).Export(context.Background(), newRequest(t, cfg, seg, "hello"))
	if out.Report.Message != "Could not set the text in the speech host." || out.Report.SubKind != status.KindInformation {
		t.Fatalf("expected set-text failure with hint, got %s", out.Report)
	}

	h = newFakeHost(t)
	h.save = func(string) host.SaveResult {
		return host.SaveResult{Error: "engine crashed", ExtraMessage: "exit status 3"}
	}
	out = newOrchestrator(cfg).Export(context.Background(), newRequest(t, cfg, h, "hello"))
	if out.Report.Kind != status.KindFail || out.Report.Message != "engine crashed" || out.Report.SubMessage != "exit status 3" {
		t.Fatalf("expected host error pair, got %s", out.Report)
	}
}

func TestEnvironmentSyncFailureSkipsHandoff(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithEditor(true))
	ed := &fakeEditor{query: editor.MapViewFail}
	out := newOrchestrator(cfg, export.WithEditor(ed, running(true))).Export(context.Background(), newRequest(t, cfg, newFakeHost(t), "hello"))
	if out.Report.SubKind != status.KindWarning || out.Report.SubMessage != editor.MapViewFail.Reason() {
		t.Fatalf("expected sync warning, got %s", out.Report)
	}
	if _, err := os.Stat(withExt(out.AudioPath, ".exo")); err != nil {
		t.Fatalf("fragment must still be written: %v", err)
	}
	if len(ed.drops) != 0 {
		t.Fatal("hand-off must be skipped after a failed sync")
	}
}

func TestEnvironmentSyncSoftWhenEditorAbsent(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithEditor(true))
	ed := &fakeEditor{query: editor.FileMappingFail}
	out := newOrchestrator(cfg, export.WithEditor(ed, running(false))).Export(context.Background(), newRequest(t, cfg, newFakeHost(t), "hello"))
	if out.Report.SubKind != status.KindNone || out.Report.Action == nil {
		t.Fatalf("expected plain success, got %s", out.Report)
	}
}

func TestWarningPrecedence(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithEditor(false), testsupport.WithTimeline())
	ed := &fakeEditor{drop: editor.EditorWindowInvisible}
	out := newOrchestrator(cfg, export.WithEditor(ed, running(true))).Export(context.Background(), newRequest(t, cfg, newFakeHost(t), "hello"))
	if out.Report.SubMessage != editor.EditorWindowInvisible.Reason() {
		t.Fatalf("hand-off warning must win, got %q", out.Report.SubMessage)
	}

	timelineOnly := testsupport.NewConfig(t, testsupport.WithTimeline())
	out = newOrchestrator(timelineOnly).Export(context.Background(), newRequest(t, timelineOnly, newFakeHost(t), "hello"))
	if out.Report.SubKind != status.KindWarning || out.Report.SubMessage != "Could not check the state of the timeline tool." {
		t.Fatalf("expected timeline warning, got %s", out.Report)
	}
}

func TestKeywordCharacterDrivesStyle(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithEditor(false),
		testsupport.WithCharacter("aoi", "葵", "琴葉葵"),
		testsupport.WithCharacter("akane", "茜", "琴葉茜"),
	)
	cfg.Characters[1].Layer = 4
	cfg.Characters[2].Layer = 7
	ed := &fakeEditor{}
	h := segHost{fakeHost: newFakeHost(t), preset: "茜と葵"}

	out := newOrchestrator(cfg, export.WithEditor(ed, running(true))).Export(context.Background(), newRequest(t, cfg, h, "hello"))
	if !out.Report.Succeeded() {
		t.Fatalf("unexpected report %s", out.Report)
	}
	if len(ed.layers) != 1 || ed.layers[0] != 7 {
		t.Fatalf("expected drop on akane's layer 7, got %v", ed.layers)
	}
}

func TestMatchKeyword(t *testing.T) {
	chars := []config.Character{
		{ID: "none"},
		{ID: "aoi", Keyword: "葵"},
		{ID: "akane", Keyword: "茜"},
		{ID: "akane2", Keyword: "茜"},
	}
	tests := []struct {
		preset string
		want   string
		ok     bool
	}{
		{preset: "琴葉 茜", want: "akane", ok: true},
		{preset: "葵 and 茜", want: "aoi", ok: true},
		{preset: "茜 and 葵", want: "akane", ok: true},
		{preset: "ゆかり", ok: false},
	}
	for _, tt := range tests {
		got, ok := export.MatchKeyword(chars, tt.preset)
		if ok != tt.ok || got.ID != tt.want {
			t.Fatalf("MatchKeyword(%q) = %q %v, want %q %v", tt.preset, got.ID, ok, tt.want, tt.ok)
		}
	}
}

func TestPanicsBecomeStageFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	builder := fragment.NewBuilder(nil)
	builder.Measure = func(string) (time.Duration, error) { panic("corrupt header") }
	out := newOrchestrator(cfg, export.WithBuilder(builder)).Export(context.Background(), newRequest(t, cfg, newFakeHost(t), "hello"))
	if out.Report.Kind != status.KindSuccess || out.Report.SubKind != status.KindFail || out.Report.SubMessage != "Could not save the .exo file." {
		t.Fatalf("expected fragment failure, got %s", out.Report)
	}

	h := newFakeHost(t)
	h.save = func(string) host.SaveResult { panic("host crashed") }
	out = newOrchestrator(cfg).Export(context.Background(), newRequest(t, cfg, h, "hello"))
	if out.Report.Kind != status.KindFail {
		t.Fatalf("expected failure, got %s", out.Report)
	}
	if out.FinishedAt.IsZero() {
		t.Fatal("finished time must be set after a panic")
	}
}

func TestFragmentFailureStopsBeforeTimeline(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTimeline())
	builder := fragment.Builder{Measure: func(string) (time.Duration, error) { return 0, errors.New("not a wave file") }}
	out := newOrchestrator(cfg, export.WithBuilder(builder)).Export(context.Background(), newRequest(t, cfg, newFakeHost(t), "hello"))
	if out.Report.SubKind != status.KindFail || out.Report.SubMessage != "Could not save the .exo file." {
		t.Fatalf("fragment failure must win over timeline warning, got %s", out.Report)
	}
}

func TestNewRequestValidatesConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Replace.Voice = []config.ReplaceRule{{Pattern: "(", Regex: true}}
	if _, err := export.NewRequest(cfg, newFakeHost(t), "x"); err == nil {
		t.Fatal("expected bad regex to fail")
	}
	if _, err := export.NewRequest(testsupport.NewConfig(t), nil, "x"); err == nil {
		t.Fatal("expected missing host to fail")
	}
}

func TestRunnerGatesAndJournals(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	gate := exportlock.New(cfg.LockPath())
	store := testsupport.NewHistory(t, cfg)
	runner := &export.Runner{Gate: gate, History: store, Orchestrator: newOrchestrator(cfg)}

	out, err := runner.Run(context.Background(), newRequest(t, cfg, newFakeHost(t), "hello"))
	if err != nil || !out.Report.Succeeded() {
		t.Fatalf("run: %v %s", err, out.Report)
	}
	entries, err := store.List(context.Background(), 5)
	if err != nil || len(entries) != 1 || entries[0].AttemptID != out.AttemptID {
		t.Fatalf("expected journaled attempt, got %+v %v", entries, err)
	}

	release, err := gate.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	defer release()
	h := newFakeHost(t)
	if _, err := runner.Run(context.Background(), newRequest(t, cfg, h, "hello")); !errors.Is(err, exportlock.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if len(h.saved) != 0 {
		t.Fatal("a rejected run must not reach the host")
	}
}
