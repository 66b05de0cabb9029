package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"talkclip/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The save directory exists; editor and timeline integrations are off and
// timeline retries have no delay.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.SaveDir = filepath.Join(base, "save")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Editor.SharedMemoryPath = filepath.Join(base, "shm", "GCMZDrops")
	cfgVal.Editor.DropSocket = filepath.Join(base, "gcmz.sock")
	cfgVal.Timeline.BridgeSocket = filepath.Join(base, "automation.sock")
	cfgVal.Timeline.RetryDelayMS = 0
	cfgVal.API.Bind = "127.0.0.1:0"
	cfgVal.Characters = []config.Character{defaultCharacter("default")}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	for _, dir := range []string{cfgVal.Paths.SaveDir, cfgVal.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	return builder.cfg
}

func defaultCharacter(id string) config.Character {
	ch := config.DefaultCharacter()
	ch.ID = id
	return ch
}

// WithCharacter appends a character using default styles plus the given
// keyword and timeline name.
func WithCharacter(id, keyword, timelineName string) ConfigOption {
	return func(b *configBuilder) {
		ch := defaultCharacter(id)
		ch.Keyword = keyword
		ch.TimelineName = timelineName
		b.cfg.Characters = append(b.cfg.Characters, ch)
	}
}

// WithHostCommand sets the speech engine argument template.
func WithHostCommand(args ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Host.Command = append([]string(nil), args...)
	}
}

// WithEditor enables hand-off and optionally environment sync.
func WithEditor(sync bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Editor.Handoff = true
		b.cfg.Editor.SyncEnvironment = sync
	}
}

// WithTimeline enables timeline automation.
func WithTimeline() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Timeline.Enabled = true
	}
}

// WithSidecar toggles the subtitle sidecar.
func WithSidecar(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Text.WriteSidecar = enabled
	}
}

// WithFragment toggles the project fragment.
func WithFragment(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Fragment.Enabled = enabled
	}
}
