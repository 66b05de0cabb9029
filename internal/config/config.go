package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	SaveDir  string `toml:"save_dir"`
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Naming controls how output file names are derived.
type Naming struct {
	// Template accepts {date}, {time}, {character} and {text} placeholders.
	Template      string `toml:"template"`
	MaxTextLength int    `toml:"max_text_length"`
	MaxPathLength int    `toml:"max_path_length"`
}

// Text contains text acquisition and sidecar options.
type Text struct {
	UseHostText  bool   `toml:"use_host_text"`
	WriteSidecar bool   `toml:"write_sidecar"`
	Encoding     string `toml:"encoding"`
}

// ReplaceRule is one text substitution.
type ReplaceRule struct {
	Pattern     string `toml:"pattern"`
	Replacement string `toml:"replacement"`
	Regex       bool   `toml:"regex"`
	Disabled    bool   `toml:"disabled"`
}

// Replace holds the voice and subtitle rule sets.
type Replace struct {
	Voice    []ReplaceRule `toml:"voice"`
	Subtitle []ReplaceRule `toml:"subtitle"`
}

// Fragment contains common project fragment settings.
type Fragment struct {
	Enabled         bool    `toml:"enabled"`
	Width           int     `toml:"width"`
	Height          int     `toml:"height"`
	FPS             float64 `toml:"fps"`
	ExtraFrames     int     `toml:"extra_frames"`
	AudioSampleRate int     `toml:"audio_sample_rate"`
	AudioChannels   int     `toml:"audio_channels"`
	Grouping        bool    `toml:"grouping"`
	Rounding        string  `toml:"rounding"`
}

// Editor contains video editor integration settings.
type Editor struct {
	Handoff          bool   `toml:"handoff"`
	SyncEnvironment  bool   `toml:"sync_environment"`
	ProcessName      string `toml:"process_name"`
	SharedMemoryPath string `toml:"shared_memory_path"`
	DropSocket       string `toml:"drop_socket"`
	DropTimeoutMS    int    `toml:"drop_timeout_ms"`
}

// Timeline contains timeline tool automation settings.
type Timeline struct {
	Enabled         bool   `toml:"enabled"`
	ProcessName     string `toml:"process_name"`
	BridgeSocket    string `toml:"bridge_socket"`
	SelectCharacter bool   `toml:"select_character"`
	AddClip         bool   `toml:"add_clip"`
	MaxAttempts     int    `toml:"max_attempts"`
	RetryDelayMS    int    `toml:"retry_delay_ms"`
}

// Host describes the speech engine driven for saves.
type Host struct {
	Command        []string `toml:"command"`
	CharacterID    string   `toml:"character_id"`
	CharacterName  string   `toml:"character_name"`
	VoicePreset    string   `toml:"voice_preset"`
	Segmenting     bool     `toml:"segmenting"`
	AllowBlankText bool     `toml:"allow_blank_text"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	// TextFile is where the engine keeps its current text; read when
	// text.use_host_text is set.
	TextFile string `toml:"text_file"`
}

// TextStyle is the caption style for one character.
type TextStyle struct {
	Font      string  `toml:"font"`
	Size      float64 `toml:"size"`
	Color     string  `toml:"color"`
	EdgeColor string  `toml:"edge_color"`
	Decorate  int     `toml:"decorate"`
	Align     int     `toml:"align"`
	Bold      bool    `toml:"bold"`
	Italic    bool    `toml:"italic"`
	SpacingX  int     `toml:"spacing_x"`
	SpacingY  int     `toml:"spacing_y"`
}

// RenderStyle positions the caption on the canvas. An unset end coordinate
// stays at its begin value.
type RenderStyle struct {
	X            float64        `toml:"x"`
	Y            float64        `toml:"y"`
	Z            float64        `toml:"z"`
	XEnd         *float64       `toml:"x_end"`
	YEnd         *float64       `toml:"y_end"`
	ZEnd         *float64       `toml:"z_end"`
	Movement     RenderMovement `toml:"movement"`
	Scale        float64        `toml:"scale"`
	Transparency float64        `toml:"transparency"`
	Rotation     float64        `toml:"rotation"`
	Blend        int            `toml:"blend"`
}

// Ends returns the end coordinates, falling back to the begin values.
func (r RenderStyle) Ends() (x, y, z float64) {
	return endOr(r.XEnd, r.X), endOr(r.YEnd, r.Y), endOr(r.ZEnd, r.Z)
}

func endOr(end *float64, begin float64) float64 {
	if end == nil {
		return begin
	}
	return *end
}

// RenderMovement is the single movement shared by the X, Y and Z axes.
type RenderMovement struct {
	Mode       string `toml:"mode"`
	Accelerate bool   `toml:"accelerate"`
	Decelerate bool   `toml:"decelerate"`
	Interval   int    `toml:"interval"`
}

// MovementModes lists the accepted movement mode names in editor index order.
var MovementModes = []string{
	"none",
	"linear",
	"curve",
	"teleport",
	"ignore_midpoint",
	"random",
	"accelerate",
	"repeat",
}

// ModeIndex returns the editor index of the mode, or -1 when unknown.
// An empty mode is "none".
func (m RenderMovement) ModeIndex() int {
	mode := strings.ToLower(strings.TrimSpace(m.Mode))
	if mode == "" {
		return 0
	}
	for i, name := range MovementModes {
		if name == mode {
			return i
		}
	}
	return -1
}

// Character holds per-character styles.
type Character struct {
	ID string `toml:"id"`
	// Keyword is matched against voice preset names of segmenting hosts.
	Keyword      string      `toml:"keyword"`
	TimelineName string      `toml:"timeline_name"`
	PlaySpeed    float64     `toml:"play_speed"`
	Volume       float64     `toml:"volume"`
	Pan          float64     `toml:"pan"`
	Clipping     bool        `toml:"clipping"`
	Layer        int         `toml:"layer"`
	Text         TextStyle   `toml:"text"`
	Render       RenderStyle `toml:"render"`
}

// API contains local HTTP API settings.
type API struct {
	Bind string `toml:"bind"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for talkclip.
//
// Configuration sections by subsystem:
//   - Paths: save, state and log directories
//   - Naming: output file name template and limits
//   - Text: text source and subtitle sidecar
//   - Replace: voice and subtitle substitution rules
//   - Fragment: project fragment canvas, timing and audio settings
//   - Editor: video editor environment sync and hand-off
//   - Timeline: timeline tool automation
//   - Host: speech engine command
//   - Characters: per-character styles
//   - API: local HTTP API
//   - Logging: log format and level
type Config struct {
	Paths      Paths       `toml:"paths"`
	Naming     Naming      `toml:"naming"`
	Text       Text        `toml:"text"`
	Replace    Replace     `toml:"replace"`
	Fragment   Fragment    `toml:"fragment"`
	Editor     Editor      `toml:"editor"`
	Timeline   Timeline    `toml:"timeline"`
	Host       Host        `toml:"host"`
	Characters []Character `toml:"characters"`
	API        API         `toml:"api"`
	Logging    Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/talkclip/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("talkclip.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories. The save
// directory is left alone so a missing one surfaces as a path error.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath is the cross-process export lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "export.lock")
}

// HistoryPath is the SQLite export journal.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// Character returns the style for id, falling back to the first character
// without an id, then to built-in defaults.
func (c *Config) Character(id string) Character {
	id = strings.TrimSpace(id)
	var fallback *Character
	for i := range c.Characters {
		ch := &c.Characters[i]
		if id != "" && strings.EqualFold(ch.ID, id) {
			return *ch
		}
		if fallback == nil && ch.ID == "" {
			fallback = ch
		}
	}
	if fallback != nil {
		return *fallback
	}
	def := DefaultCharacter()
	def.ID = id
	return def
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultStateDir() string {
	if base, ok := os.LookupEnv("XDG_STATE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "talkclip")
	}
	return "~/.local/state/talkclip"
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
