package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeNaming()
	c.normalizeText()
	c.normalizeFragment()
	if err := c.normalizeEditor(); err != nil {
		return err
	}
	if err := c.normalizeTimeline(); err != nil {
		return err
	}
	if err := c.normalizeHost(); err != nil {
		return err
	}
	c.normalizeCharacters()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("TALKCLIP_SAVE_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.SaveDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir()
	}
	var err error
	if c.Paths.SaveDir, err = expandPath(strings.TrimSpace(c.Paths.SaveDir)); err != nil {
		return fmt.Errorf("paths.save_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeNaming() {
	c.Naming.Template = strings.TrimSpace(c.Naming.Template)
	if c.Naming.Template == "" {
		c.Naming.Template = defaultNamingTemplate
	}
	if c.Naming.MaxPathLength <= 0 {
		c.Naming.MaxPathLength = defaultMaxPathLength
	}
}

func (c *Config) normalizeText() {
	enc := strings.ToLower(strings.TrimSpace(c.Text.Encoding))
	switch enc {
	case "", "utf8", "utf-8":
		enc = "utf-8"
	case "sjis", "shift-jis", "shift_jis", "cp932":
		enc = "shift_jis"
	}
	c.Text.Encoding = enc
}

func (c *Config) normalizeFragment() {
	c.Fragment.Rounding = strings.ToLower(strings.TrimSpace(c.Fragment.Rounding))
	if c.Fragment.Rounding == "" {
		c.Fragment.Rounding = defaultRounding
	}
}

func (c *Config) normalizeEditor() error {
	c.Editor.ProcessName = strings.TrimSpace(c.Editor.ProcessName)
	if c.Editor.ProcessName == "" {
		c.Editor.ProcessName = defaultEditorProcess
	}
	if strings.TrimSpace(c.Editor.SharedMemoryPath) == "" {
		c.Editor.SharedMemoryPath = defaultSharedMemoryPath
	}
	if strings.TrimSpace(c.Editor.DropSocket) == "" {
		c.Editor.DropSocket = defaultDropSocket
	}
	var err error
	if c.Editor.SharedMemoryPath, err = expandPath(strings.TrimSpace(c.Editor.SharedMemoryPath)); err != nil {
		return fmt.Errorf("editor.shared_memory_path: %w", err)
	}
	if c.Editor.DropSocket, err = expandPath(strings.TrimSpace(c.Editor.DropSocket)); err != nil {
		return fmt.Errorf("editor.drop_socket: %w", err)
	}
	if c.Editor.DropTimeoutMS <= 0 {
		c.Editor.DropTimeoutMS = defaultDropTimeoutMS
	}
	return nil
}

func (c *Config) normalizeTimeline() error {
	c.Timeline.ProcessName = strings.TrimSpace(c.Timeline.ProcessName)
	if c.Timeline.ProcessName == "" {
		c.Timeline.ProcessName = defaultTimelineProcess
	}
	if strings.TrimSpace(c.Timeline.BridgeSocket) == "" {
		c.Timeline.BridgeSocket = defaultBridgeSocket
	}
	var err error
	if c.Timeline.BridgeSocket, err = expandPath(strings.TrimSpace(c.Timeline.BridgeSocket)); err != nil {
		return fmt.Errorf("timeline.bridge_socket: %w", err)
	}
	if c.Timeline.MaxAttempts <= 0 {
		c.Timeline.MaxAttempts = defaultTimelineAttempts
	}
	if c.Timeline.RetryDelayMS < 0 {
		c.Timeline.RetryDelayMS = defaultTimelineDelayMS
	}
	return nil
}

func (c *Config) normalizeHost() error {
	if len(c.Host.Command) == 0 {
		if value, ok := os.LookupEnv("TALKCLIP_HOST_COMMAND"); ok {
			c.Host.Command = strings.Fields(value)
		}
	}
	c.Host.CharacterID = strings.TrimSpace(c.Host.CharacterID)
	c.Host.CharacterName = strings.TrimSpace(c.Host.CharacterName)
	if c.Host.CharacterName == "" {
		c.Host.CharacterName = c.Host.CharacterID
	}
	if c.Host.TimeoutSeconds <= 0 {
		c.Host.TimeoutSeconds = defaultHostTimeout
	}
	if file := strings.TrimSpace(c.Host.TextFile); file != "" {
		var err error
		if c.Host.TextFile, err = expandPath(file); err != nil {
			return fmt.Errorf("host.text_file: %w", err)
		}
	}
	return nil
}

// Zero values in a [[characters]] entry mean "unset" and take the defaults,
// so a volume of 0 is not expressible; use a small positive value instead.
func (c *Config) normalizeCharacters() {
	def := DefaultCharacter()
	for i := range c.Characters {
		ch := &c.Characters[i]
		ch.ID = strings.TrimSpace(ch.ID)
		ch.Keyword = strings.TrimSpace(ch.Keyword)
		ch.TimelineName = strings.TrimSpace(ch.TimelineName)
		if ch.PlaySpeed == 0 {
			ch.PlaySpeed = def.PlaySpeed
		}
		if ch.Volume == 0 {
			ch.Volume = def.Volume
		}
		if ch.Layer == 0 {
			ch.Layer = def.Layer
		}
		if strings.TrimSpace(ch.Text.Font) == "" {
			ch.Text.Font = def.Text.Font
		}
		if ch.Text.Size == 0 {
			ch.Text.Size = def.Text.Size
		}
		if ch.Text.Color == "" {
			ch.Text.Color = def.Text.Color
		}
		if ch.Text.EdgeColor == "" {
			ch.Text.EdgeColor = def.Text.EdgeColor
		}
		if ch.Text.Align == 0 {
			ch.Text.Align = def.Text.Align
		}
		if ch.Render.Scale == 0 {
			ch.Render.Scale = def.Render.Scale
		}
		ch.Render.Movement.Mode = strings.ToLower(strings.TrimSpace(ch.Render.Movement.Mode))
		if ch.Render.Movement.Mode == "" {
			ch.Render.Movement.Mode = "none"
		}
		ch.Text.Color = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ch.Text.Color), "#"))
		ch.Text.EdgeColor = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ch.Text.EdgeColor), "#"))
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
