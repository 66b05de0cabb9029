package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var colorPattern = regexp.MustCompile(`^[0-9a-f]{6}$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateNaming(); err != nil {
		return err
	}
	if err := c.validateText(); err != nil {
		return err
	}
	if err := c.validateReplace(); err != nil {
		return err
	}
	if err := c.validateFragment(); err != nil {
		return err
	}
	if err := c.validateEditor(); err != nil {
		return err
	}
	if err := c.validateTimeline(); err != nil {
		return err
	}
	if err := c.validateCharacters(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.SaveDir == "" {
		return errors.New("paths.save_dir must be set (or TALKCLIP_SAVE_DIR)")
	}
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateNaming() error {
	if c.Naming.MaxTextLength < 0 {
		return errors.New("naming.max_text_length must be >= 0")
	}
	if strings.ContainsAny(c.Naming.Template, `/\`) {
		return errors.New("naming.template must not contain path separators")
	}
	return nil
}

func (c *Config) validateText() error {
	if c.Text.UseHostText && c.Host.TextFile == "" {
		return errors.New("text.use_host_text needs host.text_file to read the engine's text from")
	}
	switch c.Text.Encoding {
	case "utf-8", "shift_jis":
		return nil
	default:
		return fmt.Errorf("text.encoding: unsupported value %q (want utf-8 or shift_jis)", c.Text.Encoding)
	}
}

func (c *Config) validateReplace() error {
	check := func(section string, rules []ReplaceRule) error {
		for i, rule := range rules {
			if rule.Pattern == "" {
				return fmt.Errorf("replace.%s[%d].pattern must be set", section, i)
			}
			if rule.Regex {
				if _, err := regexp.Compile(rule.Pattern); err != nil {
					return fmt.Errorf("replace.%s[%d].pattern: %w", section, i, err)
				}
			}
		}
		return nil
	}
	if err := check("voice", c.Replace.Voice); err != nil {
		return err
	}
	return check("subtitle", c.Replace.Subtitle)
}

func (c *Config) validateFragment() error {
	f := c.Fragment
	if f.Width <= 0 || f.Height <= 0 {
		return errors.New("fragment.width and fragment.height must be positive")
	}
	if f.FPS <= 0 {
		return errors.New("fragment.fps must be positive")
	}
	if f.ExtraFrames < 0 {
		return errors.New("fragment.extra_frames must be >= 0")
	}
	if f.AudioSampleRate <= 0 {
		return errors.New("fragment.audio_sample_rate must be positive")
	}
	if f.AudioChannels != 1 && f.AudioChannels != 2 {
		return errors.New("fragment.audio_channels must be 1 or 2")
	}
	switch f.Rounding {
	case "floor", "ceil":
	default:
		return fmt.Errorf("fragment.rounding: unsupported value %q (want floor or ceil)", f.Rounding)
	}
	return nil
}

func (c *Config) validateEditor() error {
	if c.Editor.SyncEnvironment && !c.Editor.Handoff {
		return errors.New("editor.sync_environment requires editor.handoff")
	}
	if c.Editor.Handoff && !c.Fragment.Enabled {
		return errors.New("editor.handoff requires fragment.enabled")
	}
	return nil
}

func (c *Config) validateTimeline() error {
	if c.Timeline.MaxAttempts > 100 {
		return errors.New("timeline.max_attempts must be <= 100")
	}
	return nil
}

func (c *Config) validateCharacters() error {
	seen := map[string]struct{}{}
	for i, ch := range c.Characters {
		key := strings.ToLower(ch.ID)
		if _, ok := seen[key]; ok {
			return fmt.Errorf("characters[%d]: duplicate id %q", i, ch.ID)
		}
		seen[key] = struct{}{}
		if ch.PlaySpeed <= 0 {
			return fmt.Errorf("characters[%d].play_speed must be positive", i)
		}
		if ch.Layer < 1 || ch.Layer > 100 {
			return fmt.Errorf("characters[%d].layer must be between 1 and 100", i)
		}
		if !colorPattern.MatchString(ch.Text.Color) || !colorPattern.MatchString(ch.Text.EdgeColor) {
			return fmt.Errorf("characters[%d]: text colors must be 6 hex digits", i)
		}
		if err := validateMovement(ch.Render.Movement); err != nil {
			return fmt.Errorf("characters[%d].render.movement: %w", i, err)
		}
	}
	return nil
}

func validateMovement(m RenderMovement) error {
	idx := m.ModeIndex()
	if idx < 0 {
		return fmt.Errorf("unsupported mode %q (want one of %s)", m.Mode, strings.Join(MovementModes, ", "))
	}
	if m.Interval < 0 {
		return errors.New("interval must be >= 0")
	}
	if idx == 0 && (m.Accelerate || m.Decelerate || m.Interval != 0) {
		return errors.New("accelerate, decelerate and interval need a mode other than none")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
