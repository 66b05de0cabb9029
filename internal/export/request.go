package export

import (
	"fmt"

	"talkclip/internal/config"
	"talkclip/internal/fragment"
	"talkclip/internal/host"
	"talkclip/internal/services"
	"talkclip/internal/sidecar"
	"talkclip/internal/textrule"
)

// Request is one export invocation. Build it with NewRequest; it is not
// modified once built.
type Request struct {
	Host     host.Host
	Rules    textrule.Rules
	Fragment fragment.Settings
	Encoding sidecar.Encoding
	Config   *config.Config
	// Text is used unless the configuration reads the text from the host.
	Text string
}

// NewRequest compiles cfg's rule sets and fragment settings for one export.
func NewRequest(cfg *config.Config, h host.Host, text string) (Request, error) {
	if cfg == nil {
		return Request{}, services.Wrap(services.ErrConfiguration, "export", "request", "configuration required", nil)
	}
	rules, err := textrule.FromConfig(cfg.Replace)
	if err != nil {
		return Request{}, services.Wrap(services.ErrConfiguration, "export", "replace rules", "", err)
	}
	settings, err := fragment.SettingsFromConfig(cfg.Fragment)
	if err != nil {
		return Request{}, services.Wrap(services.ErrConfiguration, "export", "fragment settings", "", err)
	}
	enc, err := sidecar.ParseEncoding(cfg.Text.Encoding)
	if err != nil {
		return Request{}, services.Wrap(services.ErrConfiguration, "export", "sidecar encoding", "", err)
	}
	if h == nil {
		return Request{}, fmt.Errorf("%w: speech host required", services.ErrConfiguration)
	}
	return Request{
		Host:     h,
		Rules:    rules,
		Fragment: settings,
		Encoding: enc,
		Config:   cfg,
		Text:     text,
	}, nil
}
