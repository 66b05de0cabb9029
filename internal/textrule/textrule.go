// Package textrule applies ordered text substitutions to voice and subtitle text.
package textrule

import (
	"fmt"
	"regexp"
	"strings"

	"talkclip/internal/config"
)

type rule struct {
	literal     string
	re          *regexp.Regexp
	replacement string
}

// Set is an ordered list of substitutions. The zero value is an identity.
type Set struct {
	rules []rule
}

// Compile builds a Set from configured rules, skipping disabled ones.
func Compile(rules []config.ReplaceRule) (Set, error) {
	var set Set
	for i, r := range rules {
		if r.Disabled || r.Pattern == "" {
			continue
		}
		compiled := rule{replacement: r.Replacement}
		if r.Regex {
			re, err := regexp.Compile(r.Pattern)
			if err != nil {
				return Set{}, fmt.Errorf("rule %d: %w", i, err)
			}
			compiled.re = re
		} else {
			compiled.literal = r.Pattern
		}
		set.rules = append(set.rules, compiled)
	}
	return set, nil
}

// Len reports the number of active rules.
func (s Set) Len() int { return len(s.rules) }

// Apply runs every rule in order over text.
func (s Set) Apply(text string) string {
	for _, r := range s.rules {
		if r.re != nil {
			text = r.re.ReplaceAllString(text, r.replacement)
			continue
		}
		text = strings.ReplaceAll(text, r.literal, r.replacement)
	}
	return text
}

// Rules bundles the voice and subtitle rule sets of one export.
type Rules struct {
	Voice    Set
	Subtitle Set
}

// FromConfig compiles both rule sets.
func FromConfig(cfg config.Replace) (Rules, error) {
	voice, err := Compile(cfg.Voice)
	if err != nil {
		return Rules{}, fmt.Errorf("voice: %w", err)
	}
	subtitle, err := Compile(cfg.Subtitle)
	if err != nil {
		return Rules{}, fmt.Errorf("subtitle: %w", err)
	}
	return Rules{Voice: voice, Subtitle: subtitle}, nil
}
