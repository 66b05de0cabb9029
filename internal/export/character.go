package export

import (
	"strings"

	"talkclip/internal/config"
)

// MatchKeyword returns the character whose keyword appears earliest in
// preset. Ties go to the character listed first.
func MatchKeyword(chars []config.Character, preset string) (config.Character, bool) {
	best, bestIndex := -1, -1
	for i, ch := range chars {
		if ch.Keyword == "" {
			continue
		}
		idx := strings.Index(preset, ch.Keyword)
		if idx < 0 {
			continue
		}
		if bestIndex < 0 || idx < bestIndex {
			best, bestIndex = i, idx
		}
	}
	if best < 0 {
		return config.Character{}, false
	}
	return chars[best], true
}
