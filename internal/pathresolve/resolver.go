// Package pathresolve picks an output base name that collides with nothing
// an export may write.
package pathresolve

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"talkclip/internal/naming"
)

// Extensions every export may produce next to the audio file.
var Extensions = []string{".wav", ".txt", ".exo"}

// Request describes one name resolution.
type Request struct {
	Dir        string
	Character  string
	Text       string
	Segmenting bool
}

// Resolver expands the naming template and appends "[n]" until the name is free.
type Resolver struct {
	Template      string
	MaxTextLength int
	Now           func() time.Time
}

// Resolve returns the output path without extension. The templated base is
// used as is when free; otherwise "[1]", "[2]", ... are appended to it.
func (r Resolver) Resolve(ctx context.Context, req Request) (string, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	base := naming.Format(r.Template, naming.Fields{
		Time:      now(),
		Character: req.Character,
		Text:      req.Text,
	}, r.MaxTextLength)

	existing, err := listNames(req.Dir)
	if err != nil {
		return "", err
	}

	name := base
	for i := 1; ; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if !collides(existing, name, req.Segmenting) {
			break
		}
		name = base + "[" + strconv.Itoa(i) + "]"
	}
	return filepath.Join(req.Dir, name), nil
}

// listNames returns lower-cased entry names in dir. A missing directory has
// no entries; the path check reports it later.
func listNames(dir string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]struct{}{}, nil
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	names := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		names[strings.ToLower(e.Name())] = struct{}{}
	}
	return names, nil
}

func collides(existing map[string]struct{}, name string, segmenting bool) bool {
	lower := strings.ToLower(name)
	for _, ext := range Extensions {
		if _, ok := existing[lower+ext]; ok {
			return true
		}
	}
	if !segmenting {
		return false
	}
	pattern := SegmentPattern(name)
	for entry := range existing {
		if pattern.MatchString(entry) {
			return true
		}
	}
	return false
}

// SegmentPattern matches "<base>-<digits>.wav|txt" case-insensitively.
func SegmentPattern(base string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(base) + `-\d+\.(wav|txt)$`)
}
