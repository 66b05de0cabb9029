// Package naming derives output file names and checks output paths.
package naming

import (
	"strings"
	"time"
	"unicode"
)

const (
	dateLayout = "20060102"
	timeLayout = "150405"
)

// Fields are the values substituted into a name template.
type Fields struct {
	Time      time.Time
	Character string
	Text      string
}

// invalid maps characters that break file names on either editor host
// platform to visually similar full-width forms.
var invalid = strings.NewReplacer(
	`\`, "￥",
	"/", "／",
	":", "：",
	"*", "＊",
	"?", "？",
	`"`, "”",
	"<", "＜",
	">", "＞",
	"|", "｜",
)

// Format expands template with {date}, {time}, {character} and {text}. The
// text is flattened to one line and cut to maxText runes when maxText > 0.
func Format(template string, f Fields, maxText int) string {
	ts := f.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	text := flatten(f.Text)
	if maxText > 0 {
		if runes := []rune(text); len(runes) > maxText {
			text = string(runes[:maxText])
		}
	}
	name := strings.NewReplacer(
		"{date}", ts.Format(dateLayout),
		"{time}", ts.Format(timeLayout),
		"{character}", Sanitize(f.Character),
		"{text}", Sanitize(text),
	).Replace(template)
	name = strings.TrimSpace(name)
	name = strings.TrimRight(name, ".")
	if name == "" {
		name = ts.Format(dateLayout + "_" + timeLayout)
	}
	return name
}

// Sanitize replaces characters that are not allowed in a file name.
func Sanitize(s string) string {
	s = invalid.Replace(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
