package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"talkclip/internal/status"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 12
	statusIndent     = "  "
)

var titleCaser = cases.Title(language.English)

func kindLabel(kind status.Kind) string {
	return titleCaser.String(kind.String())
}

func kindColor(kind status.Kind) string {
	switch kind {
	case status.KindSuccess:
		return ansiGreen
	case status.KindWarning:
		return ansiYellow
	case status.KindFail:
		return ansiRed
	case status.KindInformation:
		return ansiBlue
	default:
		return ""
	}
}

func renderStatusLine(label string, kind status.Kind, message string, colorize bool) string {
	statusText := fmt.Sprintf("[%s]", kindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := kindColor(kind); color != "" {
			return color + line + ansiReset
		}
	}
	return line
}

func renderPlainLine(label, value string) string {
	return fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", value)
}

// renderReport prints the primary outcome, the secondary note when there is
// one, and the folder action.
func renderReport(r status.Report, audioPath string, colorize bool) []string {
	lines := []string{renderStatusLine("Export", r.Kind, r.Message, colorize)}
	if r.SubMessage != "" {
		if r.SubKind == status.KindNone {
			lines = append(lines, renderPlainLine("Note", r.SubMessage))
		} else {
			lines = append(lines, renderStatusLine("Note", r.SubKind, r.SubMessage, colorize))
		}
	}
	if audioPath != "" {
		lines = append(lines, renderPlainLine("Audio", audioPath))
	}
	if r.Action != nil && r.ActionTip != "" {
		lines = append(lines, renderPlainLine("Folder", r.ActionTip))
	}
	return lines
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	return isTerminal(file)
}

func isTerminal(file *os.File) bool {
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
