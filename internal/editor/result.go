package editor

import (
	"fmt"
	"strings"
)

// Result is the outcome of both a query and a drop.
type Result int

const (
	Success Result = iota
	FileMappingFail
	MapViewFail
	WindowNotFound
	ProjectNotFound
	EditorWindowNotFound
	EditorWindowInvisible
	MessageTimeout
	MessageFail
	Fail
)

var resultNames = []string{
	Success:               "success",
	FileMappingFail:       "file_mapping_fail",
	MapViewFail:           "map_view_fail",
	WindowNotFound:        "window_not_found",
	ProjectNotFound:       "project_not_found",
	EditorWindowNotFound:  "editor_window_not_found",
	EditorWindowInvisible: "editor_window_invisible",
	MessageTimeout:        "message_timeout",
	MessageFail:           "message_fail",
	Fail:                  "fail",
}

func (r Result) String() string {
	if r >= 0 && int(r) < len(resultNames) {
		return resultNames[r]
	}
	return fmt.Sprintf("result(%d)", int(r))
}

// ParseResult maps a wire name to a Result; unknown names are Fail.
func ParseResult(name string) Result {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range resultNames {
		if n == name {
			return Result(i)
		}
	}
	return Fail
}

// Reason is the user-facing explanation of a non-success result.
func (r Result) Reason() string {
	switch r {
	case Success:
		return ""
	case FileMappingFail:
		return "The editor's drop helper is not loaded. Check that the helper plugin is installed."
	case WindowNotFound:
		return "The drop helper window is not open in the editor."
	case ProjectNotFound:
		return "No project is open in the editor."
	case EditorWindowNotFound:
		return "The extended edit window was not found in the editor."
	case EditorWindowInvisible:
		return "The extended edit window is hidden. Show it and try again."
	case MessageTimeout:
		return "The editor did not respond in time."
	default:
		return "Could not hand the fragment to the editor."
	}
}
