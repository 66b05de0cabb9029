package naming

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"talkclip/internal/services"
)

// nameMax is the longest single path element most filesystems accept.
const nameMax = 255

// PathStatus classifies why an output path was rejected.
type PathStatus int

const (
	PathValid PathStatus = iota
	PathEmpty
	PathTooLong
	PathInvalidChars
	PathDirNotFound
)

func (s PathStatus) String() string {
	switch s {
	case PathValid:
		return "valid"
	case PathEmpty:
		return "empty"
	case PathTooLong:
		return "too_long"
	case PathInvalidChars:
		return "invalid_chars"
	case PathDirNotFound:
		return "dir_not_found"
	default:
		return fmt.Sprintf("path_status(%d)", int(s))
	}
}

// PathError reports a rejected output path.
type PathError struct {
	Status PathStatus
	Path   string
}

func (e *PathError) Error() string {
	switch e.Status {
	case PathEmpty:
		return "save path is empty"
	case PathTooLong:
		return "save path is too long"
	case PathInvalidChars:
		return "save path contains invalid characters"
	case PathDirNotFound:
		return "save directory does not exist"
	default:
		return "save path is invalid"
	}
}

func (e *PathError) Unwrap() error { return services.ErrValidation }

// CheckPath validates a file path about to be written. maxLen counts runes of
// the whole path; zero disables that limit.
func CheckPath(path string, maxLen int) error {
	if strings.TrimSpace(path) == "" {
		return &PathError{Status: PathEmpty, Path: path}
	}
	if !utf8.ValidString(path) || strings.ContainsRune(path, 0) {
		return &PathError{Status: PathInvalidChars, Path: path}
	}
	base := filepath.Base(path)
	if Sanitize(base) != base {
		return &PathError{Status: PathInvalidChars, Path: path}
	}
	if maxLen > 0 && utf8.RuneCountInString(path) > maxLen {
		return &PathError{Status: PathTooLong, Path: path}
	}
	if len(base) > nameMax {
		return &PathError{Status: PathTooLong, Path: path}
	}
	info, err := os.Stat(filepath.Dir(path))
	if err != nil || !info.IsDir() {
		return &PathError{Status: PathDirNotFound, Path: path}
	}
	return nil
}

// StatusOf extracts the PathStatus carried by err.
func StatusOf(err error) PathStatus {
	if err == nil {
		return PathValid
	}
	var pe *PathError
	if errors.As(err, &pe) {
		return pe.Status
	}
	return PathValid
}
