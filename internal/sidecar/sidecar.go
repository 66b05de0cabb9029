// Package sidecar writes the subtitle text file that accompanies a saved clip.
package sidecar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"

	"talkclip/internal/logging"
	"talkclip/internal/retry"
)

const (
	defaultAttempts = 10
	defaultDelay    = 50 * time.Millisecond
)

// ErrContended means another process holds the sidecar file.
var ErrContended = errors.New("sidecar file is locked by another process")

// Encoding selects the sidecar byte encoding.
type Encoding int

const (
	UTF8 Encoding = iota
	ShiftJIS
)

func (e Encoding) String() string {
	if e == ShiftJIS {
		return "shift_jis"
	}
	return "utf-8"
}

// ParseEncoding accepts the normalized config names.
func ParseEncoding(value string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "utf-8", "utf8":
		return UTF8, nil
	case "shift_jis", "shift-jis", "sjis", "cp932":
		return ShiftJIS, nil
	default:
		return UTF8, fmt.Errorf("unsupported sidecar encoding %q", value)
	}
}

// Encode converts text to bytes. UTF-8 output carries no byte-order mark;
// characters Shift-JIS cannot represent become '?'.
func Encode(text string, enc Encoding) ([]byte, error) {
	if enc != ShiftJIS {
		return []byte(text), nil
	}
	encoder := encoding.ReplaceUnsupported(japanese.ShiftJIS.NewEncoder())
	out, err := encoder.Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("encode shift_jis: %w", err)
	}
	return out, nil
}

// Writer writes sidecars, retrying while the target is locked elsewhere.
type Writer struct {
	Policy retry.Policy
	Logger *slog.Logger
}

// NewWriter returns a Writer with 10 attempts 50ms apart that only retries
// lock contention.
func NewWriter(logger *slog.Logger) Writer {
	return Writer{
		Policy: retry.Policy{
			MaxAttempts: defaultAttempts,
			Delay:       defaultDelay,
			Retryable:   IsContention,
		},
		Logger: logger,
	}
}

// Write stores text at path. Contention is retried per the policy; any other
// error abandons the write at once.
func (w Writer) Write(ctx context.Context, path, text string, enc Encoding) error {
	data, err := Encode(text, enc)
	if err != nil {
		return err
	}
	logger := logging.WithContext(ctx, w.Logger)
	err = retry.Do(ctx, w.Policy, func(_ context.Context, attempt int) error {
		err := writeLocked(path, data)
		if err != nil && IsContention(err) {
			logger.Debug("sidecar busy",
				logging.String("path", path),
				logging.Int("attempt", attempt),
			)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("write sidecar %s: %w", path, err)
	}
	return nil
}

func writeLocked(path string, data []byte) error {
	lock := flock.New(path, flock.SetFlag(os.O_CREATE|os.O_WRONLY), flock.SetPermissions(0o644))
	locked, err := lock.TryLock()
	if err != nil {
		return err
	}
	if !locked {
		return ErrContended
	}
	defer func() { _ = lock.Close() }()

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// IsContention reports errors caused by another holder of the file. Plain
// I/O failures such as a missing directory, a full disk or a permission
// error are not contention and are not retried.
func IsContention(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrContended) {
		return true
	}
	for _, errno := range []unix.Errno{unix.EAGAIN, unix.EWOULDBLOCK, unix.EBUSY, unix.ETXTBSY, unix.EINTR} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}
