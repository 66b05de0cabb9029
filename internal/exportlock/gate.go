// Package exportlock keeps at most one export in flight per machine.
package exportlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

// ErrBusy is returned when another export holds the gate.
var ErrBusy = errors.New("another export is in progress")

// Gate combines an in-process mutex with a lock file shared by every
// talkclip process using the same state directory.
type Gate struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

// New returns a gate backed by the lock file at path.
func New(path string) *Gate {
	return &Gate{path: path, lock: flock.New(path)}
}

// Path returns the lock file path.
func (g *Gate) Path() string { return g.path }

// Acquire takes the gate without waiting. The returned func releases it.
func (g *Gate) Acquire() (func(), error) {
	if !g.mu.TryLock() {
		return nil, ErrBusy
	}
	if err := os.MkdirAll(filepath.Dir(g.path), 0o755); err != nil {
		g.mu.Unlock()
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	ok, err := g.lock.TryLock()
	if err != nil {
		g.mu.Unlock()
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		g.mu.Unlock()
		return nil, ErrBusy
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			_ = g.lock.Unlock()
			g.mu.Unlock()
		})
	}, nil
}
