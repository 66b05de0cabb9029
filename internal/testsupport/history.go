package testsupport

import (
	"testing"

	"talkclip/internal/config"
	"talkclip/internal/history"
)

// NewHistory opens the history journal under cfg's state directory and
// closes it when the test ends.
func NewHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
