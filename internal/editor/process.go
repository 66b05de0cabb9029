package editor

import (
	"os"
	"path/filepath"
	"strings"
)

// commLen is the kernel's limit on /proc/<pid>/comm.
const commLen = 15

// ProcScanner finds processes by name in a procfs tree.
type ProcScanner struct {
	Root string
}

// Running reports whether any process's comm matches name. Names compare
// case-insensitively without a trailing ".exe", truncated like comm.
func (p ProcScanner) Running(name string) bool {
	root := p.Root
	if root == "" {
		root = "/proc"
	}
	want := commName(name)
	if want == "" {
		return false
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() || !isPID(e.Name()) {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(root, e.Name(), "comm"))
		if err != nil {
			continue
		}
		if commName(strings.TrimSpace(string(raw))) == want {
			return true
		}
	}
	return false
}

func commName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if len(name) > commLen {
		name = name[:commLen]
	}
	return strings.TrimSuffix(name, ".exe")
}

func isPID(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
