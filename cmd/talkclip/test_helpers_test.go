package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"talkclip/internal/config"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	saveDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("TALKCLIP_SAVE_DIR", "")
	t.Setenv("TALKCLIP_HOST_COMMAND", "")

	saveDir := filepath.Join(base, "save")
	if err := os.MkdirAll(saveDir, 0o755); err != nil {
		t.Fatalf("mkdir save: %v", err)
	}

	configPath := filepath.Join(base, "talkclip.toml")
	content := fmt.Sprintf(`[paths]
save_dir = %q
state_dir = %q
log_dir = %q

[fragment]
enabled = false

[editor]
shared_memory_path = %q
drop_socket = %q

[timeline]
bridge_socket = %q

[host]
command = ["sh", "-c", 'cat > "$0"', "{output}"]
character_name = "Akane"
timeout_seconds = 5
`,
		saveDir,
		filepath.Join(base, "state"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "shm", "GCMZDrops"),
		filepath.Join(base, "gcmz.sock"),
		filepath.Join(base, "automation.sock"),
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	return &cliTestEnv{cfg: cfg, configPath: configPath, saveDir: saveDir}
}

func runCLI(t *testing.T, args []string, configPath string, stdin io.Reader) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	cmd.SetIn(stdin)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
