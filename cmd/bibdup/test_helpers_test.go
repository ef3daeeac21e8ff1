package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setupCLIEnv points HOME at a temp directory and writes a config file whose
// paths live under it. Returns the config file path for --config.
func setupCLIEnv(t *testing.T) string {
	t.Helper()

	base := t.TempDir()
	home := filepath.Join(base, "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)

	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
library_db = %q
log_dir = %q

[logging]
level = "error"
`, filepath.Join(base, "library.db"), filepath.Join(base, "logs"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("output missing %q:\n%s", want, output)
	}
}

// addedKey extracts the record key from "Added record <key>" output.
func addedKey(t *testing.T, output string) string {
	t.Helper()
	for _, line := range strings.Split(output, "\n") {
		if rest, ok := strings.CutPrefix(line, "Added record "); ok {
			return strings.TrimSpace(rest)
		}
	}
	t.Fatalf("no added record key in output:\n%s", output)
	return ""
}
