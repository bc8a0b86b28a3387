package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir      string
	configPath   string
	downloadsDir string
	historyPath  string
	credsPath    string
}

func setupCLITestEnv(t *testing.T, binary string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	home := filepath.Join(base, "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)
	t.Setenv("SPOTIFY_CLIENT_ID", "")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "")

	env := &cliTestEnv{
		baseDir:      base,
		configPath:   filepath.Join(base, "ytqueue.toml"),
		downloadsDir: filepath.Join(base, "downloads"),
		historyPath:  filepath.Join(base, "state", "history.json"),
		credsPath:    filepath.Join(base, "state", "credentials.json"),
	}
	if binary == "" {
		binary = "yt-dlp"
	}
	content := fmt.Sprintf(`[paths]
downloads_dir = %q
history_file = %q

[fetch]
binary = %q

[playlist]
placeholder_ttl_ms = 10

[credentials]
backend = "file"
path = %q

[logging]
level = "error"
`, env.downloadsDir, env.historyPath, binary, env.credsPath)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, env *cliTestEnv, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeEngine(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-yt-dlp")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write engine: %v", err)
	}
	return path
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
