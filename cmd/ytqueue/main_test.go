package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestGetDownloadsAndRecordsHistory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script engine")
	}
	engine := writeEngine(t, `
echo "ytq-progress downloading|50|100|NA|2048"
echo "ytq-title Fake Video"
echo "ytq-path /tmp/Fake Video.mp4"
`)
	env := setupCLITestEnv(t, engine)

	out, _, err := runCLI(t, env, "", "get", "--folder", "My/Folder!", "https://www.youtube.com/watch?v=abc")
	if err != nil {
		t.Fatalf("get: %v\n%s", err, out)
	}
	requireContains(t, out, "Fake Video")
	requireContains(t, out, "Done: 1 completed, 0 failed")

	if info, err := os.Stat(filepath.Join(env.downloadsDir, "MyFolder")); err != nil || !info.IsDir() {
		t.Fatalf("expected sanitized folder to exist: %v", err)
	}

	data, err := os.ReadFile(env.historyPath)
	if err != nil {
		t.Fatalf("read history: %v", err)
	}
	var records []map[string]string
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(records) != 1 || records[0]["title"] != "Fake Video" || records[0]["format"] != "mp4" {
		t.Fatalf("unexpected history: %s", data)
	}
}

func TestGetReadsSourcesFromStdin(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script engine")
	}
	engine := writeEngine(t, `echo "ytq-title ok"`)
	env := setupCLITestEnv(t, engine)

	stdin := "https://www.youtube.com/watch?v=1\n\n# comment\nhttps://www.youtube.com/watch?v=2\n"
	out, _, err := runCLI(t, env, stdin, "get", "--format", "audio", "--file", "-")
	if err != nil {
		t.Fatalf("get: %v\n%s", err, out)
	}
	requireContains(t, out, "Done: 2 completed, 0 failed")
}

func TestGetFailsWhenAJobFails(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script engine")
	}
	engine := writeEngine(t, `
echo "ERROR: Video unavailable" 1>&2
exit 1
`)
	env := setupCLITestEnv(t, engine)

	out, _, err := runCLI(t, env, "", "get", "https://www.youtube.com/watch?v=gone")
	if err == nil {
		t.Fatal("expected get to fail")
	}
	requireContains(t, err.Error(), "1 job(s) failed")
	requireContains(t, out, "Video unavailable")
}

func TestGetSpotifyWithoutCredentials(t *testing.T) {
	env := setupCLITestEnv(t, "")

	out, _, err := runCLI(t, env, "", "get", "https://open.spotify.com/playlist/abc")
	if err == nil {
		t.Fatal("expected get to fail")
	}
	requireContains(t, out, "Spotify credentials missing")
}

func TestGetRejectsBadFormat(t *testing.T) {
	env := setupCLITestEnv(t, "")

	_, _, err := runCLI(t, env, "", "get", "--format", "flac", "x")
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Fatalf("expected format error, got %v", err)
	}
	_, _, err = runCLI(t, env, "", "get")
	if err == nil {
		t.Fatal("expected error without sources")
	}
}

func TestVersion(t *testing.T) {
	env := setupCLITestEnv(t, "")
	out, _, err := runCLI(t, env, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	requireContains(t, out, "ytqueue dev")
}
