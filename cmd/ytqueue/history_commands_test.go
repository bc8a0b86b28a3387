package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHistoryListAndClear(t *testing.T) {
	env := setupCLITestEnv(t, "")

	out, _, err := runCLI(t, env, "", "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "History is empty")

	content := `[
    {"date": "2024-03-09 14:05:07", "title": "Newest Song", "url": "ytsearch1:A - Newest Song", "format": "mp3", "path": "/dl/Mix"},
    {"date": "2024-03-08 10:00:00", "title": "Older Video", "url": "https://youtube.com/watch?v=1", "format": "mp4", "path": "/dl"}
]`
	if err := os.MkdirAll(filepath.Dir(env.historyPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(env.historyPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write history: %v", err)
	}

	out, _, err = runCLI(t, env, "", "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "Newest Song")
	requireContains(t, out, "Audio (MP3)")
	requireContains(t, out, "ago")

	out, _, err = runCLI(t, env, "", "history", "clear")
	if err != nil {
		t.Fatalf("history clear: %v", err)
	}
	requireContains(t, out, "Removed 2 history entries")

	data, err := os.ReadFile(env.historyPath)
	if err != nil {
		t.Fatalf("read history: %v", err)
	}
	if string(data) != "[]" {
		t.Fatalf("expected empty array, got %s", data)
	}
}
