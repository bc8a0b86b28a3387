package fetch

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/ytget/ytqueue/internal/logging"
	"github.com/ytget/ytqueue/internal/model"
)

func TestBuildArgsVideo(t *testing.T) {
	y := NewYTDLP(Options{Logger: logging.Discard()})
	args := y.BuildArgs(Request{Source: "https://youtube.com/watch?v=x", Format: model.FormatVideo, DestDir: "/dl"})

	if !hasPair(args, "-f", VideoFormatSelector) {
		t.Errorf("expected video selector in %v", args)
	}
	if !hasPair(args, "--merge-output-format", "mp4") {
		t.Errorf("expected mp4 merge in %v", args)
	}
	if !hasPair(args, "-o", filepath.Join("/dl", "%(title)s.%(ext)s")) {
		t.Errorf("expected output template in %v", args)
	}
	if slices.Contains(args, "--extract-audio") {
		t.Errorf("video download must not extract audio: %v", args)
	}
	if args[len(args)-1] != "https://youtube.com/watch?v=x" || args[len(args)-2] != "--" {
		t.Errorf("source must be last after --: %v", args)
	}
}

func TestBuildArgsAudio(t *testing.T) {
	y := NewYTDLP(Options{AudioQuality: "320", FFmpegLocation: "/opt/ffmpeg", Logger: logging.Discard()})
	args := y.BuildArgs(Request{Source: "ytsearch1:A - B", Format: model.FormatAudio, DestDir: "/dl/Mix"})

	for _, pair := range [][2]string{
		{"-f", AudioFormatSelector},
		{"--audio-format", "mp3"},
		{"--audio-quality", "320"},
		{"--ffmpeg-location", "/opt/ffmpeg"},
	} {
		if !hasPair(args, pair[0], pair[1]) {
			t.Errorf("expected %s %s in %v", pair[0], pair[1], args)
		}
	}
	if !slices.Contains(args, "--extract-audio") {
		t.Errorf("expected --extract-audio in %v", args)
	}
}

func TestClassify(t *testing.T) {
	ctx := context.Background()
	exitErr := errors.New("exit status 1")

	err := classify(ctx, "yt-dlp", exitErr, []string{"ERROR: Postprocessing: ffprobe and ffmpeg not found. Please install"})
	if !errors.Is(err, model.ErrPostProcess) {
		t.Fatalf("expected post-process marker, got %v", err)
	}
	if got := model.Describe(err); got != FFmpegMissingMessage {
		t.Errorf("Describe = %q", got)
	}

	err = classify(ctx, "yt-dlp", exitErr, []string{"WARNING: something", "ERROR: [youtube] x: Video unavailable"})
	if !errors.Is(err, model.ErrTransfer) {
		t.Fatalf("expected transfer marker, got %v", err)
	}
	if got := model.Describe(err); got != "[youtube] x: Video unavailable" {
		t.Errorf("Describe = %q", got)
	}

	err = classify(ctx, "yt-dlp", exitErr, nil)
	if !errors.Is(err, model.ErrTransfer) || !strings.Contains(err.Error(), "exit status 1") {
		t.Errorf("expected wrapped exit error, got %v", err)
	}

	err = classify(ctx, "yt-dlp-missing", &exec.Error{Name: "yt-dlp-missing", Err: exec.ErrNotFound}, nil)
	if !errors.Is(err, model.ErrTransfer) || !strings.Contains(model.Describe(err), "yt-dlp-missing not found") {
		t.Errorf("unexpected not-found classification: %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err = classify(cancelled, "yt-dlp", exitErr, []string{"ERROR: ffmpeg"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation to win, got %v", err)
	}
}

func TestFetchWithFakeEngine(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script engine")
	}
	dest := t.TempDir()
	script := writeScript(t, `
echo "ytq-progress downloading|0|1000|NA|NA"
echo "ytq-progress downloading|500|1000|NA|1000" 1>&2
echo "[download] unrelated line"
echo "ytq-progress finished|1000|1000|NA|NA"
echo "ytq-post started|ExtractAudio"
echo "ytq-title Artist - Song"
echo "ytq-path `+"$DEST"+`/Artist - Song.mp3"
`)
	t.Setenv("DEST", dest)

	y := NewYTDLP(Options{Binary: script, Logger: logging.Discard()})
	var mu sync.Mutex
	var reports []Progress
	result, err := y.Fetch(context.Background(), Request{Source: "ytsearch1:Artist - Song", Format: model.FormatAudio, DestDir: dest}, func(p Progress) {
		mu.Lock()
		reports = append(reports, p)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if result.Title != "Artist - Song" {
		t.Errorf("title = %q", result.Title)
	}
	if result.Path != filepath.Join(dest, "Artist - Song.mp3") {
		t.Errorf("path = %q", result.Path)
	}
	if len(reports) != 4 {
		t.Fatalf("expected 4 progress reports, got %d: %+v", len(reports), reports)
	}
	// stdout and stderr are read concurrently, so only stdout order is fixed
	if !slices.ContainsFunc(reports, func(p Progress) bool { return p.PostProcessing }) {
		t.Errorf("expected a post-processing signal: %+v", reports)
	}
}

func TestFetchFailureUsesStderr(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script engine")
	}
	script := writeScript(t, `
echo "ERROR: Postprocessing: ffprobe and ffmpeg not found" 1>&2
exit 1
`)
	y := NewYTDLP(Options{Binary: script, Logger: logging.Discard()})
	_, err := y.Fetch(context.Background(), Request{Source: "x", Format: model.FormatAudio, DestDir: t.TempDir()}, nil)
	if !errors.Is(err, model.ErrPostProcess) {
		t.Fatalf("expected post-process error, got %v", err)
	}
}

func TestFetchMissingBinary(t *testing.T) {
	y := NewYTDLP(Options{Binary: "ytqueue-no-such-engine", Logger: logging.Discard()})
	_, err := y.Fetch(context.Background(), Request{Source: "x", DestDir: t.TempDir()}, nil)
	if !errors.Is(err, model.ErrTransfer) {
		t.Fatalf("expected transfer error, got %v", err)
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-yt-dlp")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func hasPair(args []string, flag, value string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}
