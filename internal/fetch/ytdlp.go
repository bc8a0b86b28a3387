package fetch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/ytget/ytqueue/internal/config"
	"github.com/ytget/ytqueue/internal/model"
)

// Engine options
const (
	VideoFormatSelector = "bestvideo+bestaudio/best"
	AudioFormatSelector = "bestaudio/best"
	VideoContainer      = "mp4"
	AudioCodec          = "mp3"

	stderrTailLines = 20
)

// Options configures the yt-dlp runner
type Options struct {
	Binary           string
	FFmpegLocation   string
	AudioQuality     string
	FilenameTemplate string
	Logger           *slog.Logger
}

// OptionsFromConfig maps the [fetch] section onto runner options
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) Options {
	return Options{
		Binary:           cfg.Fetch.Binary,
		FFmpegLocation:   cfg.Fetch.FFmpegLocation,
		AudioQuality:     cfg.Fetch.AudioQuality,
		FilenameTemplate: cfg.Fetch.FilenameTemplate,
		Logger:           logger,
	}
}

// YTDLP drives the yt-dlp command line program
type YTDLP struct {
	opts   Options
	logger *slog.Logger
}

// NewYTDLP creates a runner, filling unset options with defaults
func NewYTDLP(opts Options) *YTDLP {
	if opts.Binary == "" {
		opts.Binary = config.DefaultBinary
	}
	if opts.AudioQuality == "" {
		opts.AudioQuality = config.DefaultAudioQuality
	}
	if opts.FilenameTemplate == "" {
		opts.FilenameTemplate = config.DefaultFilenameTemplate
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &YTDLP{opts: opts, logger: logger.With("component", "fetch")}
}

// Binary returns the configured executable
func (y *YTDLP) Binary() string {
	return y.opts.Binary
}

// BuildArgs builds the yt-dlp command arguments
func (y *YTDLP) BuildArgs(req Request) []string {
	args := []string{
		"--newline",
		"--progress",
		"--no-simulate",
		"--no-playlist",
		"--progress-template", progressTemplate,
		"--progress-template", postTemplate,
		"--print", titleTemplate,
		"--print", pathTemplate,
		"-o", filepath.Join(req.DestDir, y.opts.FilenameTemplate),
	}
	if y.opts.FFmpegLocation != "" {
		args = append(args, "--ffmpeg-location", y.opts.FFmpegLocation)
	}

	switch req.Format {
	case model.FormatAudio:
		args = append(args,
			"-f", AudioFormatSelector,
			"--extract-audio",
			"--audio-format", AudioCodec,
			"--audio-quality", y.opts.AudioQuality,
		)
	default:
		args = append(args,
			"-f", VideoFormatSelector,
			"--merge-output-format", VideoContainer,
		)
	}

	return append(args, "--", req.Source)
}

// Fetch runs one transfer to completion
func (y *YTDLP) Fetch(ctx context.Context, req Request, onProgress ProgressFunc) (Result, error) {
	if onProgress == nil {
		onProgress = func(Progress) {}
	}

	cmd := exec.CommandContext(ctx, y.opts.Binary, y.BuildArgs(req)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, model.Wrap(model.ErrTransfer, "fetch", "create stdout pipe", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, model.Wrap(model.ErrTransfer, "fetch", "create stderr pipe", err)
	}

	y.logger.Debug("starting engine", "source", req.Source, "format", string(req.Format), "dest", req.DestDir)
	if err := cmd.Start(); err != nil {
		return Result{}, classify(ctx, y.opts.Binary, err, nil)
	}

	out := &outputState{onProgress: onProgress}
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		out.consume(stdout, false)
	}()
	go func() {
		defer wg.Done()
		out.consume(stderr, true)
	}()
	wg.Wait()

	waitErr := cmd.Wait()
	result := out.result()
	if waitErr != nil {
		return result, classify(ctx, y.opts.Binary, waitErr, out.stderrTail())
	}
	if result.Path == "" {
		result.Path = req.DestDir
	}
	return result, nil
}

type outputState struct {
	mu         sync.Mutex
	onProgress ProgressFunc
	title      string
	path       string
	tail       []string
}

func (o *outputState) consume(r io.Reader, isStderr bool) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		o.handle(parseLine(scanner.Text()), isStderr)
	}
}

func (o *outputState) handle(line parsedLine, isStderr bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch line.kind {
	case lineProgress, linePost:
		o.onProgress(line.progress)
	case lineTitle:
		o.title = line.value
	case linePath:
		o.path = line.value
	default:
		if isStderr && line.value != "" {
			o.tail = append(o.tail, line.value)
			if len(o.tail) > stderrTailLines {
				o.tail = o.tail[len(o.tail)-stderrTailLines:]
			}
		}
	}
}

func (o *outputState) result() Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Result{Title: o.title, Path: o.path}
}

func (o *outputState) stderrTail() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.tail...)
}

// String describes the runner for logs
func (y *YTDLP) String() string {
	return fmt.Sprintf("yt-dlp(%s)", y.opts.Binary)
}
