package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ytget/ytqueue/internal/config"
	"github.com/ytget/ytqueue/internal/credentials"
	"github.com/ytget/ytqueue/internal/download"
	"github.com/ytget/ytqueue/internal/fetch"
	"github.com/ytget/ytqueue/internal/history"
	"github.com/ytget/ytqueue/internal/model"
	"github.com/ytget/ytqueue/internal/resolve"
	"github.com/ytget/ytqueue/internal/ui"
)

type getOptions struct {
	format   string
	folder   string
	file     string
	parallel int
}

func newGetCommand(ctx *commandContext) *cobra.Command {
	var opts getOptions

	cmd := &cobra.Command{
		Use:   "get [SOURCE...]",
		Short: "Download videos, YouTube playlists or Spotify playlists",
		Long: `Download every SOURCE and wait until all jobs finish.

A SOURCE is a URL, a search query understood by yt-dlp, or a Spotify
playlist link. Spotify playlists are expanded into one search job per
track. Use --file - to read sources from stdin, one per line.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && opts.file == "" {
				return errors.New("no sources given (pass URLs or --file)")
			}
			format, err := model.ParseFormat(opts.format)
			if err != nil {
				return err
			}
			return ctx.withCredentials(func(cfg *config.Config, store credentials.Store) error {
				return runGet(cmd, ctx, cfg, store, format, opts, args)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "video", "Output format: video (mp4) or audio (mp3)")
	cmd.Flags().StringVar(&opts.folder, "folder", "", "Subfolder of the downloads directory")
	cmd.Flags().StringVar(&opts.file, "file", "", "Read sources from a file, one per line (- for stdin)")
	cmd.Flags().IntVarP(&opts.parallel, "parallel", "p", 0, "Override workers.max_parallel")
	return cmd
}

func runGet(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, store credentials.Store, format model.Format, opts getOptions, args []string) error {
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	maxParallel := cfg.Workers.MaxParallel
	if opts.parallel > 0 {
		maxParallel = min(max(opts.parallel, config.MinParallel), config.MaxParallel)
	}

	svc := download.NewService(download.Options{
		DownloadsDir:  cfg.Paths.DownloadsDir,
		MaxParallel:   maxParallel,
		FlushInterval: cfg.FlushInterval(),
		Resolve: resolve.Options{
			Stagger:        cfg.Stagger(),
			PlaceholderTTL: cfg.PlaceholderTTL(),
			Timeout:        cfg.ResolveTimeout(),
			ExpandYouTube:  cfg.Playlist.ExpandYouTube,
		},
	}, download.Deps{
		Fetcher: fetch.NewYTDLP(fetch.OptionsFromConfig(cfg, logger)),
		History: history.Open(cfg.Paths.HistoryFile, logger),
		Spotify: resolve.SpotifyFromStore(store, resolve.SpotifyOptionsFromConfig(cfg)),
		YouTube: resolve.NewYouTubeProvider(),
		Logger:  logger,
	})

	out := cmd.OutOrStdout()
	renderer := ui.NewRenderer(out, ui.ShouldColorize(out))
	svc.OnJobUpdated(renderer.Observe)

	runCtx := cmd.Context()
	if runCtx == nil {
		runCtx = context.Background()
	}
	svc.Start(runCtx)

	submitted := make(chan struct{})
	group, groupCtx := errgroup.WithContext(runCtx)
	group.Go(func() error {
		defer close(submitted)
		return submitSources(groupCtx, svc, cmd.InOrStdin(), format, opts, args)
	})
	group.Go(func() error {
		select {
		case <-submitted:
		case <-groupCtx.Done():
			return groupCtx.Err()
		}
		return svc.Wait(groupCtx)
	})
	waitErr := group.Wait()

	svc.Close()
	summary := renderer.WriteSummary()

	if waitErr != nil {
		return waitErr
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d job(s) failed", summary.Failed)
	}
	return nil
}

func submitSources(ctx context.Context, svc *download.Service, stdin io.Reader, format model.Format, opts getOptions, args []string) error {
	submit := func(source string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := svc.SubmitJob(source, format, opts.folder); err != nil {
			if errors.Is(err, model.ErrEmptySource) {
				return nil
			}
			return fmt.Errorf("submit %q: %w", source, err)
		}
		return nil
	}

	for _, source := range args {
		if err := submit(source); err != nil {
			return err
		}
	}
	if opts.file == "" {
		return nil
	}

	reader := stdin
	if opts.file != "-" {
		file, err := os.Open(opts.file)
		if err != nil {
			return fmt.Errorf("open sources file: %w", err)
		}
		defer file.Close()
		reader = file
	}
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := submit(line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read sources: %w", err)
	}
	return nil
}
