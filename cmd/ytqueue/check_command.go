package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ytget/ytqueue/internal/config"
	"github.com/ytget/ytqueue/internal/platform"
	"github.com/ytget/ytqueue/internal/ui"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify that yt-dlp and ffmpeg are installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := ui.ShouldColorize(out)

			missing := 0
			for _, status := range platform.CheckTools(toolRequirements(cfg)) {
				switch {
				case status.Available:
					fmt.Fprintln(out, renderStatusLine(status.Name, statusOK, status.Path, colorize))
				case status.Optional:
					fmt.Fprintln(out, renderStatusLine(status.Name, statusWarn, status.Detail+"; "+status.Description, colorize))
				default:
					missing++
					fmt.Fprintln(out, renderStatusLine(status.Name, statusError, status.Detail+"; "+status.Description, colorize))
				}
			}
			if missing > 0 {
				return fmt.Errorf("%d required tool(s) missing", missing)
			}
			return nil
		},
	}
}

func toolRequirements(cfg *config.Config) []platform.Requirement {
	return []platform.Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.Fetch.Binary,
			Description: "required for every download",
		},
		{
			Name:        "ffmpeg",
			Command:     ffmpegCommand(cfg.Fetch.FFmpegLocation),
			Description: "needed to merge video and extract mp3 audio",
			Optional:    true,
		},
	}
}

// ffmpegCommand accepts either the binary or its directory, as yt-dlp does
func ffmpegCommand(location string) string {
	if location == "" {
		return "ffmpeg"
	}
	if info, err := os.Stat(location); err == nil && info.IsDir() {
		return filepath.Join(location, "ffmpeg")
	}
	return location
}
