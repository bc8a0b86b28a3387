package fetch

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ytget/ytqueue/internal/model"
)

// FFmpegMissingMessage is reported when post-processing fails on ffmpeg
const FFmpegMissingMessage = "Extract Audio Error (FFmpeg missing?)"

// classify maps an engine failure onto a marked error. tail holds the last
// stderr lines that were not progress output.
func classify(ctx context.Context, binary string, err error, tail []string) error {
	if errors.Is(err, exec.ErrNotFound) {
		return model.Wrap(model.ErrTransfer, "", fmt.Sprintf("%s not found (is it installed?)", binary), nil)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return model.Wrap(model.ErrTransfer, "fetch", "cancelled", ctxErr)
	}

	combined := strings.ToLower(err.Error() + "\n" + strings.Join(tail, "\n"))
	if strings.Contains(combined, "ffmpeg") || strings.Contains(combined, "ffprobe") {
		return model.Wrap(model.ErrPostProcess, "", FFmpegMissingMessage, nil)
	}

	if msg := lastErrorLine(tail); msg != "" {
		return model.Wrap(model.ErrTransfer, "", msg, nil)
	}
	return model.Wrap(model.ErrTransfer, "fetch", "engine failed", err)
}

func lastErrorLine(tail []string) string {
	for i := len(tail) - 1; i >= 0; i-- {
		line := strings.TrimSpace(tail[i])
		if rest, ok := strings.CutPrefix(line, "ERROR:"); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}
