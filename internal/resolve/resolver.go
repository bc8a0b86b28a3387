package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ytget/ytqueue/internal/model"
)

// UnknownArtist labels tracks without artist information
const UnknownArtist = "Unknown"

// Advisory messages shown on the placeholder job
const (
	MessageConnecting = "Connecting to Spotify..."
	MessageFetching   = "Fetching playlist..."
	messageFound      = "Found %d songs..."
	messageQueuing    = "Queuing %d songs..."
	messageQueued     = "Queued %d songs"
	messagePartial    = "Queued %d of %d songs"
)

// Reporter receives status for the placeholder job
type Reporter interface {
	Report(id model.JobID, u model.Update)
	Remove(id model.JobID)
}

// Submitter admits derived jobs into the scheduler
type Submitter interface {
	SubmitDerived(parent model.JobID, source, title string, format model.Format, folder string) (model.JobID, error)
}

// Options tunes fan-out
type Options struct {
	// Stagger delays each derived submission after the first. Zero relies on
	// the worker pool for pacing.
	Stagger time.Duration
	// PlaceholderTTL is how long the resolved placeholder stays visible.
	PlaceholderTTL time.Duration
	// Timeout bounds playlist enumeration. Zero means no limit.
	Timeout time.Duration
	// ExpandYouTube turns YouTube playlist links into per-video jobs.
	ExpandYouTube bool
}

// Resolver turns playlist jobs into derived jobs
type Resolver struct {
	spotify  ProviderFactory
	youtube  VideoLister
	reporter Reporter
	submit   Submitter
	opts     Options
	logger   *slog.Logger
}

// NewResolver wires a resolver. spotify or youtube may be nil, in which case
// the matching sources fail resolution.
func NewResolver(spotify ProviderFactory, youtube VideoLister, reporter Reporter, submit Submitter, opts Options, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		spotify:  spotify,
		youtube:  youtube,
		reporter: reporter,
		submit:   submit,
		opts:     opts,
		logger:   logger.With("component", "resolver"),
	}
}

// NeedsResolution reports whether source must pass through Resolve instead
// of going straight to the worker pool
func (r *Resolver) NeedsResolution(source string) bool {
	kind := Classify(source).Kind
	if kind.IsSpotify() {
		return true
	}
	return kind == KindYouTubePlaylist && r.opts.ExpandYouTube
}

type derived struct {
	source string
	title  string
}

// Resolve enumerates the playlist behind job and submits one derived job per
// entry. The placeholder ends Completed with the number of jobs actually
// queued, or Error when nothing was queued; it is removed PlaceholderTTL
// after success.
func (r *Resolver) Resolve(ctx context.Context, job model.Job) error {
	logger := r.logger.With("job_id", job.ID, "source", job.Source)
	target := Classify(job.Source)

	r.reporter.Report(job.ID, model.Update{
		State:   model.Ptr(model.JobStateResolving),
		Message: model.Ptr(r.connectingMessage(target.Kind)),
	})

	entries, err := r.enumerate(ctx, job.ID, target)
	if err == nil && len(entries) == 0 {
		err = model.Wrap(model.ErrResolution, "", "no tracks found", nil)
	}
	if err != nil {
		logger.Warn("playlist resolution failed", "kind", target.Kind.String(), "error", err)
		r.reporter.Report(job.ID, model.Update{
			State: model.Ptr(model.JobStateError),
			Error: model.Ptr(model.Describe(err)),
		})
		return err
	}

	r.reporter.Report(job.ID, model.Update{
		Percent: model.Ptr(100.0),
		Message: model.Ptr(fmt.Sprintf(messageQueuing, len(entries))),
	})
	logger.Info("playlist resolved", "kind", target.Kind.String(), "tracks", len(entries))

	submitted, err := r.fanOut(ctx, job, entries)
	if err != nil {
		logger.Warn("fan-out interrupted", "submitted", submitted, "total", len(entries), "error", err)
		if submitted == 0 {
			r.reporter.Report(job.ID, model.Update{
				State: model.Ptr(model.JobStateError),
				Error: model.Ptr(model.Describe(err)),
			})
			return err
		}
	}

	message := fmt.Sprintf(messageQueued, submitted)
	if submitted < len(entries) {
		message = fmt.Sprintf(messagePartial, submitted, len(entries))
	}
	r.reporter.Report(job.ID, model.Update{
		State:   model.Ptr(model.JobStateCompleted),
		Message: model.Ptr(message),
	})

	r.removeAfterTTL(ctx, job.ID)
	return err
}

func (r *Resolver) connectingMessage(kind Kind) string {
	if kind.IsSpotify() {
		return MessageConnecting
	}
	return MessageFetching
}

func (r *Resolver) enumerate(ctx context.Context, id model.JobID, target Target) ([]derived, error) {
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	switch target.Kind {
	case KindSpotifyPlaylist:
		return r.enumerateSpotify(ctx, id, target.ID)
	case KindSpotifyAlbum:
		return nil, model.Wrap(model.ErrResolution, "", "Spotify albums are not supported", nil)
	case KindSpotifyTrack:
		return nil, model.Wrap(model.ErrResolution, "", "Spotify single tracks are not supported", nil)
	case KindSpotifyOther:
		return nil, model.Wrap(model.ErrResolution, "", "unrecognised Spotify link", nil)
	case KindYouTubePlaylist:
		return r.enumerateYouTube(ctx, target.ID)
	}
	return nil, model.Wrap(model.ErrResolution, "", "source is not a playlist", nil)
}

func (r *Resolver) enumerateSpotify(ctx context.Context, id model.JobID, playlistID string) ([]derived, error) {
	if r.spotify == nil {
		return nil, model.Wrap(model.ErrResolution, "", "Spotify support is not configured", nil)
	}
	provider, err := r.spotify(ctx)
	if err != nil {
		if errors.Is(err, ErrMissingCredentials) {
			return nil, model.Wrap(model.ErrResolution, "", "Spotify credentials missing (run: ytqueue config set-spotify)", nil)
		}
		return nil, model.Wrap(model.ErrResolution, "", "Spotify setup failed", err)
	}

	r.reporter.Report(id, model.Update{Message: model.Ptr(MessageFetching)})

	var entries []derived
	for page, err := range provider.PlaylistTracks(ctx, playlistID) {
		if err != nil {
			return nil, model.Wrap(model.ErrResolution, "", "Spotify connection failed", err)
		}
		for _, item := range page {
			if entry, ok := trackEntry(item); ok {
				entries = append(entries, entry)
			}
		}
		r.reporter.Report(id, model.Update{Message: model.Ptr(fmt.Sprintf(messageFound, len(entries)))})
	}
	return entries, nil
}

func (r *Resolver) enumerateYouTube(ctx context.Context, playlistID string) ([]derived, error) {
	if r.youtube == nil {
		return nil, model.Wrap(model.ErrResolution, "", "YouTube playlist expansion is not configured", nil)
	}
	videos, err := r.youtube.PlaylistVideos(ctx, playlistID)
	if err != nil {
		return nil, model.Wrap(model.ErrResolution, "", "YouTube playlist listing failed", err)
	}
	entries := make([]derived, 0, len(videos))
	for _, v := range videos {
		if strings.TrimSpace(v.ID) == "" {
			continue
		}
		entries = append(entries, derived{source: VideoURL(v.ID), title: v.Title})
	}
	return entries, nil
}

// trackEntry builds the search query for a track. Tracks without a name are
// skipped; a missing artist becomes "Unknown".
func trackEntry(item TrackItem) (derived, bool) {
	if item.Name == nil || strings.TrimSpace(*item.Name) == "" {
		return derived{}, false
	}
	artist := UnknownArtist
	if item.Artist != nil && strings.TrimSpace(*item.Artist) != "" {
		artist = strings.TrimSpace(*item.Artist)
	}
	title := artist + " - " + strings.TrimSpace(*item.Name)
	return derived{source: model.SearchPrefix + title, title: title}, true
}

func (r *Resolver) fanOut(ctx context.Context, parent model.Job, entries []derived) (int, error) {
	for i, entry := range entries {
		if i > 0 && r.opts.Stagger > 0 {
			timer := time.NewTimer(r.opts.Stagger)
			select {
			case <-ctx.Done():
				timer.Stop()
				return i, ctx.Err()
			case <-timer.C:
			}
		}
		if _, err := r.submit.SubmitDerived(parent.ID, entry.source, entry.title, parent.Format, parent.Folder); err != nil {
			return i, err
		}
	}
	return len(entries), nil
}

func (r *Resolver) removeAfterTTL(ctx context.Context, id model.JobID) {
	if r.opts.PlaceholderTTL > 0 {
		timer := time.NewTimer(r.opts.PlaceholderTTL)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
	r.reporter.Remove(id)
}
