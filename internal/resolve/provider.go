package resolve

import (
	"context"
	"errors"
	"iter"
)

// ErrMissingCredentials means no Spotify client id/secret is configured
var ErrMissingCredentials = errors.New("spotify credentials are not configured")

// TrackItem is one playlist entry. Either field may be absent.
type TrackItem struct {
	Artist *string
	Name   *string
}

// PlaylistProvider enumerates the tracks of a playlist one page at a time.
// A page error ends the sequence.
type PlaylistProvider interface {
	PlaylistTracks(ctx context.Context, id string) iter.Seq2[[]TrackItem, error]
}

// ProviderFactory builds a provider on demand, so credentials are read at
// resolution time rather than at startup.
type ProviderFactory func(ctx context.Context) (PlaylistProvider, error)

// Video is one YouTube playlist item
type Video struct {
	ID    string
	Title string
}

// VideoLister lists the items of a YouTube playlist
type VideoLister interface {
	PlaylistVideos(ctx context.Context, playlistID string) ([]Video, error)
}
