package resolve

import (
	"context"
	"fmt"

	"github.com/ytget/ytdlp/v2"
)

// YouTubeVideoURLTemplate builds a watch URL from a video id
const YouTubeVideoURLTemplate = "https://www.youtube.com/watch?v=%s"

// YouTubeProvider lists playlist items with the ytdlp library
type YouTubeProvider struct{}

// NewYouTubeProvider creates a provider
func NewYouTubeProvider() *YouTubeProvider {
	return &YouTubeProvider{}
}

// PlaylistVideos returns every item of the playlist
func (p *YouTubeProvider) PlaylistVideos(ctx context.Context, playlistID string) ([]Video, error) {
	d := ytdlp.New()
	items, err := d.GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist items: %w", err)
	}

	videos := make([]Video, 0, len(items))
	for _, it := range items {
		videos = append(videos, Video{ID: it.VideoID, Title: it.Title})
	}
	return videos, nil
}

// VideoURL returns the watch URL for id
func VideoURL(id string) string {
	return fmt.Sprintf(YouTubeVideoURLTemplate, id)
}
