package resolve

import (
	"net/url"
	"strings"
)

// Kind is the resolution category of a source
type Kind int

const (
	KindSingle Kind = iota
	KindSpotifyPlaylist
	KindSpotifyAlbum
	KindSpotifyTrack
	KindSpotifyOther
	KindYouTubePlaylist
)

// URL markers
const (
	SpotifyHostMarker = "spotify.com"
	SpotifyURIPrefix  = "spotify:"
	PlaylistParam     = "list="
	ParamSeparator    = "&"
)

// Target is a classified source
type Target struct {
	Kind Kind
	ID   string
}

// String returns the name of the kind
func (k Kind) String() string {
	switch k {
	case KindSpotifyPlaylist:
		return "spotify-playlist"
	case KindSpotifyAlbum:
		return "spotify-album"
	case KindSpotifyTrack:
		return "spotify-track"
	case KindSpotifyOther:
		return "spotify-other"
	case KindYouTubePlaylist:
		return "youtube-playlist"
	default:
		return "single"
	}
}

// IsSpotify reports whether the source points at Spotify
func (k Kind) IsSpotify() bool {
	switch k {
	case KindSpotifyPlaylist, KindSpotifyAlbum, KindSpotifyTrack, KindSpotifyOther:
		return true
	}
	return false
}

// Classify inspects a raw source. Spotify links are recognised by host or
// by the spotify: URI scheme; a "list=" parameter marks a YouTube playlist.
// Everything else is a single transfer.
func Classify(source string) Target {
	source = strings.TrimSpace(source)
	switch {
	case strings.HasPrefix(source, SpotifyURIPrefix):
		return classifySpotifyURI(source)
	case strings.Contains(source, SpotifyHostMarker):
		return classifySpotifyURL(source)
	}
	if id := extractPlaylistID(source); id != "" {
		return Target{Kind: KindYouTubePlaylist, ID: id}
	}
	return Target{Kind: KindSingle}
}

// spotify:playlist:<id>
func classifySpotifyURI(source string) Target {
	parts := strings.Split(source, ":")
	if len(parts) < 3 {
		return Target{Kind: KindSpotifyOther}
	}
	return spotifyTarget(parts[1], parts[2])
}

// https://open.spotify.com/[intl-xx/]<type>/<id>?si=...
func classifySpotifyURL(source string) Target {
	parsed, err := url.Parse(source)
	if err != nil {
		return Target{Kind: KindSpotifyOther}
	}
	segments := make([]string, 0, 3)
	for _, segment := range strings.Split(parsed.Path, "/") {
		if segment == "" || strings.HasPrefix(segment, "intl-") {
			continue
		}
		segments = append(segments, segment)
	}
	if len(segments) < 2 {
		return Target{Kind: KindSpotifyOther}
	}
	return spotifyTarget(segments[0], segments[1])
}

func spotifyTarget(objectType, id string) Target {
	id = strings.TrimSpace(id)
	switch strings.ToLower(objectType) {
	case "playlist":
		if id == "" {
			return Target{Kind: KindSpotifyOther}
		}
		return Target{Kind: KindSpotifyPlaylist, ID: id}
	case "album":
		return Target{Kind: KindSpotifyAlbum, ID: id}
	case "track":
		return Target{Kind: KindSpotifyTrack, ID: id}
	}
	return Target{Kind: KindSpotifyOther, ID: id}
}

// extractPlaylistID extracts the playlist ID from various URL formats
func extractPlaylistID(source string) string {
	if strings.Contains(source, PlaylistParam) {
		parts := strings.Split(source, PlaylistParam)
		if len(parts) > 1 {
			playlistPart := parts[1]
			if strings.Contains(playlistPart, ParamSeparator) {
				playlistPart = strings.Split(playlistPart, ParamSeparator)[0]
			}
			return playlistPart
		}
	}
	return ""
}
