package config

import "github.com/ytget/ytqueue/internal/platform"

const (
	defaultConfigPath      = "~/.config/ytqueue/config.toml"
	defaultHistoryFile     = "~/.local/share/ytqueue/history.json"
	defaultCredentialsJSON = "~/.config/ytqueue/credentials.json"
	defaultCredentialsDB   = "~/.config/ytqueue/credentials.db"
	fallbackDownloadsDir   = "~/Downloads"
)

// Worker bounds
const (
	DefaultMaxParallel = 3
	MinParallel        = 1
	MaxParallel        = 10
)

// Fetch defaults
const (
	DefaultBinary           = "yt-dlp"
	DefaultAudioQuality     = "192"
	DefaultFilenameTemplate = "%(title)s.%(ext)s"
)

// Playlist and progress defaults
const (
	DefaultPlaceholderTTLMS = 1000
	DefaultResolveTimeout   = 60
	DefaultFlushIntervalMS  = 250
)

// Spotify Web API endpoints
const (
	DefaultSpotifyAPIBaseURL = "https://api.spotify.com"
	DefaultSpotifyTokenURL   = "https://accounts.spotify.com/api/token"
)

// Credential backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Default returns a configuration populated with default values.
func Default() Config {
	downloads, err := platform.GetHomeDownloadsDir()
	if err != nil {
		downloads = fallbackDownloadsDir
	}
	return Config{
		Paths: Paths{
			DownloadsDir: downloads,
			HistoryFile:  defaultHistoryFile,
		},
		Workers: Workers{
			MaxParallel: DefaultMaxParallel,
		},
		Fetch: Fetch{
			Binary:           DefaultBinary,
			AudioQuality:     DefaultAudioQuality,
			FilenameTemplate: DefaultFilenameTemplate,
		},
		Playlist: Playlist{
			PlaceholderTTLMS: DefaultPlaceholderTTLMS,
			TimeoutSeconds:   DefaultResolveTimeout,
		},
		Progress: Progress{
			FlushIntervalMS: DefaultFlushIntervalMS,
		},
		Spotify: Spotify{
			APIBaseURL: DefaultSpotifyAPIBaseURL,
			TokenURL:   DefaultSpotifyTokenURL,
		},
		Credentials: Credentials{
			Backend: BackendFile,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}
