package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeWorkers()
	c.normalizeFetch()
	c.normalizePlaylist()
	c.normalizeSpotify()
	if err := c.normalizeCredentials(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DownloadsDir) == "" {
		c.Paths.DownloadsDir = Default().Paths.DownloadsDir
	}
	if c.Paths.DownloadsDir, err = expandPath(c.Paths.DownloadsDir); err != nil {
		return fmt.Errorf("paths.downloads_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.HistoryFile) == "" {
		c.Paths.HistoryFile = defaultHistoryFile
	}
	if c.Paths.HistoryFile, err = expandPath(c.Paths.HistoryFile); err != nil {
		return fmt.Errorf("paths.history_file: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeWorkers() {
	if c.Workers.MaxParallel <= 0 {
		c.Workers.MaxParallel = DefaultMaxParallel
	}
	if c.Workers.MaxParallel < MinParallel {
		c.Workers.MaxParallel = MinParallel
	}
	if c.Workers.MaxParallel > MaxParallel {
		c.Workers.MaxParallel = MaxParallel
	}
}

func (c *Config) normalizeFetch() {
	c.Fetch.Binary = strings.TrimSpace(c.Fetch.Binary)
	if c.Fetch.Binary == "" {
		c.Fetch.Binary = DefaultBinary
	}
	c.Fetch.FFmpegLocation = strings.TrimSpace(c.Fetch.FFmpegLocation)
	c.Fetch.AudioQuality = strings.TrimSpace(c.Fetch.AudioQuality)
	if c.Fetch.AudioQuality == "" {
		c.Fetch.AudioQuality = DefaultAudioQuality
	}
	if strings.TrimSpace(c.Fetch.FilenameTemplate) == "" {
		c.Fetch.FilenameTemplate = DefaultFilenameTemplate
	}
}

func (c *Config) normalizePlaylist() {
	if c.Playlist.StaggerMS < 0 {
		c.Playlist.StaggerMS = 0
	}
	if c.Playlist.PlaceholderTTLMS < 0 {
		c.Playlist.PlaceholderTTLMS = 0
	}
	if c.Playlist.TimeoutSeconds <= 0 {
		c.Playlist.TimeoutSeconds = DefaultResolveTimeout
	}
	if c.Progress.FlushIntervalMS < 0 {
		c.Progress.FlushIntervalMS = 0
	}
}

func (c *Config) normalizeSpotify() {
	c.Spotify.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.Spotify.APIBaseURL), "/")
	if c.Spotify.APIBaseURL == "" {
		c.Spotify.APIBaseURL = DefaultSpotifyAPIBaseURL
	}
	c.Spotify.TokenURL = strings.TrimSpace(c.Spotify.TokenURL)
	if c.Spotify.TokenURL == "" {
		c.Spotify.TokenURL = DefaultSpotifyTokenURL
	}
}

func (c *Config) normalizeCredentials() error {
	c.Credentials.Backend = strings.ToLower(strings.TrimSpace(c.Credentials.Backend))
	if c.Credentials.Backend == "" {
		c.Credentials.Backend = BackendFile
	}
	if strings.TrimSpace(c.Credentials.Path) == "" {
		switch c.Credentials.Backend {
		case BackendSQLite:
			c.Credentials.Path = defaultCredentialsDB
		default:
			c.Credentials.Path = defaultCredentialsJSON
		}
	}
	var err error
	if c.Credentials.Path, err = expandPath(c.Credentials.Path); err != nil {
		return fmt.Errorf("credentials.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}
