package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Paths contains filesystem locations.
type Paths struct {
	DownloadsDir string `toml:"downloads_dir"`
	HistoryFile  string `toml:"history_file"`
	LogDir       string `toml:"log_dir"`
}

// Workers bounds concurrent transfers.
type Workers struct {
	MaxParallel int `toml:"max_parallel"`
}

// Fetch configures the yt-dlp engine.
type Fetch struct {
	Binary           string `toml:"binary"`
	FFmpegLocation   string `toml:"ffmpeg_location"`
	AudioQuality     string `toml:"audio_quality"`
	FilenameTemplate string `toml:"filename_template"`
}

// Playlist configures resolution of playlist sources.
type Playlist struct {
	StaggerMS        int  `toml:"stagger_ms"`
	PlaceholderTTLMS int  `toml:"placeholder_ttl_ms"`
	ExpandYouTube    bool `toml:"expand_youtube"`
	TimeoutSeconds   int  `toml:"timeout_seconds"`
}

// Progress configures update coalescing.
type Progress struct {
	FlushIntervalMS int `toml:"flush_interval_ms"`
}

// Spotify holds Web API endpoints. Credentials live in the credential store.
type Spotify struct {
	APIBaseURL string `toml:"api_base_url"`
	TokenURL   string `toml:"token_url"`
}

// Credentials selects the credential store backend.
type Credentials struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values for ytqueue.
type Config struct {
	Paths       Paths       `toml:"paths"`
	Workers     Workers     `toml:"workers"`
	Fetch       Fetch       `toml:"fetch"`
	Playlist    Playlist    `toml:"playlist"`
	Progress    Progress    `toml:"progress"`
	Spotify     Spotify     `toml:"spotify"`
	Credentials Credentials `toml:"credentials"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. It returns the
// config, the path that was consulted, and whether that file exists.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("ytqueue.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// FlushInterval returns the progress coalescing interval.
func (c *Config) FlushInterval() time.Duration {
	return time.Duration(c.Progress.FlushIntervalMS) * time.Millisecond
}

// Stagger returns the delay between derived job submissions.
func (c *Config) Stagger() time.Duration {
	return time.Duration(c.Playlist.StaggerMS) * time.Millisecond
}

// PlaceholderTTL returns how long a resolved playlist job stays visible.
func (c *Config) PlaceholderTTL() time.Duration {
	return time.Duration(c.Playlist.PlaceholderTTLMS) * time.Millisecond
}

// ResolveTimeout bounds one playlist enumeration.
func (c *Config) ResolveTimeout() time.Duration {
	return time.Duration(c.Playlist.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
