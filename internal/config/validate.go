package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Paths.DownloadsDir == "" {
		return errors.New("paths.downloads_dir must be set")
	}
	if c.Paths.HistoryFile == "" {
		return errors.New("paths.history_file must be set")
	}
	if c.Workers.MaxParallel < MinParallel || c.Workers.MaxParallel > MaxParallel {
		return fmt.Errorf("workers.max_parallel must be between %d and %d", MinParallel, MaxParallel)
	}
	if err := validateURL("spotify.api_base_url", c.Spotify.APIBaseURL); err != nil {
		return err
	}
	if err := validateURL("spotify.token_url", c.Spotify.TokenURL); err != nil {
		return err
	}
	switch c.Credentials.Backend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("credentials.backend: unsupported value %q (expected %s or %s)", c.Credentials.Backend, BackendFile, BackendSQLite)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func validateURL(field, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL", field)
	}
	return nil
}
