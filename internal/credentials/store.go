// Package credentials stores small string settings such as the Spotify client
// id and secret. Values are kept either in a JSON file or in a SQLite table.
package credentials

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ytget/ytqueue/internal/config"
)

// Well-known keys
const (
	KeySpotifyClientID     = "spotify_client_id"
	KeySpotifyClientSecret = "spotify_client_secret"
)

// Environment fallbacks
const (
	EnvSpotifyClientID     = "SPOTIFY_CLIENT_ID"
	EnvSpotifyClientSecret = "SPOTIFY_CLIENT_SECRET"
)

// Store is a persistent string key/value map. A missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Open returns the backend selected in cfg.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Credentials.Backend {
	case config.BackendSQLite:
		store, err := OpenSQLite(cfg.Credentials.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendFile, "":
		store, err := OpenFile(cfg.Credentials.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("credentials backend %q is not supported", cfg.Credentials.Backend)
	}
}

// SpotifyCredentials holds a client-credentials pair.
type SpotifyCredentials struct {
	ClientID     string
	ClientSecret string
}

// Complete reports whether both halves are present.
func (c SpotifyCredentials) Complete() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// LoadSpotify reads the Spotify pair from store, falling back to the
// environment for any value the store does not have. store may be nil.
func LoadSpotify(ctx context.Context, store Store) (SpotifyCredentials, error) {
	var creds SpotifyCredentials
	var err error
	if creds.ClientID, err = lookup(ctx, store, KeySpotifyClientID, EnvSpotifyClientID); err != nil {
		return SpotifyCredentials{}, err
	}
	if creds.ClientSecret, err = lookup(ctx, store, KeySpotifyClientSecret, EnvSpotifyClientSecret); err != nil {
		return SpotifyCredentials{}, err
	}
	return creds, nil
}

// SaveSpotify stores both values, trimmed.
func SaveSpotify(ctx context.Context, store Store, creds SpotifyCredentials) error {
	if err := store.Set(ctx, KeySpotifyClientID, strings.TrimSpace(creds.ClientID)); err != nil {
		return err
	}
	return store.Set(ctx, KeySpotifyClientSecret, strings.TrimSpace(creds.ClientSecret))
}

// MaskSecret returns a masked version safe for display: "****abcd"
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

func lookup(ctx context.Context, store Store, key, env string) (string, error) {
	if store != nil {
		value, ok, err := store.Get(ctx, key)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", key, err)
		}
		if value = strings.TrimSpace(value); ok && value != "" {
			return value, nil
		}
	}
	return strings.TrimSpace(os.Getenv(env)), nil
}
