package credentials

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/ytqueue/internal/config"
)

func openBackends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	file, err := OpenFile(filepath.Join(dir, "credentials.json"))
	require.NoError(t, err)
	db, err := OpenSQLite(filepath.Join(dir, "credentials.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return map[string]Store{"file": file, "sqlite": db}
}

func TestStoreGetSet(t *testing.T) {
	ctx := context.Background()
	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := store.Get(ctx, KeySpotifyClientID)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Set(ctx, KeySpotifyClientID, "abc"))
			require.NoError(t, store.Set(ctx, KeySpotifyClientID, "def"))

			value, ok, err := store.Get(ctx, KeySpotifyClientID)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "def", value)
		})
	}
}

func TestFileStoreUsesFlatJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	store, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, SaveSpotify(context.Background(), store, SpotifyCredentials{ClientID: " id ", ClientSecret: "secret"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]string
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, map[string]string{
		"spotify_client_id":     "id",
		"spotify_client_secret": "secret",
	}, raw)

	reopened, err := OpenFile(path)
	require.NoError(t, err)
	creds, err := LoadSpotify(context.Background(), reopened)
	require.NoError(t, err)
	assert.Equal(t, SpotifyCredentials{ClientID: "id", ClientSecret: "secret"}, creds)
}

func TestFileStoreMalformedStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("[1,2"), 0o600))

	store, err := OpenFile(path)
	require.NoError(t, err)
	_, ok, err := store.Get(context.Background(), KeySpotifyClientID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStorePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.db")
	store, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), KeySpotifyClientSecret, "s3cret"))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()
	value, ok, err := reopened.Get(context.Background(), KeySpotifyClientSecret)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "s3cret", value)
}

func TestLoadSpotifyFallsBackToEnv(t *testing.T) {
	t.Setenv(EnvSpotifyClientID, "env-id")
	t.Setenv(EnvSpotifyClientSecret, "env-secret")

	store, err := OpenFile(filepath.Join(t.TempDir(), "credentials.json"))
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), KeySpotifyClientID, "stored-id"))
	require.NoError(t, store.Set(context.Background(), KeySpotifyClientSecret, "   "))

	creds, err := LoadSpotify(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, "stored-id", creds.ClientID)
	assert.Equal(t, "env-secret", creds.ClientSecret)
	assert.True(t, creds.Complete())

	creds, err = LoadSpotify(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "env-id", creds.ClientID)
}

func TestLoadSpotifyIncomplete(t *testing.T) {
	t.Setenv(EnvSpotifyClientID, "")
	t.Setenv(EnvSpotifyClientSecret, "")

	creds, err := LoadSpotify(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, creds.Complete())
}

func TestOpenSelectsBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Credentials.Backend = config.BackendSQLite
	cfg.Credentials.Path = filepath.Join(t.TempDir(), "c.db")

	store, err := Open(&cfg)
	require.NoError(t, err)
	defer store.Close()
	_, isSQLite := store.(*SQLiteStore)
	assert.True(t, isSQLite)

	cfg.Credentials.Backend = "vault"
	_, err = Open(&cfg)
	assert.Error(t, err)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret(""))
	assert.Equal(t, "****", MaskSecret("abc"))
	assert.Equal(t, "****6789", MaskSecret("0123456789"))
}
