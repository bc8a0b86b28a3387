package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/ytget/ytqueue/internal/config"
	"github.com/ytget/ytqueue/internal/credentials"
)

const (
	playlistTracksPath = "/v1/playlists/%s/tracks"
	pageLimit          = "100"
	maxErrorBody       = 512
)

// SpotifyOptions configures the Web API client
type SpotifyOptions struct {
	APIBaseURL string
	TokenURL   string
	// HTTPClient is used for both token and API requests. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client
}

// SpotifyOptionsFromConfig maps the [spotify] section
func SpotifyOptionsFromConfig(cfg *config.Config) SpotifyOptions {
	return SpotifyOptions{APIBaseURL: cfg.Spotify.APIBaseURL, TokenURL: cfg.Spotify.TokenURL}
}

// SpotifyClient reads playlists through the Spotify Web API using the client
// credentials flow.
type SpotifyClient struct {
	baseURL string
	http    *http.Client
}

// NewSpotifyClient creates a client whose token is fetched lazily on the
// first request and refreshed when it expires.
func NewSpotifyClient(creds credentials.SpotifyCredentials, opts SpotifyOptions) *SpotifyClient {
	if opts.APIBaseURL == "" {
		opts.APIBaseURL = config.DefaultSpotifyAPIBaseURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = config.DefaultSpotifyTokenURL
	}
	tokenCtx := context.Background()
	if opts.HTTPClient != nil {
		tokenCtx = context.WithValue(tokenCtx, oauth2.HTTPClient, opts.HTTPClient)
	}
	cc := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     opts.TokenURL,
	}
	return &SpotifyClient{
		baseURL: strings.TrimRight(opts.APIBaseURL, "/"),
		http:    cc.Client(tokenCtx),
	}
}

// SpotifyFromStore returns a factory that reads credentials from store (with
// environment fallback) each time a playlist is resolved.
func SpotifyFromStore(store credentials.Store, opts SpotifyOptions) ProviderFactory {
	return func(ctx context.Context) (PlaylistProvider, error) {
		creds, err := credentials.LoadSpotify(ctx, store)
		if err != nil {
			return nil, err
		}
		if !creds.Complete() {
			return nil, ErrMissingCredentials
		}
		return NewSpotifyClient(creds, opts), nil
	}
}

type playlistPage struct {
	Items []json.RawMessage `json:"items"`
	Next  *string           `json:"next"`
}

type playlistItem struct {
	Track *struct {
		Name    *string `json:"name"`
		Artists []struct {
			Name *string `json:"name"`
		} `json:"artists"`
	} `json:"track"`
}

// PlaylistTracks pages through the playlist following the "next" links.
// Items that do not decode are skipped rather than failing the page.
func (c *SpotifyClient) PlaylistTracks(ctx context.Context, id string) iter.Seq2[[]TrackItem, error] {
	return func(yield func([]TrackItem, error) bool) {
		next := c.firstPageURL(id)
		for next != "" {
			page, err := c.fetchPage(ctx, next)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(decodeItems(page.Items), nil) {
				return
			}
			next = ""
			if page.Next != nil {
				next = *page.Next
			}
		}
	}
}

func (c *SpotifyClient) firstPageURL(id string) string {
	q := url.Values{}
	q.Set("limit", pageLimit)
	return c.baseURL + fmt.Sprintf(playlistTracksPath, url.PathEscape(id)) + "?" + q.Encode()
}

func (c *SpotifyClient) fetchPage(ctx context.Context, pageURL string) (*playlistPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			status := 0
			if retrieveErr.Response != nil {
				status = retrieveErr.Response.StatusCode
			}
			return nil, fmt.Errorf("spotify rejected the client credentials (HTTP %d)", status)
		}
		return nil, fmt.Errorf("spotify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("spotify returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var page playlistPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode playlist page: %w", err)
	}
	return &page, nil
}

func decodeItems(raw []json.RawMessage) []TrackItem {
	items := make([]TrackItem, 0, len(raw))
	for _, data := range raw {
		var item playlistItem
		if err := json.Unmarshal(data, &item); err != nil || item.Track == nil {
			continue
		}
		track := TrackItem{Name: item.Track.Name}
		if len(item.Track.Artists) > 0 {
			track.Artist = item.Track.Artists[0].Name
		}
		items = append(items, track)
	}
	return items
}
