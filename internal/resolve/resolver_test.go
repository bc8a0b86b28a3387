package resolve

import (
	"context"
	"errors"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/ytqueue/internal/logging"
	"github.com/ytget/ytqueue/internal/model"
)

type fakeReporter struct {
	mu      sync.Mutex
	updates []model.Update
	removed []model.JobID
}

func (f *fakeReporter) Report(_ model.JobID, u model.Update) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, u)
}

func (f *fakeReporter) Remove(id model.JobID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, id)
}

func (f *fakeReporter) lastState() model.JobState {
	f.mu.Lock()
	defer f.mu.Unlock()
	var state model.JobState
	for _, u := range f.updates {
		if u.State != nil {
			state = *u.State
		}
	}
	return state
}

func (f *fakeReporter) lastError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.updates) - 1; i >= 0; i-- {
		if f.updates[i].Error != nil {
			return *f.updates[i].Error
		}
	}
	return ""
}

func (f *fakeReporter) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, u := range f.updates {
		if u.Message != nil {
			out = append(out, *u.Message)
		}
	}
	return out
}

type submission struct {
	parent model.JobID
	source string
	title  string
	format model.Format
	folder string
}

type fakeSubmitter struct {
	mu   sync.Mutex
	jobs []submission
	at   []time.Time
	err  error
}

func (f *fakeSubmitter) SubmitDerived(parent model.JobID, source, title string, format model.Format, folder string) (model.JobID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.jobs = append(f.jobs, submission{parent, source, title, format, folder})
	f.at = append(f.at, time.Now())
	return model.JobID(100 + len(f.jobs)), nil
}

type pagedProvider struct {
	pages [][]TrackItem
	err   error
}

func (p pagedProvider) PlaylistTracks(_ context.Context, _ string) iter.Seq2[[]TrackItem, error] {
	return func(yield func([]TrackItem, error) bool) {
		for _, page := range p.pages {
			if !yield(page, nil) {
				return
			}
		}
		if p.err != nil {
			yield(nil, p.err)
		}
	}
}

func staticFactory(p PlaylistProvider) ProviderFactory {
	return func(context.Context) (PlaylistProvider, error) { return p, nil }
}

type fakeLister struct {
	videos []Video
	err    error
}

func (f fakeLister) PlaylistVideos(context.Context, string) ([]Video, error) {
	return f.videos, f.err
}

func str(s string) *string { return &s }

func placeholder(source string) model.Job {
	return model.Job{ID: 1, Source: source, Format: model.FormatAudio, Folder: "Mix", State: model.JobStateQueued}
}

func TestResolveSpotifyPlaylistFansOut(t *testing.T) {
	provider := pagedProvider{pages: [][]TrackItem{
		{{Artist: str("A"), Name: str("One")}, {Artist: nil, Name: str("Two")}},
		{{Artist: str("C"), Name: nil}, {Artist: str("D"), Name: str("Three")}},
	}}
	rep := &fakeReporter{}
	sub := &fakeSubmitter{}
	r := NewResolver(staticFactory(provider), nil, rep, sub, Options{}, logging.Discard())

	err := r.Resolve(context.Background(), placeholder("https://open.spotify.com/playlist/abc"))
	require.NoError(t, err)

	require.Len(t, sub.jobs, 3)
	assert.Equal(t, submission{1, "ytsearch1:A - One", "A - One", model.FormatAudio, "Mix"}, sub.jobs[0])
	assert.Equal(t, "ytsearch1:Unknown - Two", sub.jobs[1].source)
	assert.Equal(t, "D - Three", sub.jobs[2].title)

	assert.Equal(t, model.JobStateCompleted, rep.lastState())
	assert.Equal(t, []model.JobID{1}, rep.removed)
	assert.Equal(t, []string{
		MessageConnecting,
		MessageFetching,
		"Found 2 songs...",
		"Found 3 songs...",
		"Queuing 3 songs...",
		"Queued 3 songs",
	}, rep.messages())
}

func TestResolveUnsupportedSpotifyTypes(t *testing.T) {
	tests := []struct {
		source  string
		message string
	}{
		{"https://open.spotify.com/track/123", "Spotify single tracks are not supported"},
		{"https://open.spotify.com/album/123", "Spotify albums are not supported"},
		{"https://open.spotify.com/show/123", "unrecognised Spotify link"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			rep := &fakeReporter{}
			sub := &fakeSubmitter{}
			r := NewResolver(staticFactory(pagedProvider{}), nil, rep, sub, Options{}, logging.Discard())

			err := r.Resolve(context.Background(), placeholder(tt.source))

			assert.ErrorIs(t, err, model.ErrResolution)
			assert.Empty(t, sub.jobs)
			assert.Equal(t, model.JobStateError, rep.lastState())
			assert.Equal(t, tt.message, rep.lastError())
			assert.Empty(t, rep.removed, "failed placeholders stay visible")
		})
	}
}

func TestResolveFailureModes(t *testing.T) {
	tests := []struct {
		name    string
		factory ProviderFactory
		message string
	}{
		{
			name:    "no tracks",
			factory: staticFactory(pagedProvider{pages: [][]TrackItem{{{Artist: str("A")}}}}),
			message: "no tracks found",
		},
		{
			name:    "missing credentials",
			factory: func(context.Context) (PlaylistProvider, error) { return nil, ErrMissingCredentials },
			message: "Spotify credentials missing (run: ytqueue config set-spotify)",
		},
		{
			name:    "provider failure",
			factory: staticFactory(pagedProvider{err: errors.New("connection refused")}),
			message: "Spotify connection failed: connection refused",
		},
		{
			name:    "not configured",
			factory: nil,
			message: "Spotify support is not configured",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := &fakeReporter{}
			sub := &fakeSubmitter{}
			r := NewResolver(tt.factory, nil, rep, sub, Options{}, logging.Discard())

			err := r.Resolve(context.Background(), placeholder("https://open.spotify.com/playlist/x"))

			assert.ErrorIs(t, err, model.ErrResolution)
			assert.Empty(t, sub.jobs)
			assert.Equal(t, model.JobStateError, rep.lastState())
			assert.Equal(t, tt.message, rep.lastError())
		})
	}
}

func TestResolveYouTubePlaylist(t *testing.T) {
	lister := fakeLister{videos: []Video{{ID: "a1", Title: "First"}, {ID: "", Title: "Deleted"}, {ID: "b2", Title: "Second"}}}
	rep := &fakeReporter{}
	sub := &fakeSubmitter{}
	r := NewResolver(nil, lister, rep, sub, Options{ExpandYouTube: true}, logging.Discard())

	job := placeholder("https://www.youtube.com/playlist?list=PL1")
	require.True(t, r.NeedsResolution(job.Source))
	require.NoError(t, r.Resolve(context.Background(), job))

	require.Len(t, sub.jobs, 2)
	assert.Equal(t, "https://www.youtube.com/watch?v=a1", sub.jobs[0].source)
	assert.Equal(t, "Second", sub.jobs[1].title)
}

func TestNeedsResolution(t *testing.T) {
	r := NewResolver(nil, nil, &fakeReporter{}, &fakeSubmitter{}, Options{}, logging.Discard())

	assert.True(t, r.NeedsResolution("https://open.spotify.com/track/1"))
	assert.False(t, r.NeedsResolution("https://www.youtube.com/playlist?list=PL1"))
	assert.False(t, r.NeedsResolution("https://www.youtube.com/watch?v=x"))
}

func TestResolveStaggerAndTTL(t *testing.T) {
	provider := pagedProvider{pages: [][]TrackItem{{
		{Artist: str("A"), Name: str("1")},
		{Artist: str("A"), Name: str("2")},
		{Artist: str("A"), Name: str("3")},
	}}}
	rep := &fakeReporter{}
	sub := &fakeSubmitter{}
	opts := Options{Stagger: 20 * time.Millisecond, PlaceholderTTL: 30 * time.Millisecond}
	r := NewResolver(staticFactory(provider), nil, rep, sub, opts, logging.Discard())

	start := time.Now()
	require.NoError(t, r.Resolve(context.Background(), placeholder("spotify:playlist:x")))

	require.Len(t, sub.at, 3)
	assert.GreaterOrEqual(t, sub.at[2].Sub(sub.at[0]), 40*time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 70*time.Millisecond)
	assert.Equal(t, []model.JobID{1}, rep.removed)
}

func TestResolveStaggerHonoursCancellation(t *testing.T) {
	provider := pagedProvider{pages: [][]TrackItem{{
		{Artist: str("A"), Name: str("1")},
		{Artist: str("A"), Name: str("2")},
	}}}
	rep := &fakeReporter{}
	sub := &fakeSubmitter{}
	r := NewResolver(staticFactory(provider), nil, rep, sub, Options{Stagger: time.Hour, PlaceholderTTL: time.Hour}, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Resolve(ctx, placeholder("spotify:playlist:x")) }()

	assert.Eventually(t, func() bool {
		sub.mu.Lock()
		defer sub.mu.Unlock()
		return len(sub.jobs) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Resolve did not return after cancel")
	}
	assert.Len(t, sub.jobs, 1)
	assert.Equal(t, model.JobStateCompleted, rep.lastState())
	msgs := rep.messages()
	require.NotEmpty(t, msgs)
	assert.Equal(t, "Queued 1 of 2 songs", msgs[len(msgs)-1])
}

func TestResolveRefusedFanOutEndsInError(t *testing.T) {
	provider := pagedProvider{pages: [][]TrackItem{{{Artist: str("A"), Name: str("1")}}}}
	rep := &fakeReporter{}
	sub := &fakeSubmitter{err: context.Canceled}
	r := NewResolver(staticFactory(provider), nil, rep, sub, Options{}, logging.Discard())

	err := r.Resolve(context.Background(), placeholder("spotify:playlist:x"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, model.JobStateError, rep.lastState())
	assert.NotContains(t, rep.messages(), "Queued 0 songs")
	assert.Empty(t, rep.removed)
}
