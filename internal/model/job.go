package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// JobID identifies a job for the lifetime of the process
type JobID int64

// String returns the decimal form of the id
func (id JobID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Format selects what the transfer produces
type Format string

const (
	// FormatVideo downloads best video+audio merged into mp4
	FormatVideo Format = "mp4"

	// FormatAudio extracts audio to mp3
	FormatAudio Format = "mp3"
)

// ParseFormat accepts video|mp4|audio|mp3 in any case
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "video", "mp4":
		return FormatVideo, nil
	case "audio", "mp3":
		return FormatAudio, nil
	}
	return "", fmt.Errorf("unknown format %q (expected video or audio)", value)
}

// Label returns a human readable format name
func (f Format) Label() string {
	if f == FormatAudio {
		return "Audio (MP3)"
	}
	return "Video (MP4)"
}

// RootFolderLabel is shown for jobs saved directly into the downloads root
const RootFolderLabel = "root"

// SearchPrefix asks the fetch engine for the single best search match
const SearchPrefix = "ytsearch1:"

// Job represents one unit of scheduled work
type Job struct {
	ID          JobID
	ParentID    JobID // resolution job that produced this one, 0 if submitted directly
	Source      string
	Format      Format
	Folder      string
	Title       string
	State       JobState
	Percent     float64 // 0 to 100
	Speed       string  // human readable speed (e.g., "1.2 MB/s")
	Message     string  // advisory status note
	Error       string  // truncated failure cause
	Destination string  // directory the transfer writes into
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Update carries a partial set of job fields. Nil fields are left unchanged.
type Update struct {
	Title       *string
	State       *JobState
	Percent     *float64
	Speed       *string
	Message     *string
	Error       *string
	Destination *string
}

// IsProgressOnly reports whether the update touches nothing but percent and speed
func (u Update) IsProgressOnly() bool {
	return u.Title == nil && u.State == nil && u.Message == nil && u.Error == nil && u.Destination == nil &&
		(u.Percent != nil || u.Speed != nil)
}

// IsEmpty reports whether the update carries no fields
func (u Update) IsEmpty() bool {
	return u.Title == nil && u.State == nil && u.Percent == nil && u.Speed == nil &&
		u.Message == nil && u.Error == nil && u.Destination == nil
}

// Merge overlays later on top of u, later fields winning
func (u Update) Merge(later Update) Update {
	if later.Title != nil {
		u.Title = later.Title
	}
	if later.State != nil {
		u.State = later.State
	}
	if later.Percent != nil {
		u.Percent = later.Percent
	}
	if later.Speed != nil {
		u.Speed = later.Speed
	}
	if later.Message != nil {
		u.Message = later.Message
	}
	if later.Error != nil {
		u.Error = later.Error
	}
	if later.Destination != nil {
		u.Destination = later.Destination
	}
	return u
}

// Apply merges u into the job. A state change that does not follow a defined
// edge returns ErrInvalidTransition and leaves the job untouched.
func (j *Job) Apply(u Update, now time.Time) error {
	if u.State != nil && !j.State.CanTransitionTo(*u.State) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.State, *u.State)
	}
	if u.State != nil {
		j.State = *u.State
	}
	if u.Title != nil {
		j.Title = *u.Title
	}
	if u.Percent != nil {
		j.Percent = clampPercent(*u.Percent)
	}
	if u.Speed != nil {
		j.Speed = *u.Speed
	}
	if u.Message != nil {
		j.Message = *u.Message
	}
	if u.Error != nil {
		j.Error = *u.Error
	}
	if u.Destination != nil {
		j.Destination = *u.Destination
	}
	j.UpdatedAt = now
	return nil
}

// DisplayTitle returns title, search query, or source in order of preference
func (j Job) DisplayTitle() string {
	if j.Title != "" && !strings.HasPrefix(j.Title, "http") {
		return strings.TrimPrefix(j.Title, SearchPrefix)
	}
	if strings.HasPrefix(j.Source, SearchPrefix) {
		return strings.TrimPrefix(j.Source, SearchPrefix)
	}
	return j.Source
}

// FolderLabel returns the folder or the root label
func (j Job) FolderLabel() string {
	if j.Folder == "" {
		return RootFolderLabel
	}
	return j.Folder
}

func clampPercent(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Ptr returns a pointer to v, for building updates
func Ptr[T any](v T) *T {
	return &v
}

// StateUpdate builds an update that only changes the state
func StateUpdate(state JobState) Update {
	return Update{State: Ptr(state)}
}

// ProgressUpdate builds a progress-only update
func ProgressUpdate(percent float64, speed string) Update {
	return Update{Percent: Ptr(percent), Speed: Ptr(speed)}
}
