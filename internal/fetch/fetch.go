package fetch

import (
	"context"

	"github.com/ytget/ytqueue/internal/model"
)

// Request describes one transfer
type Request struct {
	Source  string
	Format  model.Format
	DestDir string
}

// Progress is a snapshot reported while a transfer runs. Percent is negative
// when the total size is unknown.
type Progress struct {
	Percent        float64
	Speed          string
	PostProcessing bool
}

// Result describes a finished transfer
type Result struct {
	Title string
	Path  string
}

// ProgressFunc receives progress snapshots. Calls are serialized.
type ProgressFunc func(Progress)

// Fetcher transfers a source into a destination directory
type Fetcher interface {
	Fetch(ctx context.Context, req Request, onProgress ProgressFunc) (Result, error)
}
