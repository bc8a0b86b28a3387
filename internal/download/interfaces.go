package download

import (
	"context"

	"github.com/ytget/ytqueue/internal/model"
	"github.com/ytget/ytqueue/internal/progress"
)

// Downloader defines the interface for the download service.
type Downloader interface {
	Start(ctx context.Context)
	SubmitJob(source string, format model.Format, folder string) (model.JobID, error)
	OnJobUpdated(fn func(progress.Event))
	Job(id model.JobID) (model.Job, bool)
	Jobs() []model.Job

	// History returns completed transfers, newest first
	History() []model.HistoryEntry
	ClearHistory() error

	// Wait blocks until all submitted work is terminal
	Wait(ctx context.Context) error
	Close()
}

var _ Downloader = (*Service)(nil)
