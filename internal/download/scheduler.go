package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ytget/ytqueue/internal/fetch"
	"github.com/ytget/ytqueue/internal/logging"
	"github.com/ytget/ytqueue/internal/model"
	"github.com/ytget/ytqueue/internal/platform"
)

// Reporter receives job updates from workers
type Reporter interface {
	Report(id model.JobID, u model.Update)
}

// HistoryAppender records completed transfers
type HistoryAppender interface {
	Append(entry model.HistoryEntry) error
}

// ErrStopped is returned by Enqueue once the dispatcher has shut down
var ErrStopped = errors.New("scheduler stopped")

// HistoryNotSavedPrefix marks a completed job whose history entry failed
const HistoryNotSavedPrefix = "history not saved: "

// Scheduler dispatches queued jobs in FIFO order to at most maxParallel
// concurrent workers
type Scheduler struct {
	fetcher     fetch.Fetcher
	reporter    Reporter
	history     HistoryAppender
	root        string
	maxParallel int
	sem         *semaphore.Weighted
	track       *tracker
	logger      *slog.Logger
	now         func() time.Time

	mu      sync.Mutex
	queue   []model.Job
	wake    chan struct{}
	active  int
	stopped bool
}

// NewScheduler creates a scheduler writing into root
func NewScheduler(fetcher fetch.Fetcher, reporter Reporter, history HistoryAppender, root string, maxParallel int, logger *slog.Logger) *Scheduler {
	if maxParallel < 1 {
		maxParallel = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		fetcher:     fetcher,
		reporter:    reporter,
		history:     history,
		root:        root,
		maxParallel: maxParallel,
		sem:         semaphore.NewWeighted(int64(maxParallel)),
		track:       newTracker(),
		logger:      logger.With("component", "scheduler"),
		now:         time.Now,
		wake:        make(chan struct{}, 1),
	}
}

// MaxParallel returns the worker bound
func (s *Scheduler) MaxParallel() int {
	return s.maxParallel
}

// Enqueue appends job to the FIFO queue. It never blocks. After Run has
// returned the job is refused with ErrStopped.
func (s *Scheduler) Enqueue(job model.Job) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	s.track.add()
	s.queue = append(s.queue, job)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

// Pending returns the number of jobs waiting for a worker
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Active returns the number of running workers
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Wait blocks until the queue is empty and every worker has finished
func (s *Scheduler) Wait(ctx context.Context) error {
	return s.track.wait(ctx)
}

// Run dispatches jobs until ctx is cancelled. Jobs still queued at that
// point are dropped and stay Queued.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		job, ok := s.next()
		if !ok {
			select {
			case <-ctx.Done():
				s.dropQueued()
				return
			case <-s.wake:
				continue
			}
		}

		if err := s.sem.Acquire(ctx, 1); err != nil || ctx.Err() != nil {
			if err == nil {
				s.sem.Release(1)
			}
			s.requeueFront(job)
			s.dropQueued()
			return
		}

		s.mu.Lock()
		s.active++
		s.mu.Unlock()
		go s.runJob(ctx, job)
	}
}

func (s *Scheduler) next() (model.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return model.Job{}, false
	}
	job := s.queue[0]
	s.queue = s.queue[1:]
	return job, true
}

func (s *Scheduler) requeueFront(job model.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append([]model.Job{job}, s.queue...)
}

func (s *Scheduler) dropQueued() {
	s.mu.Lock()
	s.stopped = true
	dropped := s.queue
	s.queue = nil
	s.mu.Unlock()

	for _, job := range dropped {
		s.logger.Info("job not started before shutdown", "job_id", job.ID, "source", job.Source)
		s.track.done()
	}
}

func (s *Scheduler) runJob(ctx context.Context, job model.Job) {
	logger := s.logger.With("job_id", job.ID, "source", job.Source)
	defer func() {
		s.mu.Lock()
		s.active--
		s.mu.Unlock()
		s.sem.Release(1)
		s.track.done()
	}()
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("worker panicked", "panic", rec)
			s.fail(job.ID, model.Wrap(model.ErrTransfer, "", fmt.Sprintf("internal error: %v", rec), nil))
		}
	}()

	s.reporter.Report(job.ID, model.StateUpdate(model.JobStateDownloading))
	logger.Info("job started", "format", string(job.Format), "folder", job.FolderLabel())

	dest := platform.DestinationDir(s.root, job.Folder)
	if err := platform.CreateDirectoryIfNotExists(dest); err != nil {
		logger.Warn("destination unavailable", "dest", dest, "error", err)
		s.fail(job.ID, model.Wrap(model.ErrTransfer, "", "cannot create destination folder", err))
		return
	}

	processing := false
	sampler := logging.NewProgressSampler(logging.DefaultProgressBucket)
	onProgress := func(p fetch.Progress) {
		if p.PostProcessing {
			if !processing {
				processing = true
				s.reporter.Report(job.ID, model.StateUpdate(model.JobStateProcessing))
				logger.Debug("post-processing")
			}
			return
		}
		var u model.Update
		if p.Percent >= 0 {
			u.Percent = model.Ptr(p.Percent)
		}
		if p.Speed != "" {
			u.Speed = model.Ptr(p.Speed)
		}
		if u.IsEmpty() {
			return
		}
		s.reporter.Report(job.ID, u)
		if sampler.ShouldLog(p.Percent, "downloading") {
			logger.Debug("progress", "percent", p.Percent, "speed", p.Speed)
		}
	}

	result, err := s.fetcher.Fetch(ctx, fetch.Request{Source: job.Source, Format: job.Format, DestDir: dest}, onProgress)
	if err != nil {
		logger.Warn("job failed", "error", err)
		s.fail(job.ID, err)
		return
	}

	if !processing {
		s.reporter.Report(job.ID, model.StateUpdate(model.JobStateProcessing))
	}
	if result.Title != "" {
		job.Title = result.Title
	}
	job.Destination = dest
	s.reporter.Report(job.ID, model.Update{
		State:       model.Ptr(model.JobStateCompleted),
		Title:       model.Ptr(job.Title),
		Percent:     model.Ptr(100.0),
		Speed:       model.Ptr(""),
		Destination: model.Ptr(dest),
	})
	logger.Info("job completed", "title", job.Title, "path", result.Path)

	if s.history == nil {
		return
	}
	if err := s.history.Append(model.NewHistoryEntry(job, s.now())); err != nil {
		logger.Error("history not saved", "error", err)
		s.reporter.Report(job.ID, model.Update{Error: model.Ptr(model.Truncate(HistoryNotSavedPrefix+model.Describe(err), model.MaxErrorLength))})
	}
}

func (s *Scheduler) fail(id model.JobID, err error) {
	s.reporter.Report(id, model.Update{
		State: model.Ptr(model.JobStateError),
		Error: model.Ptr(model.Describe(err)),
		Speed: model.Ptr(""),
	})
}
