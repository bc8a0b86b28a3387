package download

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ytget/ytqueue/internal/fetch"
	"github.com/ytget/ytqueue/internal/history"
	"github.com/ytget/ytqueue/internal/model"
	"github.com/ytget/ytqueue/internal/platform"
	"github.com/ytget/ytqueue/internal/progress"
	"github.com/ytget/ytqueue/internal/registry"
	"github.com/ytget/ytqueue/internal/resolve"
)

// Options configures a Service
type Options struct {
	DownloadsDir  string
	MaxParallel   int
	FlushInterval time.Duration
	Resolve       resolve.Options
}

// Deps are the collaborators a Service drives
type Deps struct {
	Fetcher fetch.Fetcher
	History *history.Store
	Spotify resolve.ProviderFactory
	YouTube resolve.VideoLister
	Logger  *slog.Logger
}

// Service handles job admission and lifecycle
type Service struct {
	session   string
	registry  *registry.Registry
	reporter  *progress.Reporter
	scheduler *Scheduler
	resolver  *resolve.Resolver
	history   *history.Store
	logger    *slog.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	resolving *tracker
	admitMu   sync.Mutex
	closed    bool
	started   atomic.Bool
	startOnce sync.Once
	closeOnce sync.Once
	workers   sync.WaitGroup
}

// NewService wires the registry, reporter, scheduler and resolver. Call
// Start before expecting jobs to run.
func NewService(opts Options, deps Deps) *Service {
	session := generateSessionID()
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("session", session)

	reg := registry.New()
	reporter := progress.New(reg, logger.With("component", "reporter"), progress.Options{FlushInterval: opts.FlushInterval})

	var historyAppender HistoryAppender
	if deps.History != nil {
		historyAppender = deps.History
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		session:   session,
		registry:  reg,
		reporter:  reporter,
		scheduler: NewScheduler(deps.Fetcher, reporter, historyAppender, opts.DownloadsDir, opts.MaxParallel, logger),
		history:   deps.History,
		logger:    logger.With("component", "service"),
		ctx:       ctx,
		cancel:    cancel,
		resolving: newTracker(),
	}
	s.resolver = resolve.NewResolver(deps.Spotify, deps.YouTube, reporter, s, opts.Resolve, logger)
	return s
}

// Session returns the id attached to every log line of this service
func (s *Service) Session() string {
	return s.session
}

// Start launches the reporter and dispatcher. Cancelling ctx stops
// dispatching and cancels running transfers; observers keep receiving
// updates until Close.
func (s *Service) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.started.Store(true)
		context.AfterFunc(ctx, s.cancel)
		s.workers.Add(2)
		go func() {
			defer s.workers.Done()
			s.reporter.Run(context.Background())
		}()
		go func() {
			defer s.workers.Done()
			s.scheduler.Run(s.ctx)
		}()
		s.logger.Info("service started", "max_parallel", s.scheduler.MaxParallel())
	})
}

// SubmitJob admits a source. Playlist sources are resolved in the
// background; everything else is queued for the worker pool.
func (s *Service) SubmitJob(source string, format model.Format, folder string) (model.JobID, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return 0, model.ErrEmptySource
	}
	if format == "" {
		format = model.FormatVideo
	}
	folder = platform.SanitizeFolderName(folder)

	s.admitMu.Lock()
	defer s.admitMu.Unlock()
	if err := s.admissionErr(); err != nil {
		return 0, err
	}

	job := s.registry.Create(source, format, folder)
	s.reporter.Announce(job.ID)
	s.logger.Info("job submitted", "job_id", job.ID, "source", source, "format", string(format), "folder", job.FolderLabel())

	if !s.resolver.NeedsResolution(source) {
		if err := s.enqueue(job); err != nil {
			return 0, err
		}
		return job.ID, nil
	}

	s.resolving.add()
	go func() {
		defer s.resolving.done()
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("resolver panicked", "job_id", job.ID, "panic", rec)
				s.reporter.Report(job.ID, model.Update{
					State: model.Ptr(model.JobStateError),
					Error: model.Ptr(fmt.Sprintf("internal error: %v", rec)),
				})
			}
		}()
		_ = s.resolver.Resolve(s.ctx, job)
	}()
	return job.ID, nil
}

// SubmitDerived queues a job produced by resolving parent
func (s *Service) SubmitDerived(parent model.JobID, source, title string, format model.Format, folder string) (model.JobID, error) {
	if strings.TrimSpace(source) == "" {
		return 0, model.ErrEmptySource
	}
	s.admitMu.Lock()
	defer s.admitMu.Unlock()
	if err := s.admissionErr(); err != nil {
		return 0, err
	}
	job := s.registry.CreateDerived(parent, source, title, format, folder)
	s.reporter.Announce(job.ID)
	s.logger.Debug("derived job submitted", "job_id", job.ID, "parent_id", parent, "source", source)
	if err := s.enqueue(job); err != nil {
		return 0, err
	}
	return job.ID, nil
}

// admissionErr reports why no new job may be admitted. Callers hold admitMu.
func (s *Service) admissionErr() error {
	if err := s.ctx.Err(); err != nil {
		return err
	}
	if s.closed {
		return ErrStopped
	}
	return nil
}

// enqueue hands job to the dispatcher, withdrawing it from the registry
// if the dispatcher has already stopped
func (s *Service) enqueue(job model.Job) error {
	if err := s.scheduler.Enqueue(job); err != nil {
		s.logger.Warn("job refused after shutdown", "job_id", job.ID, "error", err)
		s.reporter.Remove(job.ID)
		return err
	}
	return nil
}

// OnJobUpdated registers an observer for job changes
func (s *Service) OnJobUpdated(fn func(progress.Event)) {
	s.reporter.Subscribe(fn)
}

// Job returns a snapshot of one job
func (s *Service) Job(id model.JobID) (model.Job, bool) {
	return s.registry.Get(id)
}

// Jobs returns snapshots of every visible job ordered by id
func (s *Service) Jobs() []model.Job {
	return s.registry.Snapshot()
}

// History returns completed transfers, newest first
func (s *Service) History() []model.HistoryEntry {
	if s.history == nil {
		return nil
	}
	return s.history.All()
}

// ClearHistory empties the history log
func (s *Service) ClearHistory() error {
	if s.history == nil {
		return nil
	}
	return s.history.Clear()
}

// Wait blocks until every submitted job, including jobs derived from
// playlists, has reached a terminal state and observers have seen it
func (s *Service) Wait(ctx context.Context) error {
	for {
		if err := s.resolving.wait(ctx); err != nil {
			return err
		}
		if err := s.scheduler.Wait(ctx); err != nil {
			return err
		}
		if err := s.reporter.Sync(ctx); err != nil {
			return err
		}
		// a submission may have arrived while the scheduler drained
		if s.resolving.idleNow() && s.scheduler.track.idleNow() {
			return nil
		}
	}
}

// Close stops dispatching, cancels running transfers and delivers their
// final updates before returning
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		s.admitMu.Lock()
		s.closed = true
		s.cancel()
		s.admitMu.Unlock()
		if s.started.Load() {
			_ = s.resolving.wait(context.Background())
			_ = s.scheduler.Wait(context.Background())
		}
		s.reporter.Close()
		s.workers.Wait()
		s.logger.Info("service stopped")
	})
}

func generateSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
