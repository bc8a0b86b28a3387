// Package progress delivers job updates from worker goroutines to the single
// goroutine that owns the job registry.
//
// Workers call Report, which only hands the update to a buffered channel.
// Run applies updates in arrival order, so updates for one job are never
// reordered. Progress-only updates (percent and speed) are merged per job and
// flushed on an interval; any other update for that job flushes the pending
// progress first, which keeps the terminal update last.
package progress

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ytget/ytqueue/internal/model"
	"github.com/ytget/ytqueue/internal/registry"
)

// Defaults
const (
	DefaultFlushInterval = 250 * time.Millisecond
	DefaultBufferSize    = 256
)

// Event is delivered to observers after an update has been applied
type Event struct {
	Job     model.Job
	Removed bool
}

// Observer receives events on the reporter goroutine. It must not block.
type Observer func(Event)

// Options configures a Reporter
type Options struct {
	// FlushInterval bounds how often coalesced progress is applied. Zero
	// disables coalescing.
	FlushInterval time.Duration
	BufferSize    int
}

type op struct {
	id       model.JobID
	update   model.Update
	remove   bool
	announce bool
	barrier  chan struct{}
}

// Reporter serializes all job mutation through one goroutine
type Reporter struct {
	registry      *registry.Registry
	logger        *slog.Logger
	flushInterval time.Duration

	ops       chan op
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	runOnce   sync.Once

	observersMu sync.RWMutex
	observers   []Observer

	// owned by the Run goroutine
	pending map[model.JobID]model.Update
	order   []model.JobID
}

// New creates a reporter that applies updates to reg
func New(reg *registry.Registry, logger *slog.Logger, opts Options) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.FlushInterval < 0 {
		opts.FlushInterval = 0
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	return &Reporter{
		registry:      reg,
		logger:        logger,
		flushInterval: opts.FlushInterval,
		ops:           make(chan op, opts.BufferSize),
		done:          make(chan struct{}),
		stopped:       make(chan struct{}),
		pending:       make(map[model.JobID]model.Update),
	}
}

// Subscribe registers an observer for applied updates and removals
func (r *Reporter) Subscribe(fn Observer) {
	if fn == nil {
		return
	}
	r.observersMu.Lock()
	defer r.observersMu.Unlock()
	r.observers = append(r.observers, fn)
}

// Report queues an update for job id. It blocks only while the buffer is
// full and returns immediately once the reporter is closed.
func (r *Reporter) Report(id model.JobID, u model.Update) {
	if u.IsEmpty() {
		return
	}
	r.send(op{id: id, update: u})
}

// Announce publishes a job that was just created in the registry, so
// observers see it in its initial state before any worker update
func (r *Reporter) Announce(id model.JobID) {
	r.send(op{id: id, announce: true})
}

// Remove queues removal of job id from the visible registry
func (r *Reporter) Remove(id model.JobID) {
	r.send(op{id: id, remove: true})
}

func (r *Reporter) send(o op) {
	select {
	case <-r.done:
		return
	default:
	}
	select {
	case r.ops <- o:
	case <-r.done:
	}
}

// Sync blocks until every update reported before the call has been applied
func (r *Reporter) Sync(ctx context.Context) error {
	barrier := make(chan struct{})
	select {
	case r.ops <- op{barrier: barrier}:
	case <-r.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-barrier:
		return nil
	case <-r.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run applies updates until ctx is cancelled or Close is called. Queued
// updates are drained and pending progress flushed before it returns.
func (r *Reporter) Run(ctx context.Context) {
	started := false
	r.runOnce.Do(func() { started = true })
	if !started {
		return
	}
	defer close(r.stopped)

	var tick <-chan time.Time
	if r.flushInterval > 0 {
		ticker := time.NewTicker(r.flushInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			r.drain()
			return
		case <-r.done:
			r.drain()
			return
		case o := <-r.ops:
			r.handle(o)
		case <-tick:
			r.flushAll()
		}
	}
}

// Close stops accepting updates and lets Run finish
func (r *Reporter) Close() {
	r.closeOnce.Do(func() { close(r.done) })
}

// Done is closed once Run has returned
func (r *Reporter) Done() <-chan struct{} {
	return r.stopped
}

func (r *Reporter) drain() {
	for {
		select {
		case o := <-r.ops:
			r.handle(o)
		default:
			r.flushAll()
			return
		}
	}
}

func (r *Reporter) handle(o op) {
	switch {
	case o.barrier != nil:
		r.flushAll()
		close(o.barrier)
	case o.announce:
		if job, ok := r.registry.Get(o.id); ok {
			r.notify(Event{Job: job})
		}
	case o.remove:
		r.flush(o.id)
		if job, ok := r.registry.Remove(o.id); ok {
			r.notify(Event{Job: job, Removed: true})
		}
	case r.flushInterval > 0 && o.update.IsProgressOnly():
		if _, exists := r.pending[o.id]; !exists {
			r.order = append(r.order, o.id)
		}
		r.pending[o.id] = r.pending[o.id].Merge(o.update)
	default:
		r.flush(o.id)
		r.apply(o.id, o.update)
	}
}

func (r *Reporter) flush(id model.JobID) {
	u, exists := r.pending[id]
	if !exists {
		return
	}
	delete(r.pending, id)
	for i, pendingID := range r.order {
		if pendingID == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.apply(id, u)
}

func (r *Reporter) flushAll() {
	if len(r.order) == 0 {
		return
	}
	order := r.order
	r.order = nil
	for _, id := range order {
		u, exists := r.pending[id]
		if !exists {
			continue
		}
		delete(r.pending, id)
		r.apply(id, u)
	}
}

func (r *Reporter) apply(id model.JobID, u model.Update) {
	job, found, err := r.registry.ApplyUpdate(id, u)
	if !found {
		r.logger.Debug("update for unknown job ignored", "job_id", id)
		return
	}
	if err != nil {
		r.logger.Warn("job update rejected", "job_id", id, "state", job.State, "error", err)
		return
	}
	r.notify(Event{Job: job})
}

func (r *Reporter) notify(e Event) {
	r.observersMu.RLock()
	observers := make([]Observer, len(r.observers))
	copy(observers, r.observers)
	r.observersMu.RUnlock()

	for _, fn := range observers {
		r.callObserver(fn, e)
	}
}

func (r *Reporter) callObserver(fn Observer, e Event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("job observer panicked", "job_id", e.Job.ID, "panic", rec)
		}
	}()
	fn(e)
}
