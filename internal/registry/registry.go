// Package registry holds the authoritative set of jobs created during the
// process lifetime, keyed by id.
//
// Any goroutine may create jobs and take snapshot reads. Field mutation
// (ApplyUpdate, Remove) belongs to a single writer: the progress reporter's
// owner goroutine. Callers never receive pointers into the map.
package registry

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ytget/ytqueue/internal/model"
)

// Registry maps job ids to their current state
type Registry struct {
	mu     sync.RWMutex
	jobs   map[model.JobID]*model.Job
	nextID atomic.Int64
	now    func() time.Time
}

// New creates an empty registry. Ids start at 1.
func New() *Registry {
	return &Registry{
		jobs: make(map[model.JobID]*model.Job),
		now:  time.Now,
	}
}

// Create allocates a new id and stores a Queued job whose title is the raw source
func (r *Registry) Create(source string, format model.Format, folder string) model.Job {
	return r.CreateDerived(0, source, source, format, folder)
}

// CreateDerived stores a Queued job produced by resolving parent
func (r *Registry) CreateDerived(parent model.JobID, source, title string, format model.Format, folder string) model.Job {
	now := r.now()
	job := &model.Job{
		ID:        model.JobID(r.nextID.Add(1)),
		ParentID:  parent,
		Source:    source,
		Format:    format,
		Folder:    folder,
		Title:     title,
		State:     model.JobStateQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()

	return *job
}

// Get returns a copy of the job
func (r *Registry) Get(id model.JobID) (model.Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, exists := r.jobs[id]
	if !exists {
		return model.Job{}, false
	}
	return *job, true
}

// Snapshot returns copies of all jobs ordered by id
func (r *Registry) Snapshot() []model.Job {
	r.mu.RLock()
	jobs := make([]model.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		jobs = append(jobs, *job)
	}
	r.mu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ID < jobs[j].ID })
	return jobs
}

// Len returns the number of visible jobs
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

// ApplyUpdate merges u into the stored job and returns the result. An unknown
// id is not an error: found is false and nothing is created. A rejected state
// transition returns the unchanged job together with the error.
func (r *Registry) ApplyUpdate(id model.JobID, u model.Update) (job model.Job, found bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.jobs[id]
	if !exists {
		return model.Job{}, false, nil
	}
	if err := stored.Apply(u, r.now()); err != nil {
		return *stored, true, err
	}
	return *stored, true, nil
}

// Remove drops the job from the visible registry and returns its last state
func (r *Registry) Remove(id model.JobID) (model.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, exists := r.jobs[id]
	if !exists {
		return model.Job{}, false
	}
	delete(r.jobs, id)
	return *job, true
}
