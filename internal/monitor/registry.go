package monitor

import "sync"

// Registry tracks the live monitoring jobs by URL ID. It is the single
// source of truth for "is a job running for this URL", which keeps job
// startup idempotent.
type Registry struct {
	mu   sync.Mutex
	jobs map[int64]*Job
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[int64]*Job)}
}

// Has reports whether a job is registered for the URL.
func (r *Registry) Has(urlID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.jobs[urlID]
	return ok
}

// Register adds a job unless one is already registered for the URL. It
// returns false when a job already exists.
func (r *Registry) Register(job *Job) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.urlID]; exists {
		return false
	}
	r.jobs[job.urlID] = job
	return true
}

// Get returns the job for a URL, or nil.
func (r *Registry) Get(urlID int64) *Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[urlID]
}

// Unregister removes the job for a URL.
func (r *Registry) Unregister(urlID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, urlID)
}

// Snapshot returns the currently registered jobs.
func (r *Registry) Snapshot() []*Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	jobs := make([]*Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

// Len returns the number of registered jobs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}
