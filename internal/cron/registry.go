package cron

import "context"

// Job is a unit of nightly maintenance work, such as the package expiry
// sweep or the notification purge. Jobs must tolerate reruns: the scheduler
// never retries a failed job, the next cycle simply runs it again.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds the jobs one worker instance executes per cycle. Jobs run
// in registration order; a duplicate name is ignored so a misconfigured
// worker cannot sweep the same table twice in one cycle.
type Registry struct {
	jobs []Job
}

// NewRegistry builds a registry from the given jobs, skipping nils.
func NewRegistry(jobs ...Job) *Registry {
	registry := &Registry{}
	for _, job := range jobs {
		registry.Register(job)
	}
	return registry
}

// Register appends a job unless one with the same name is already present.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	for _, existing := range r.jobs {
		if existing.Name() == job.Name() {
			return
		}
	}
	r.jobs = append(r.jobs, job)
}

// Jobs returns a copy of the registered jobs in registration order.
func (r *Registry) Jobs() []Job {
	out := make([]Job, len(r.jobs))
	copy(out, r.jobs)
	return out
}
