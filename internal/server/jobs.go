package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/algo"
	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/orchestration"
	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/ws"
)

// Job is one evaluation request moving through the queue. Terminal
// states are immutable.
type Job struct {
	ID          string                             `json:"id"`
	RefPath     string                             `json:"-"`
	HypPath     string                             `json:"-"`
	Algorithms  []algo.Algorithm                   `json:"algorithms"`
	Pipeline    orchestration.Pipeline             `json:"pipeline"`
	Status      string                             `json:"status"`
	CreatedAt   time.Time                          `json:"created_at"`
	StartedAt   *time.Time                         `json:"started_at,omitempty"`
	CompletedAt *time.Time                         `json:"completed_at,omitempty"`
	Results     map[algo.Algorithm]json.RawMessage `json:"results,omitempty"`
	Error       string                             `json:"error,omitempty"`
}

// Terminal reports whether the job reached a final state.
func (j *Job) Terminal() bool {
	return j.Status == ws.StatusCompleted || j.Status == ws.StatusFailed
}

func (j *Job) clone() *Job {
	out := *j
	out.Algorithms = append([]algo.Algorithm(nil), j.Algorithms...)
	if j.Results != nil {
		out.Results = make(map[algo.Algorithm]json.RawMessage, len(j.Results))
		for k, v := range j.Results {
			out.Results[k] = v
		}
	}
	return &out
}

// JobManager owns the in-memory job table and the work queue. The
// table is mutated under a single lock with critical sections limited
// to map updates.
type JobManager struct {
	mu    sync.Mutex
	jobs  map[string]*Job
	queue chan string
}

// NewJobManager builds a manager with a bounded queue.
func NewJobManager(queueSize int) *JobManager {
	if queueSize < 1 {
		queueSize = 1024
	}
	return &JobManager{
		jobs:  make(map[string]*Job),
		queue: make(chan string, queueSize),
	}
}

// Add stores the job and enqueues it for the worker.
func (m *JobManager) Add(job *Job) error {
	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	select {
	case m.queue <- job.ID:
		return nil
	default:
		m.mu.Lock()
		delete(m.jobs, job.ID)
		m.mu.Unlock()
		return fmt.Errorf("job queue full")
	}
}

// Get returns a snapshot of the job, or nil when unknown.
func (m *JobManager) Get(id string) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil
	}
	return job.clone()
}

// Update applies fn to the stored job under the lock. Terminal jobs
// are left untouched.
func (m *JobManager) Update(id string, fn func(*Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[id]; ok && !job.Terminal() {
		fn(job)
	}
}

// List returns job snapshots newest-first with pagination and an
// optional status filter.
func (m *JobManager) List(limit, offset int, status string) []*Job {
	m.mu.Lock()
	jobs := make([]*Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		if status != "" && j.Status != status {
			continue
		}
		jobs = append(jobs, j.clone())
	}
	m.mu.Unlock()

	sort.Slice(jobs, func(i, k int) bool {
		return jobs[i].CreatedAt.After(jobs[k].CreatedAt)
	})

	if offset >= len(jobs) {
		return nil
	}
	jobs = jobs[offset:]
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs
}

// Next blocks until a job id is available, the timeout elapses, or
// ctx is cancelled. It returns false on timeout or cancellation.
func (m *JobManager) Next(ctx context.Context, timeout time.Duration) (string, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return "", false
	case <-timer.C:
		return "", false
	case id := <-m.queue:
		return id, true
	}
}
