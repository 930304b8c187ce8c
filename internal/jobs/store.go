// Package jobs tracks asynchronous report generation runs by ID.
package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/coffersTech/logreport/internal/engine"
)

// ErrStoreFull is returned by Submit when every slot holds a running job.
var ErrStoreFull = errors.New("job store is full")

// ErrNotFound is returned for unknown or expired job IDs.
var ErrNotFound = errors.New("job not found")

// State is the lifecycle state of a job.
type State string

const (
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Request describes one report generation run.
type Request struct {
	Service  string
	LogsPath string
	Query    string
}

// RunFunc performs the work of a job.
type RunFunc func(ctx context.Context, req Request) ([]engine.Report, error)

// Job is a snapshot of a submitted run.
type Job struct {
	ID          string
	Request     Request
	State       State
	Reports     []engine.Report
	Err         error
	SubmittedAt time.Time
	FinishedAt  time.Time

	done chan struct{}
}

// Finished reports whether the job has left the running state.
func (j Job) Finished() bool {
	return j.State != StateRunning
}

// Options configures retention for a Store.
type Options struct {
	// TTL is how long a finished job stays retrievable. Zero keeps jobs
	// until capacity eviction.
	TTL time.Duration
	// Capacity caps the number of retained jobs; <= 0 means 1024.
	Capacity int
	Logger   *slog.Logger
}

// Stats are cumulative counters for the store.
type Stats struct {
	Submitted int64 `json:"submitted"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Evicted   int64 `json:"evicted"`
	Running   int   `json:"running"`
	Retained  int   `json:"retained"`
}

// Store holds jobs in memory. Finished jobs expire after the TTL and the
// oldest finished job is evicted when the store is at capacity.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job

	run      RunFunc
	ttl      time.Duration
	capacity int
	logger   *slog.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	submitted atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	evicted   atomic.Int64
}

// NewStore creates a Store that executes jobs with run.
func NewStore(run RunFunc, opts Options) *Store {
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = 1024
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		jobs:     make(map[string]*Job),
		run:      run,
		ttl:      opts.TTL,
		capacity: capacity,
		logger:   logger,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Submit registers a job and starts it in the background.
func (s *Store) Submit(req Request) (Job, error) {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return Job{}, errors.New("job store is closed")
	}
	if len(s.jobs) >= s.capacity && !s.evictOldestLocked() {
		s.mu.Unlock()
		return Job{}, ErrStoreFull
	}

	job := &Job{
		ID:          uuid.NewString(),
		Request:     req,
		State:       StateRunning,
		SubmittedAt: s.now(),
		done:        make(chan struct{}),
	}
	s.jobs[job.ID] = job
	snapshot := *job
	s.wg.Add(1)
	s.mu.Unlock()

	s.submitted.Add(1)
	s.logger.Info("job submitted", "job_id", job.ID, "service", req.Service, "logs_path", req.LogsPath)

	go s.execute(job.ID, req)
	return snapshot, nil
}

func (s *Store) execute(id string, req Request) {
	defer s.wg.Done()

	reports, err := s.run(s.ctx, req)

	s.mu.Lock()
	job, ok := s.jobs[id]
	if ok {
		job.FinishedAt = s.now()
		if err != nil {
			job.State = StateFailed
			job.Err = err
		} else {
			job.State = StateSucceeded
			job.Reports = reports
		}
		close(job.done)
	}
	s.mu.Unlock()

	if err != nil {
		s.failed.Add(1)
		s.logger.Warn("job failed", "job_id", id, "kind", engine.KindOf(err).String(), "error", err)
		return
	}
	s.succeeded.Add(1)
	s.logger.Info("job succeeded", "job_id", id, "reports", len(reports))
}

// evictOldestLocked drops the finished job that finished first.
// Caller must hold s.mu.
func (s *Store) evictOldestLocked() bool {
	var oldest *Job
	for _, job := range s.jobs {
		if !job.Finished() {
			continue
		}
		if oldest == nil || job.FinishedAt.Before(oldest.FinishedAt) {
			oldest = job
		}
	}
	if oldest == nil {
		return false
	}
	delete(s.jobs, oldest.ID)
	s.evicted.Add(1)
	return true
}

// Get returns a snapshot of the job with the given ID.
func (s *Store) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Wait blocks until the job finishes or ctx is done.
func (s *Store) Wait(ctx context.Context, id string) (Job, error) {
	job, ok := s.Get(id)
	if !ok {
		return Job{}, ErrNotFound
	}
	select {
	case <-job.done:
	case <-ctx.Done():
		return job, ctx.Err()
	}
	job, ok = s.Get(id)
	if !ok {
		return Job{}, ErrNotFound
	}
	return job, nil
}

// List returns snapshots of all retained jobs, oldest submission first.
func (s *Store) List() []Job {
	s.mu.RLock()
	list := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		list = append(list, *job)
	}
	s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if list[i].SubmittedAt.Equal(list[j].SubmittedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].SubmittedAt.Before(list[j].SubmittedAt)
	})
	return list
}

// PruneExpired removes finished jobs older than the TTL and returns how many
// were removed. Running jobs are never pruned.
func (s *Store) PruneExpired() int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	count := 0
	for id, job := range s.jobs {
		if job.Finished() && job.FinishedAt.Before(cutoff) {
			delete(s.jobs, id)
			count++
		}
	}
	return count
}

// StartCleanupLoop prunes expired jobs every interval until ctx is done.
func (s *Store) StartCleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := s.PruneExpired(); n > 0 {
					s.logger.Debug("pruned expired jobs", "count", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stats returns the store counters.
func (s *Store) Stats() Stats {
	st := Stats{
		Submitted: s.submitted.Load(),
		Succeeded: s.succeeded.Load(),
		Failed:    s.failed.Load(),
		Evicted:   s.evicted.Load(),
	}
	s.mu.RLock()
	st.Retained = len(s.jobs)
	for _, job := range s.jobs {
		if !job.Finished() {
			st.Running++
		}
	}
	s.mu.RUnlock()
	return st
}

// Close cancels running jobs and waits for them to finish, or for ctx to
// be done.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
