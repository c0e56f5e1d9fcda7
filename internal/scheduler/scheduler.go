// Package scheduler runs named tasks at fixed intervals. A task that is
// still running when its next tick arrives is skipped rather than
// overlapped.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"addresswatch/internal/pkg/logger"
)

var (
	// ErrAlreadyStarted is returned by Start after a successful start.
	ErrAlreadyStarted = errors.New("scheduler already started")

	// ErrStarted is returned by Register once the scheduler is running.
	ErrStarted = errors.New("cannot register jobs after start")
)

// Task is a unit of scheduled work. Errors are logged, not fatal: the
// task runs again on its next tick.
type Task func(ctx context.Context) error

type job struct {
	name    string
	every   time.Duration
	task    Task
	running atomic.Bool
}

// Scheduler owns a set of periodic jobs and their goroutines.
type Scheduler struct {
	mu        sync.Mutex
	isStarted bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	jobs []*job
}

// New creates an empty Scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

// Register adds a periodic job. All jobs must be registered before Start.
func (s *Scheduler) Register(name string, every time.Duration, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isStarted {
		return ErrStarted
	}

	s.jobs = append(s.jobs, &job{name: name, every: every, task: task})
	return nil
}

// Start launches one goroutine per registered job. Each job first runs
// after its interval elapses and keeps running on that cadence until
// Close is called or the parent context is canceled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isStarted {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.runJob(ctx, j)
	}

	s.isStarted = true
	logger.Info(ctx, "scheduler started", "jobs", len(s.jobs))
	return nil
}

// runJob drives one job's tick loop.
func (s *Scheduler) runJob(ctx context.Context, j *job) {
	defer s.wg.Done()

	ticker := time.NewTicker(j.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.execute(ctx, j)
		}
	}
}

// execute runs the job's task once, unless its previous run is still in
// flight.
func (s *Scheduler) execute(ctx context.Context, j *job) {
	if !j.running.CompareAndSwap(false, true) {
		logger.Warn(ctx, "previous run still in progress, skipping tick", "job", j.name)
		return
	}
	defer j.running.Store(false)

	started := time.Now()
	if err := j.task(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		logger.Error(ctx, "scheduled job failed", "job", j.name, "error", err)
		return
	}

	logger.Debug(ctx, "scheduled job finished", "job", j.name, "duration", time.Since(started))
}

// Close stops all job goroutines and waits for in-flight runs to finish.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	s.isStarted = false
	s.cancel = nil
}
