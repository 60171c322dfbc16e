// Package scheduler runs background tasks on fixed intervals.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Task is a unit of periodic background work
type Task interface {
	Run(ctx context.Context) error
	Interval() time.Duration
	Name() string
}

// RunStats summarises the executions of one task
type RunStats struct {
	Runs      int
	Failures  int
	LastRun   time.Time
	LastError error
}

// Scheduler manages multiple scheduled tasks
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	tasks  []Task
	wg     sync.WaitGroup
	stop   sync.Once

	mu    sync.Mutex
	stats map[string]RunStats
}

// New creates a new task scheduler bound to ctx
func New(ctx context.Context) *Scheduler {
	ctx, cancel := context.WithCancel(ctx)
	return &Scheduler{
		ctx:    ctx,
		cancel: cancel,
		tasks:  make([]Task, 0),
		stats:  make(map[string]RunStats),
	}
}

// AddTask registers a task. Tasks added after Start are not run.
func (s *Scheduler) AddTask(task Task) {
	s.tasks = append(s.tasks, task)
}

// Start runs every task once immediately and then on its interval
func (s *Scheduler) Start() {
	slog.Info("Starting task scheduler")
	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.runTask(task)
	}
	slog.Info("Task scheduler started", "task_count", len(s.tasks))
}

// Stop cancels all tasks and waits for in-flight runs to return. Safe to call twice.
func (s *Scheduler) Stop() {
	s.stop.Do(func() {
		slog.Info("Stopping task scheduler")
		s.cancel()
		s.wg.Wait()
		slog.Info("Task scheduler stopped")
	})
}

// Stats returns a copy of the run statistics of the named task
func (s *Scheduler) Stats(name string) RunStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats[name]
}

func (s *Scheduler) runTask(task Task) {
	defer s.wg.Done()

	ticker := time.NewTicker(task.Interval())
	defer ticker.Stop()

	s.execute(task)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.execute(task)
		}
	}
}

// execute runs the task once, turning a panic into a failed run
func (s *Scheduler) execute(task Task) {
	start := time.Now()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task panicked: %v", r)
			}
		}()
		return task.Run(s.ctx)
	}()

	s.mu.Lock()
	st := s.stats[task.Name()]
	st.Runs++
	st.LastRun = start
	st.LastError = err
	if err != nil {
		st.Failures++
	}
	s.stats[task.Name()] = st
	s.mu.Unlock()

	if err != nil && s.ctx.Err() == nil {
		slog.Error("Error running task", "task", task.Name(), "error", err)
		return
	}
	slog.Debug("Task run complete", "task", task.Name(), "duration", time.Since(start))
}
