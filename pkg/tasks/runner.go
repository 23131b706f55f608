// Package tasks provides a deferred task runner for persistence work that is
// scheduled after a request's response has already been decided. Tasks run in
// submission order when the runner is configured with a single worker. Failed
// tasks are retried with a fixed delay up to a bounded attempt count, then
// logged and dropped.
package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/docrelay/docrelay/pkg/lifecycle"
)

var (
	// ErrClosed is returned by Submit after the runner has stopped accepting work.
	ErrClosed = errors.New("task runner closed")

	// ErrQueueFull is returned by Submit when the queue has no capacity.
	ErrQueueFull = errors.New("task queue full")
)

// Task is a named unit of deferred work.
type Task struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Runner consumes submitted tasks on a fixed pool of workers.
type Runner struct {
	queue       chan Task
	group       *errgroup.Group
	logger      *slog.Logger
	workers     int
	maxAttempts int
	retryDelay  time.Duration

	mu     sync.RWMutex
	closed bool
}

// New creates a Runner from the given configuration. Workers do not start
// until Start is called.
func New(cfg *Config, logger *slog.Logger) *Runner {
	return &Runner{
		queue:       make(chan Task, cfg.QueueSize),
		logger:      logger.With("system", "tasks"),
		workers:     cfg.Workers,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelayDuration(),
	}
}

// Start launches the worker pool and registers a shutdown hook that stops
// intake and drains queued tasks.
func (r *Runner) Start(lc *lifecycle.Coordinator) {
	g := new(errgroup.Group)
	for range r.workers {
		g.Go(func() error {
			for task := range r.queue {
				r.run(task)
			}
			return nil
		})
	}
	r.group = g

	r.logger.Info("task runner started", "workers", r.workers)

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		r.Drain()
		r.logger.Info("task runner drained")
	})
}

// Submit enqueues a task without blocking. It fails when the runner has been
// drained or the queue is full.
func (r *Runner) Submit(task Task) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return ErrClosed
	}

	select {
	case r.queue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Drain stops accepting tasks and blocks until all queued tasks finish.
func (r *Runner) Drain() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	if r.group != nil {
		r.group.Wait()
	}
}

func (r *Runner) run(task Task) {
	for attempt := 1; ; attempt++ {
		err := task.Fn(context.Background())
		if err == nil {
			return
		}

		if attempt >= r.maxAttempts {
			r.logger.Error("deferred task abandoned",
				"task", task.Name,
				"attempts", attempt,
				"error", err,
			)
			return
		}

		r.logger.Warn("deferred task failed, retrying",
			"task", task.Name,
			"attempt", attempt,
			"error", err,
		)
		time.Sleep(r.retryDelay)
	}
}
