package tasks_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/docrelay/docrelay/pkg/lifecycle"
	"github.com/docrelay/docrelay/pkg/tasks"
)

func newRunner(t *testing.T, cfg tasks.Config) *tasks.Runner {
	t.Helper()

	if err := cfg.Finalize(tasks.ConfigEnv{}); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	r := tasks.New(&cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.Start(lifecycle.New())
	return r
}

func TestRunnerExecutesTasks(t *testing.T) {
	r := newRunner(t, tasks.Config{})

	var ran atomic.Int32
	for range 5 {
		err := r.Submit(tasks.Task{
			Name: "count",
			Fn: func(ctx context.Context) error {
				ran.Add(1)
				return nil
			},
		})
		if err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}

	r.Drain()

	if got := ran.Load(); got != 5 {
		t.Errorf("ran = %d, want 5", got)
	}
}

func TestRunnerPreservesOrderWithSingleWorker(t *testing.T) {
	r := newRunner(t, tasks.Config{Workers: 1})

	var mu sync.Mutex
	var order []int
	for i := range 4 {
		err := r.Submit(tasks.Task{
			Name: "ordered",
			Fn: func(ctx context.Context) error {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil
			},
		})
		if err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}

	r.Drain()

	for i, got := range order {
		if got != i {
			t.Fatalf("order = %v, want ascending", order)
		}
	}
}

func TestRunnerRetriesThenSucceeds(t *testing.T) {
	r := newRunner(t, tasks.Config{MaxAttempts: 3, RetryDelay: "1ms"})

	var attempts atomic.Int32
	err := r.Submit(tasks.Task{
		Name: "flaky",
		Fn: func(ctx context.Context) error {
			if attempts.Add(1) < 3 {
				return errors.New("transient")
			}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	r.Drain()

	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestRunnerAbandonsAfterMaxAttempts(t *testing.T) {
	r := newRunner(t, tasks.Config{MaxAttempts: 2, RetryDelay: "1ms"})

	var attempts atomic.Int32
	err := r.Submit(tasks.Task{
		Name: "doomed",
		Fn: func(ctx context.Context) error {
			attempts.Add(1)
			return errors.New("permanent")
		},
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	r.Drain()

	if got := attempts.Load(); got != 2 {
		t.Errorf("attempts = %d, want 2", got)
	}
}

func TestSubmitAfterDrainFails(t *testing.T) {
	r := newRunner(t, tasks.Config{})
	r.Drain()

	err := r.Submit(tasks.Task{
		Name: "late",
		Fn:   func(ctx context.Context) error { return nil },
	})
	if !errors.Is(err, tasks.ErrClosed) {
		t.Errorf("error = %v, want ErrClosed", err)
	}
}

func TestConfigValidation(t *testing.T) {
	cfg := tasks.Config{RetryDelay: "not-a-duration"}
	if err := cfg.Finalize(tasks.ConfigEnv{}); err == nil {
		t.Fatal("expected error, got nil")
	}
}
