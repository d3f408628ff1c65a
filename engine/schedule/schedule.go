// Package schedule runs periodic background tasks. A task that fails or
// panics is logged and re-armed for its next period; only cancellation
// stops the runner.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Task is one periodic job.
type Task struct {
	Name  string
	Every time.Duration
	// Immediate fires the task once before the first period elapses.
	Immediate bool
	Run       func(ctx context.Context) error
}

// Runner owns a set of tasks.
type Runner struct {
	tasks []Task
	log   *slog.Logger
}

// New creates a runner.
func New(log *slog.Logger, tasks ...Task) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{tasks: tasks, log: log}
}

// Add registers another task. Call before Run.
func (r *Runner) Add(t Task) {
	r.tasks = append(r.tasks, t)
}

// Run blocks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	for _, t := range r.tasks {
		if t.Every <= 0 {
			return fmt.Errorf("task %s: period must be positive", t.Name)
		}
		if t.Run == nil {
			return fmt.Errorf("task %s: no run function", t.Name)
		}
	}
	eg, ctx := errgroup.WithContext(ctx)
	for _, t := range r.tasks {
		eg.Go(func() error {
			r.loop(ctx, t)
			return nil
		})
	}
	return eg.Wait()
}

func (r *Runner) loop(ctx context.Context, t Task) {
	ticker := time.NewTicker(t.Every)
	defer ticker.Stop()
	if t.Immediate {
		r.fire(ctx, t)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.fire(ctx, t)
		}
	}
}

func (r *Runner) fire(ctx context.Context, t Task) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("scheduled task panicked", "task", t.Name, "panic", rec)
		}
	}()
	start := time.Now()
	if err := t.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		r.log.Error("scheduled task failed", "task", t.Name, "err", err)
		return
	}
	r.log.Debug("scheduled task ran", "task", t.Name, "took", time.Since(start))
}
