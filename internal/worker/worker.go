// Package worker runs periodic maintenance tasks alongside the API server.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DukeRupert/kaia/internal/metrics"
)

// Worker runs each registered task on its own schedule.
type Worker struct {
	tasks  map[string]Task
	config Config
	logger *slog.Logger

	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a new Worker with the given configuration.
// The worker must be started with Start() and stopped with Stop().
func New(config Config, logger *slog.Logger) (*Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Worker{
		tasks:  make(map[string]Task),
		config: config,
		logger: logger,
		stopCh: make(chan struct{}),
	}, nil
}

// Register adds a task to the worker. Call this before Start().
func (w *Worker) Register(task Task) {
	name := task.Name()
	if _, exists := w.tasks[name]; exists {
		w.logger.Warn("Overwriting existing task", "task", name)
	}
	w.tasks[name] = task
	w.logger.Debug("Registered task", "task", name, "interval", task.Interval())
}

// Start launches one goroutine per registered task. Tasks stop when ctx is
// canceled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	for _, task := range w.tasks {
		w.wg.Add(1)
		go w.loop(ctx, task)
	}
	w.logger.Info("Worker started", "tasks", len(w.tasks))
}

// Stop signals all tasks to stop and waits up to ShutdownTimeout for
// in-flight runs to return.
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	w.stopOnce.Do(func() { close(w.stopCh) })

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Worker stopped gracefully")
	case <-time.After(w.config.ShutdownTimeout):
		w.logger.Warn("Worker shutdown timeout exceeded, some tasks may still be running")
	}
}

// loop runs task until stopped or until it fails permanently.
func (w *Worker) loop(ctx context.Context, task Task) {
	defer w.wg.Done()

	logger := w.logger.With("task", task.Name())

	// Cancel in-flight runs on Stop.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	if w.config.RunOnStart {
		if !w.runOnce(ctx, task, logger) {
			return
		}
	}

	timer := time.NewTimer(task.Interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Task stopping")
			return
		case <-timer.C:
			if !w.runOnce(ctx, task, logger) {
				return
			}
			timer.Reset(task.Interval())
		}
	}
}

// runOnce executes one pass of task. It returns false when the task must not
// be scheduled again.
func (w *Worker) runOnce(ctx context.Context, task Task, logger *slog.Logger) bool {
	if ctx.Err() != nil {
		return false
	}

	runCtx, cancel := context.WithTimeout(ctx, w.config.TaskTimeout)
	defer cancel()

	start := time.Now()
	err := task.Run(runCtx)
	duration := time.Since(start)

	switch {
	case err == nil:
		metrics.TaskCompleted(task.Name(), duration)
		logger.Debug("Task completed", "duration_ms", duration.Milliseconds())
		return true
	case IsPermanent(err):
		metrics.TaskFailed(task.Name())
		logger.Error("Task failed permanently, unscheduling", "error", err)
		return false
	case ctx.Err() != nil:
		// Shutting down.
		return false
	default:
		metrics.TaskFailed(task.Name())
		logger.Error("Task failed", "error", err, "duration_ms", duration.Milliseconds())
		return true
	}
}
