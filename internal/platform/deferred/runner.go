// Package deferred runs work after the inbound call that triggered it has
// been acknowledged. Tasks outlive their request context and are only
// cancelled by Shutdown.
package deferred

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"idsim/internal/platform/metrics"
	"idsim/pkg/requestcontext"
)

// ErrStopped is returned by Go after Shutdown began.
var ErrStopped = errors.New("deferred runner stopped")

// Runner tracks deferred tasks so shutdown can drain them.
type Runner struct {
	logger  *slog.Logger
	metrics *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// New creates a runner. metrics may be nil.
func New(logger *slog.Logger, m *metrics.Metrics) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{logger: logger, metrics: m, ctx: ctx, cancel: cancel}
}

// Go starts fn detached from parent's cancellation but keeping its values
// (request id, reference id). Failures are logged, never returned to the
// original caller.
func (r *Runner) Go(parent context.Context, name string, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return ErrStopped
	}
	r.wg.Add(1)
	r.mu.Unlock()

	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	stop := context.AfterFunc(r.ctx, cancel)

	r.metrics.TaskStarted()
	go func() {
		defer r.wg.Done()
		defer cancel()
		defer stop()

		err := r.run(ctx, name, fn)
		r.metrics.TaskFinished(name, err)
		if err != nil {
			r.logger.ErrorContext(ctx, "deferred task failed",
				"task", name,
				"request_id", requestcontext.RequestID(ctx),
				"reference_id", requestcontext.ReferenceID(ctx),
				"error", err,
			)
		}
	}()
	return nil
}

func (r *Runner) run(ctx context.Context, name string, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.ErrorContext(ctx, "deferred task panicked", "task", name, "panic", rec)
			err = errors.New("deferred task panicked")
		}
	}()
	return fn(ctx)
}

// Wait blocks until every started task returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Shutdown refuses new tasks and waits for running ones. When ctx ends
// first, running tasks are cancelled and awaited.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		<-done
		return ctx.Err()
	}
}
