package deferred

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idsim/internal/platform/logger"
	"idsim/internal/platform/metrics"
	"idsim/pkg/requestcontext"
)

func newRunner() *Runner {
	return New(logger.Discard(), metrics.New(prometheus.NewRegistry(), "test"))
}

func TestRunnerOutlivesRequestContext(t *testing.T) {
	r := newRunner()
	reqCtx, cancel := context.WithCancel(requestcontext.WithRequestID(context.Background(), "req-1"))

	var sawID string
	var ctxErr error
	started := make(chan struct{})
	require.NoError(t, r.Go(reqCtx, "test", func(ctx context.Context) error {
		close(started)
		time.Sleep(20 * time.Millisecond)
		sawID = requestcontext.RequestID(ctx)
		ctxErr = ctx.Err()
		return nil
	}))
	<-started
	cancel()
	r.Wait()

	assert.Equal(t, "req-1", sawID)
	assert.NoError(t, ctxErr)
}

func TestRunnerRecoversPanics(t *testing.T) {
	r := newRunner()
	require.NoError(t, r.Go(context.Background(), "panics", func(context.Context) error {
		panic("boom")
	}))
	r.Wait()
}

func TestRunnerShutdown(t *testing.T) {
	t.Run("drains running tasks", func(t *testing.T) {
		r := newRunner()
		var finished atomic.Bool
		require.NoError(t, r.Go(context.Background(), "slow", func(context.Context) error {
			time.Sleep(30 * time.Millisecond)
			finished.Store(true)
			return nil
		}))
		require.NoError(t, r.Shutdown(context.Background()))
		assert.True(t, finished.Load())
		assert.ErrorIs(t, r.Go(context.Background(), "late", func(context.Context) error { return nil }), ErrStopped)
	})

	t.Run("cancels tasks when the deadline passes", func(t *testing.T) {
		r := newRunner()
		var cancelled atomic.Bool
		require.NoError(t, r.Go(context.Background(), "waits", func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				cancelled.Store(true)
				return ctx.Err()
			case <-time.After(5 * time.Second):
				return errors.New("not cancelled")
			}
		}))
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		err := r.Shutdown(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.True(t, cancelled.Load())
	})
}
