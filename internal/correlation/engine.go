// Package correlation records issued backend operations under a reference
// token and hands them back to the callback that completes them.
//
// A token is begun once, optionally merged into by intermediate callbacks,
// and ended exactly once by its terminal callback. Ending an absent token
// is a no-op so duplicate terminal callbacks are harmless.
package correlation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"idsim/internal/correlation/metrics"
	"idsim/internal/correlation/models"
	dErrors "idsim/pkg/domain-errors"
	"idsim/pkg/platform/sentinel"
	"idsim/pkg/requestcontext"
)

const (
	defaultAwaitTimeout  = 2 * time.Second
	defaultAwaitInterval = 50 * time.Millisecond
)

// ErrNotReady is returned by AwaitUntil when the record exists but never
// satisfied the readiness check.
var ErrNotReady = errors.New("pending operation not ready")

// Store persists pending operations. See the store package for the error
// contract.
type Store interface {
	Create(ctx context.Context, op *models.PendingOperation) error
	Find(ctx context.Context, token string) (*models.PendingOperation, error)
	Update(ctx context.Context, token string, fn func(*models.PendingOperation) error) error
	Delete(ctx context.Context, token string) (*models.PendingOperation, error)
	Count(ctx context.Context) (int, error)
}

// Engine is the correlation API used by lifecycle flows.
type Engine struct {
	store         Store
	logger        *slog.Logger
	metrics       *metrics.Metrics
	awaitTimeout  time.Duration
	awaitInterval time.Duration
	newToken      func() string
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithAwait bounds how long Await keeps retrying a missing token.
func WithAwait(timeout, interval time.Duration) Option {
	return func(e *Engine) {
		if timeout > 0 {
			e.awaitTimeout = timeout
		}
		if interval > 0 {
			e.awaitInterval = interval
		}
	}
}

// WithTokenGenerator replaces uuid.NewString for generated tokens.
func WithTokenGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newToken = fn
		}
	}
}

// New constructs an Engine over store.
func New(store Store, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, errors.New("correlation store is required")
	}
	e := &Engine{
		store:         store,
		logger:        slog.Default(),
		awaitTimeout:  defaultAwaitTimeout,
		awaitInterval: defaultAwaitInterval,
		newToken:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Begin records a pending operation and returns its token. An empty token
// is generated. Reusing a live token is a CodeConflict error and leaves the
// existing record untouched.
func (e *Engine) Begin(ctx context.Context, token string, kind models.Kind, payload models.Payload) (string, error) {
	if !kind.IsValid() {
		return "", dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown operation kind %q", kind))
	}
	if token == "" {
		token = e.newToken()
	}
	now := requestcontext.Now(ctx)
	op := &models.PendingOperation{
		Token:     token,
		Kind:      kind,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.store.Create(ctx, op); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return "", dErrors.Wrap(err, dErrors.CodeConflict, "reference token already in use")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to record pending operation")
	}
	e.metrics.IncrementBegun(string(kind))
	e.logger.DebugContext(ctx, "pending operation begun", "reference_id", token, "kind", kind)
	return token, nil
}

// Get returns the pending operation or an error wrapping sentinel.ErrNotFound.
func (e *Engine) Get(ctx context.Context, token string) (*models.PendingOperation, error) {
	if token == "" {
		return nil, fmt.Errorf("empty reference token: %w", sentinel.ErrNotFound)
	}
	return e.store.Find(ctx, token)
}

// Await is Get retried with exponential backoff while the token is absent.
// A callback can outrun the Begin write of its own flow; Await gives that
// write a bounded window to land before the token is treated as unknown.
func (e *Engine) Await(ctx context.Context, token string) (*models.PendingOperation, error) {
	return e.AwaitUntil(ctx, token, nil)
}

// AwaitUntil is Await that also waits for ready to hold, e.g. for a
// backend-assigned id to be merged. When the window closes with the token
// present but not ready, the last read is returned with ErrNotReady.
func (e *Engine) AwaitUntil(ctx context.Context, token string, ready func(*models.PendingOperation) bool) (*models.PendingOperation, error) {
	if token == "" {
		return nil, fmt.Errorf("empty reference token: %w", sentinel.ErrNotFound)
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.awaitInterval
	b.MaxInterval = e.awaitTimeout / 4
	b.MaxElapsedTime = e.awaitTimeout

	var last *models.PendingOperation
	attempt := 0
	op, err := backoff.RetryWithData(func() (*models.PendingOperation, error) {
		if attempt > 0 {
			e.metrics.IncrementAwaitRetries()
		}
		attempt++
		op, err := e.store.Find(ctx, token)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				last = nil
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		last = op
		if ready != nil && !ready(op) {
			return nil, ErrNotReady
		}
		return op, nil
	}, backoff.WithContext(b, ctx))
	if errors.Is(err, ErrNotReady) && last != nil {
		return last, err
	}
	return op, err
}

// Merge mutates the payload of a live token. The kind never changes.
func (e *Engine) Merge(ctx context.Context, token string, fn func(*models.Payload)) error {
	now := requestcontext.Now(ctx)
	return e.store.Update(ctx, token, func(op *models.PendingOperation) error {
		kind := op.Kind
		fn(&op.Payload)
		op.Kind = kind
		op.UpdatedAt = now
		return nil
	})
}

// End deletes the token. An absent token is not an error.
func (e *Engine) End(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	op, err := e.store.Delete(ctx, token)
	if err != nil {
		return err
	}
	if op != nil {
		e.metrics.IncrementEnded(string(op.Kind))
		e.logger.DebugContext(ctx, "pending operation ended", "reference_id", token, "kind", op.Kind)
	}
	return nil
}

// SyncMetrics sets the pending gauge from the store, e.g. after a restart
// against a durable store.
func (e *Engine) SyncMetrics(ctx context.Context) error {
	n, err := e.store.Count(ctx)
	if err != nil {
		return err
	}
	e.metrics.SetPending(n)
	return nil
}
