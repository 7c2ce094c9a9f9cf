// Package policy decides which follow-up calls a relying party makes on its
// own when a request's status changes.
package policy

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"idsim/internal/backend"
	"idsim/internal/rp/metrics"
	"idsim/internal/rp/models"
	dErrors "idsim/pkg/domain-errors"
	"idsim/pkg/platform/sentinel"
)

// Store holds request policies until their request closes or times out.
type Store interface {
	Save(ctx context.Context, p *models.RequestPolicy) error
	Find(ctx context.Context, requestID string) (*models.RequestPolicy, error)
	Dispose(ctx context.Context, requestID string) (bool, error)
	Count(ctx context.Context) (int, error)
}

// Actions is what a status update asks the RP to do.
type Actions struct {
	Known                 bool
	Valid                 bool
	Close                 bool
	RemoveData            bool
	RemovePrivateMessages bool
	// Dispose is set once the request reached closed or timed out.
	Dispose bool
}

// Any reports whether at least one backend call is required.
func (a Actions) Any() bool {
	return a.Close || a.RemoveData || a.RemovePrivateMessages
}

// Controller stores request policies and evaluates status updates against
// them.
type Controller struct {
	store         Store
	logger        *slog.Logger
	metrics       *metrics.Metrics
	awaitTimeout  time.Duration
	awaitInterval time.Duration
}

type Option func(*Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithAwait bounds how long a status update waits for the policy of a
// request whose create call has not returned yet. Zero disables waiting.
func WithAwait(timeout, interval time.Duration) Option {
	return func(c *Controller) {
		c.awaitTimeout = timeout
		if interval > 0 {
			c.awaitInterval = interval
		}
	}
}

func NewController(store Store, opts ...Option) *Controller {
	c := &Controller{
		store:         store,
		logger:        slog.Default(),
		awaitTimeout:  2 * time.Second,
		awaitInterval: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnRequestCreated records the policy of a request the backend accepted.
func (c *Controller) OnRequestCreated(ctx context.Context, p models.RequestPolicy) error {
	if p.RequestID == "" {
		return dErrors.New(dErrors.CodeValidation, "request id is required")
	}
	if err := c.store.Save(ctx, &p); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store request policy")
	}
	c.metrics.PolicyStored()
	return nil
}

// OnStatusUpdate evaluates event against the stored policy. The policy is
// saved only after the backend answered the create call, so a missing one is
// awaited briefly. An event for a request without a policy yields no actions.
func (c *Controller) OnStatusUpdate(ctx context.Context, event backend.RequestStatus) (Actions, error) {
	p, err := c.await(ctx, event.RequestID)
	if errors.Is(err, sentinel.ErrNotFound) {
		c.logger.DebugContext(ctx, "status update for request without policy",
			"backend_request_id", event.RequestID,
			"status", event.Status,
		)
		return Actions{Valid: IsValid(event)}, nil
	}
	if err != nil {
		return Actions{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load request policy")
	}
	return Evaluate(*p, event), nil
}

func (c *Controller) await(ctx context.Context, requestID string) (*models.RequestPolicy, error) {
	if c.awaitTimeout <= 0 || requestID == "" {
		return c.store.Find(ctx, requestID)
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.awaitInterval
	b.MaxInterval = max(c.awaitTimeout/4, c.awaitInterval)
	b.MaxElapsedTime = c.awaitTimeout

	return backoff.RetryWithData(func() (*models.RequestPolicy, error) {
		p, err := c.store.Find(ctx, requestID)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return nil, backoff.Permanent(err)
		}
		return p, err
	}, backoff.WithContext(b, ctx))
}

// Dispose drops the policy of a finished request.
func (c *Controller) Dispose(ctx context.Context, requestID string) error {
	removed, err := c.store.Dispose(ctx, requestID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to dispose request policy")
	}
	if removed {
		c.metrics.PolicyDisposed()
	}
	return nil
}

// SyncMetrics sets the policy gauge from the store, e.g. after a restart
// against Redis.
func (c *Controller) SyncMetrics(ctx context.Context) error {
	n, err := c.store.Count(ctx)
	if err != nil {
		return err
	}
	c.metrics.SetPolicies(n)
	return nil
}

// Evaluate applies the close and cleanup rules to one event.
func Evaluate(p models.RequestPolicy, event backend.RequestStatus) Actions {
	a := Actions{Known: true, Valid: IsValid(event)}

	minIdP := event.MinIdP
	if minIdP == 0 {
		minIdP = p.MinIdP
	}
	finished := event.Closed || event.TimedOut
	if a.Valid && !finished && p.AutoClose &&
		(event.Status == backend.StatusRejected || event.Status == backend.StatusComplicated) &&
		event.AnsweredIdPCount == minIdP {
		a.Close = true
	}

	if finished {
		a.RemoveData = p.AutoRemoveData
		a.RemovePrivateMessages = p.AutoRemovePrivateMessage
		a.Dispose = true
	}
	return a
}

// IsValid reports whether every responder's answer checked out. Mode 1
// carries no signatures and is always valid. A field the backend did not
// evaluate does not count against validity: only an explicit false fails,
// never an absent value.
func IsValid(event backend.RequestStatus) bool {
	if event.Mode == 1 {
		return true
	}
	for _, rv := range event.ResponseValidList {
		if rv.ValidSignature != nil && !*rv.ValidSignature {
			return false
		}
		if rv.ValidIAL != nil && !*rv.ValidIAL {
			return false
		}
	}
	return true
}
