// Package bootstrap retries the self-registration calls a participant must
// make before the backend will deliver callbacks to it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Step is one registration call. Run is retried until it succeeds or
// returns a backoff.Permanent error.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Registrar runs steps in passes. Every pass attempts each step that has
// not succeeded yet, so one failing step never holds back the others.
type Registrar struct {
	logger   *slog.Logger
	interval time.Duration
}

func New(logger *slog.Logger, interval time.Duration) *Registrar {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Registrar{logger: logger, interval: interval}
}

// Run returns nil once every step succeeded. Steps that failed permanently
// are dropped and reported in the returned error; if ctx ends first its
// error is returned too.
func (r *Registrar) Run(ctx context.Context, steps ...Step) error {
	pending := steps
	attempts := make(map[string]int, len(steps))
	var abandoned []error

	pass := func() error {
		var (
			failed []Step
			errs   []error
		)
		for _, step := range pending {
			attempts[step.Name]++
			err := step.Run(ctx)

			var permanent *backoff.PermanentError
			switch {
			case err == nil:
				r.logger.InfoContext(ctx, "registration complete", "step", step.Name, "attempts", attempts[step.Name])
			case errors.As(err, &permanent):
				r.logger.ErrorContext(ctx, "registration abandoned", "step", step.Name, "error", permanent.Err)
				abandoned = append(abandoned, fmt.Errorf("bootstrap %s: %w", step.Name, permanent.Err))
			default:
				failed = append(failed, step)
				errs = append(errs, fmt.Errorf("%s: %w", step.Name, err))
			}
		}
		pending = failed
		return errors.Join(errs...)
	}
	notify := func(err error, wait time.Duration) {
		r.logger.WarnContext(ctx, "registration failed, retrying",
			"pending", len(pending), "retry_in", wait.String(), "error", err)
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(r.interval), ctx)
	if err := backoff.RetryNotify(pass, b, notify); err != nil {
		abandoned = append(abandoned, fmt.Errorf("bootstrap: %w", err))
	}
	return errors.Join(abandoned...)
}
