// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets the values, services and deferred tasks read them:
//
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//	ref := requestcontext.ReferenceID(ctx)
//
// Tests inject them directly:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

type (
	requestIDKey   struct{}
	requestTimeKey struct{}
	referenceIDKey struct{}
)

// Exported context keys for tests that need context.WithValue.
var (
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
	ContextKeyReferenceID = referenceIDKey{}
)

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// ReferenceID retrieves the correlation token a callback or flow is working on.
func ReferenceID(ctx context.Context) string {
	if ref, ok := ctx.Value(ContextKeyReferenceID).(string); ok {
		return ref
	}
	return ""
}

// WithReferenceID tags the context with a correlation token so log lines of a
// flow can be joined across the initiate and completion steps.
func WithReferenceID(ctx context.Context, referenceID string) context.Context {
	return context.WithValue(ctx, ContextKeyReferenceID, referenceID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (deferred tasks, bootstrap, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
