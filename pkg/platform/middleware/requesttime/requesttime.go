// Package requesttime captures a single "now" per request so every record a
// request writes (pending operation, subject timestamps) shares it.
package requesttime

import (
	"net/http"
	"time"

	"idsim/pkg/requestcontext"
)

// Middleware stores the request start time in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
