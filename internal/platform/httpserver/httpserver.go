package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with the timeouts every participant uses.
// WriteTimeout stays unset: webhook handlers may wait on the store while
// a callback that raced its initiate step backs off.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
