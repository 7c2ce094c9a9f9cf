// Package backend is the HTTP client for the verification backend that
// brokers identity requests between participants.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseBody = 4 << 20
	tracerName      = "idsim/backend"
)

// HTTPDoer is the subset of *http.Client the client needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the backend's versioned REST API.
type Client struct {
	base   string
	doer   HTTPDoer
	logger *slog.Logger
	tracer trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.doer = doer
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a client for baseURL. apiVersion is the path prefix, e.g. "v5".
func New(baseURL, apiVersion string, timeout time.Duration, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend: invalid base url %q", baseURL)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := u.String()
	if v := strings.Trim(apiVersion, "/"); v != "" {
		base += "/" + v
	}
	c := &Client{
		base:   base,
		doer:   &http.Client{Timeout: timeout},
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the versioned base the client calls.
func (c *Client) BaseURL() string { return c.base }

func (c *Client) post(ctx context.Context, op, path string, in, out any) error {
	return c.do(ctx, op, http.MethodPost, path, in, out)
}

func (c *Client) get(ctx context.Context, op, path string, out any) error {
	return c.do(ctx, op, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "backend."+op, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.method", method), attribute.String("backend.path", path)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var body io.Reader
	if in != nil {
		payload, mErr := json.Marshal(in)
		if mErr != nil {
			return &Error{Kind: KindLocal, Op: op, Err: fmt.Errorf("encode request: %w", mErr)}
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return &Error{Kind: KindLocal, Op: op, Err: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.doer.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "backend call failed", "op", op, "path", path, "error", err)
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.logger.DebugContext(ctx, "backend call",
		"op", op, "path", path, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Kind: KindBackend, Op: op, Status: resp.StatusCode, Body: raw}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	// The backend accepted the call; an unreadable body only loses the ids
	// it echoes back, which the callbacks carry again.
	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.WarnContext(ctx, "undecodable backend response",
			"op", op, "path", path, "status", resp.StatusCode, "error", err)
		span.AddEvent("response decode failed", trace.WithAttributes(attribute.String("error", err.Error())))
	}
	return nil
}

func identityPath(namespace, identifier string) string {
	return "/identity/" + url.PathEscape(namespace) + "/" + url.PathEscape(identifier)
}
