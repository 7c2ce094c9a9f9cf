package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var errBufferFull = errors.New("event buffer full")

// Publisher fans events into a Sink, synchronously or through a bounded
// buffer drained by one goroutine.
type Publisher struct {
	sink   Sink
	logger *slog.Logger
	now    func() time.Time

	participant string
	nodeID      string

	async  bool
	buffer chan Event
	wg     sync.WaitGroup
	once   sync.Once
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous delivery with a buffer of size n.
// A full buffer drops the event.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.async = true
			p.buffer = make(chan Event, n)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithSource stamps every event with the emitting participant.
func WithSource(participant, nodeID string) Option {
	return func(p *Publisher) {
		p.participant = participant
		p.nodeID = nodeID
	}
}

// NewPublisher creates a publisher over sink.
func NewPublisher(sink Sink, opts ...Option) *Publisher {
	p := &Publisher{sink: sink, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit delivers or enqueues event. Timestamp and source are filled in
// when unset.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}
	if event.Participant == "" {
		event.Participant = p.participant
	}
	if event.NodeID == "" {
		event.NodeID = p.nodeID
	}
	if !p.async {
		return p.sink.Append(ctx, event)
	}
	select {
	case p.buffer <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.logger.WarnContext(ctx, "lifecycle event dropped", "type", event.Type, "reference_id", event.ReferenceID)
		return errBufferFull
	}
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.buffer {
		if err := p.sink.Append(context.Background(), event); err != nil {
			p.logger.Error("failed to publish lifecycle event", "type", event.Type, "error", err)
		}
	}
}

// Close flushes buffered events and stops the drain goroutine.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.async {
			close(p.buffer)
			p.wg.Wait()
		}
	})
}
