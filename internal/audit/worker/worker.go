// Package worker decouples audit publishing from request latency: services
// enqueue committed entries on a channel and the worker ships them to the
// publisher in the background.
package worker

import (
	"context"
	"log/slog"

	"satudata/internal/audit"
)

// Publisher ships one audit entry downstream.
type Publisher interface {
	Publish(ctx context.Context, entry audit.Entry) error
}

// Sink is the producer side of the worker's channel. Enqueue never blocks a
// request: when the buffer is full the entry is dropped and counted against
// the log, since the database row already holds the durable copy.
type Sink struct {
	ch     chan audit.Entry
	logger *slog.Logger
}

// NewSink builds a sink with the given buffer size.
func NewSink(size int, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{ch: make(chan audit.Entry, size), logger: logger}
}

// Enqueue offers an entry for publishing.
func (s *Sink) Enqueue(entry audit.Entry) {
	select {
	case s.ch <- entry:
	default:
		s.logger.Warn("audit publish buffer full, dropping entry",
			"entry_id", entry.ID,
			"action", string(entry.Action),
		)
	}
}

// Worker consumes the sink and publishes entries until ctx is cancelled.
// Publish failures are logged, not retried: the durable record is in the
// database and consumers can re-materialize from it.
type Worker struct {
	publisher Publisher
	sink      *Sink
	logger    *slog.Logger
}

// New constructs a worker over a sink and publisher.
func New(publisher Publisher, sink *Sink, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{publisher: publisher, sink: sink, logger: logger}
}

// Run processes entries until the context is done.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-w.sink.ch:
			if err := w.publisher.Publish(ctx, entry); err != nil {
				w.logger.Error("failed to publish audit entry",
					"entry_id", entry.ID,
					"action", string(entry.Action),
					"error", err,
				)
			}
		}
	}
}
