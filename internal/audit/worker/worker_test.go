package worker

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"satudata/internal/audit"
)

type capturePublisher struct {
	mu      sync.Mutex
	entries []audit.Entry
	fail    bool
}

func (p *capturePublisher) Publish(_ context.Context, entry audit.Entry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.entries = append(p.entries, entry)
	return nil
}

func (p *capturePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestWorkerPublishesEnqueuedEntries(t *testing.T) {
	publisher := &capturePublisher{}
	sink := NewSink(8, testLogger())
	w := New(publisher, sink, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()

	for range 3 {
		sink.Enqueue(audit.Entry{ID: uuid.New(), Action: audit.ActionCreate})
	}

	deadline := time.After(2 * time.Second)
	for publisher.count() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected 3 published entries, got %d", publisher.count())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestSinkDropsWhenFull(t *testing.T) {
	sink := NewSink(1, testLogger())

	// No worker draining: second enqueue must not block.
	sink.Enqueue(audit.Entry{ID: uuid.New()})
	doneCh := make(chan struct{})
	go func() {
		sink.Enqueue(audit.Entry{ID: uuid.New()})
		close(doneCh)
	}()

	select {
	case <-doneCh:
	case <-time.After(time.Second):
		t.Fatalf("enqueue blocked on a full buffer")
	}
}

func TestWorkerKeepsRunningAfterPublishFailure(t *testing.T) {
	publisher := &capturePublisher{fail: true}
	sink := NewSink(8, testLogger())
	w := New(publisher, sink, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()

	sink.Enqueue(audit.Entry{ID: uuid.New()})
	time.Sleep(50 * time.Millisecond)

	publisher.mu.Lock()
	publisher.fail = false
	publisher.mu.Unlock()

	sink.Enqueue(audit.Entry{ID: uuid.New()})

	deadline := time.After(2 * time.Second)
	for publisher.count() < 1 {
		select {
		case <-deadline:
			t.Fatalf("worker did not recover after publish failure")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done
}
