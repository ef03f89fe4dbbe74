// Package worker runs listeners that drain a subscription and dispatch each
// event to a handler, one at a time and in delivery order.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/devbasics/internal/domain/model"
	"github.com/okian/devbasics/pkg/logger"
	"github.com/okian/devbasics/pkg/metrics"
)

// Event is what workers read off a subscription.
type Event = model.Event

// Source delivers events. The channel is closed when the source ends.
type Source interface {
	Events() <-chan Event
}

// Handler reacts to a single event.
type Handler interface {
	Handle(ctx context.Context, e Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, e Event) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, e Event) error { //nolint:gocritic // hugeParam: Event must be passed by value for channel semantics
	return f(ctx, e)
}

// Worker processes events from a source.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, Shutdown is called
	// or the source is exhausted.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for the loop to exit.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker on top of a channel source.
type InMemoryWorker struct {
	source  Source
	handler Handler
	name    string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(source Source, handler Handler, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		source:   source,
		handler:  handler,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Nop(),
	}

	for _, opt := range opts {
		opt(w)
	}

	w.logger = w.logger.Named(w.name)

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.source.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := w.processEvent(ctx, event); err != nil {
				w.logger.Error(ctx, "error processing event", logger.Error(err))
			}
		}
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

// Shutdown gracefully stops the worker. The event being handled, if any,
// completes first.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processEvent handles a single event.
func (w *InMemoryWorker) processEvent(ctx context.Context, event Event) error { //nolint:gocritic // hugeParam: Event must be passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if err := w.handler.Handle(ctx, event); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByType("handler_error", "medium")
		return fmt.Errorf("handle event %s on %s: %w", event.ID, event.Topic, err)
	}

	w.logger.Debug(ctx, "event handled",
		logger.String("event_id", event.ID),
		logger.String("topic", event.Topic),
	)
	return nil
}
