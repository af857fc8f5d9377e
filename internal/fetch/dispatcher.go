// Package fetch runs remote calls on background goroutines as a tracked
// task set keyed by request identity, replacing ad hoc task-reference
// bookkeeping with explicit cancellation handles.
package fetch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Result carries a call's outcome to the coordinating goroutine.
type Result[T any] struct {
	Value T
	Err   error
}

// Dispatcher tracks in-flight calls by request ID. Cancelling an ID cancels
// that call's context; cancelling after completion is a no-op because the
// entry is removed from the set when the call returns.
type Dispatcher struct {
	mu       sync.Mutex
	inflight map[string]context.CancelFunc
	logger   *slog.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		inflight: make(map[string]context.CancelFunc),
		logger:   logger,
	}
}

// Go runs fn on a new goroutine and returns its request ID along with a
// buffered channel that receives the single result. A cancelled call still
// delivers a result (fn's error for the cancelled context); the receiver is
// free to ignore it.
func Go[T any](d *Dispatcher, ctx context.Context, fn func(context.Context) (T, error)) (string, <-chan Result[T]) {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(ctx)

	d.mu.Lock()
	d.inflight[id] = cancel
	d.mu.Unlock()

	results := make(chan Result[T], 1)
	go func() {
		defer d.forget(id)
		value, err := fn(ctx)
		results <- Result[T]{Value: value, Err: err}
	}()

	return id, results
}

// Cancel cancels the identified call, reporting whether it was still in
// flight.
func (d *Dispatcher) Cancel(id string) bool {
	d.mu.Lock()
	cancel, ok := d.inflight[id]
	d.mu.Unlock()

	if !ok {
		return false
	}
	d.logger.Debug("cancelling request", "request_id", id)
	cancel()
	return true
}

// CancelAll cancels every in-flight call.
func (d *Dispatcher) CancelAll() {
	d.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(d.inflight))
	for _, cancel := range d.inflight {
		cancels = append(cancels, cancel)
	}
	d.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// Inflight returns the number of calls not yet completed.
func (d *Dispatcher) Inflight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.inflight)
}

func (d *Dispatcher) forget(id string) {
	d.mu.Lock()
	cancel, ok := d.inflight[id]
	delete(d.inflight, id)
	d.mu.Unlock()

	// Release the context resources; the call has already returned.
	if ok {
		cancel()
	}
}
