// Package fetch turns an asynchronous producer into observable
// {data, loading, error} state for a single screen.
//
// A Query belongs to one mount. It never caches across mounts and allows at
// most one fetch in flight: Refetch while a fetch is running is ignored and
// returns the running fetch's completion channel. A failed fetch keeps the
// data of the last successful one. After Unmount, a fetch that resolves late
// is dropped without touching state or notifying subscribers.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"Atelie/internal/core/apperr"
)

// Producer loads an ordered sequence of items.
type Producer[T any] func(ctx context.Context) ([]T, error)

// State is a snapshot of a query.
type State[T any] struct {
	// Err is the producer's error for the last settled fetch, nil on success.
	Err error
	// Data is nil until the first successful fetch.
	Data []T
	// Error is the human-readable message for Err, empty when Err is nil.
	Error   string
	Loading bool
}

// Query is the fetch state of one mount.
type Query[T any] struct {
	producer    Producer[T]
	inflight    chan struct{}
	subscribers []func(State[T])
	state       State[T]
	mu          sync.Mutex
	// notifyMu keeps subscriber callbacks in commit order.
	notifyMu sync.Mutex
	mounted  bool
}

// New mounts a query without starting a fetch.
func New[T any](producer Producer[T]) *Query[T] {
	return &Query[T]{producer: producer, mounted: true}
}

// Mount mounts a query and starts the initial fetch.
func Mount[T any](ctx context.Context, producer Producer[T]) *Query[T] {
	q := New(producer)
	q.Refetch(ctx)
	return q
}

// Refetch starts a fetch and returns a channel closed when it settles.
// If a fetch is already in flight, no new fetch starts and its channel is returned.
// On an unmounted query it does nothing and returns a closed channel.
func (q *Query[T]) Refetch(ctx context.Context) <-chan struct{} {
	q.mu.Lock()
	if !q.mounted {
		q.mu.Unlock()
		return closedChan()
	}
	if q.inflight != nil {
		ch := q.inflight
		q.mu.Unlock()
		return ch
	}

	done := make(chan struct{})
	q.inflight = done
	q.state.Loading = true
	q.state.Err = nil
	q.state.Error = ""
	q.commit()

	go q.run(ctx, done)
	return done
}

func (q *Query[T]) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	data, err := q.call(ctx)

	q.mu.Lock()
	q.inflight = nil
	if !q.mounted {
		q.mu.Unlock()
		return
	}
	q.state.Loading = false
	if err != nil {
		q.state.Err = err
		q.state.Error = messageOf(err)
	} else {
		q.state.Data = data
	}
	q.commit()
}

// call runs the producer, converting a panic into an error.
func (q *Query[T]) call(ctx context.Context) (data []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperr.Wrap(apperr.KindInternal, "fetch", "", fmt.Errorf("producer panicked: %v", r))
		}
	}()
	return q.producer(ctx)
}

// commit publishes the current state. Must be called with q.mu held; it releases it.
func (q *Query[T]) commit() {
	snapshot := q.snapshot()
	subscribers := append(([]func(State[T]))(nil), q.subscribers...)

	q.notifyMu.Lock()
	q.mu.Unlock()
	defer q.notifyMu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
}

func (q *Query[T]) snapshot() State[T] {
	s := q.state
	if s.Data != nil {
		data := make([]T, len(s.Data))
		copy(data, s.Data)
		s.Data = data
	}
	return s
}

// State returns a copy of the current state.
func (q *Query[T]) State() State[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshot()
}

// Done returns a channel closed once no fetch is in flight.
func (q *Query[T]) Done() <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.inflight != nil {
		return q.inflight
	}
	return closedChan()
}

// Subscribe registers fn to receive every committed state.
// fn must not call Refetch synchronously.
func (q *Query[T]) Subscribe(fn func(State[T])) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.subscribers = append(q.subscribers, fn)
}

// Unmount detaches the query. The in-flight call, if any, is not cancelled.
func (q *Query[T]) Unmount() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.mounted = false
	q.subscribers = nil
}

// Mounted reports whether Unmount has not been called yet.
func (q *Query[T]) Mounted() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.mounted
}

func messageOf(err error) string {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return apperr.MessageOf(err)
	}
	return err.Error()
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
