package web

import (
	"context"

	"Atelie/internal/core/fetch"
)

// load mounts a query for the screen, waits for its first fetch and
// unmounts it. A cancelled request renders whatever state was reached.
func load[T any](ctx context.Context, producer fetch.Producer[T]) fetch.State[T] {
	q := fetch.Mount(ctx, producer)
	defer q.Unmount()

	select {
	case <-q.Done():
	case <-ctx.Done():
	}
	return q.State()
}

// loadPair runs two queries concurrently, the way a screen with two data sources mounts both at once.
func loadPair[A, B any](ctx context.Context, first fetch.Producer[A], second fetch.Producer[B]) (fetch.State[A], fetch.State[B]) {
	qa := fetch.Mount(ctx, first)
	defer qa.Unmount()
	qb := fetch.Mount(ctx, second)
	defer qb.Unmount()

	for _, done := range []<-chan struct{}{qa.Done(), qb.Done()} {
		select {
		case <-done:
		case <-ctx.Done():
		}
	}
	return qa.State(), qb.State()
}
