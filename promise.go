package aviary

import (
	"context"
	"sync"

	"github.com/casualjim/aviary/pkg/stdx"
)

// Future is the read side of a pending result. Get blocks until the result
// arrives or ctx ends, and every subsequent call returns the same outcome.
type Future[T any] interface {
	Get(context.Context) (T, error)
}

// CompletableFuture adds the write side. Complete and Error resolve the
// future exactly once, whichever lands first wins and later calls are
// ignored.
type CompletableFuture[T any] interface {
	Future[T]
	Complete(T)
	Error(error)
}

// NewFuture returns an unresolved future. It is safe to share across
// goroutines, any number of readers can block in Get.
func NewFuture[T any]() CompletableFuture[T] {
	return &future[T]{done: make(chan struct{})}
}

type future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

func (f *future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return stdx.Zero[T](), ctx.Err()
	}
}

func (f *future[T]) Complete(value T) {
	f.once.Do(func() {
		f.value = value
		close(f.done)
	})
}

func (f *future[T]) Error(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}
