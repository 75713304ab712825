package stream

import (
	"context"
	"io"
	"iter"
	"sync"
)

// AsyncStream is a single-pass sequence whose every pull takes a context.
// A pull may block on the producer (a chunk read, another stream) and is
// abandoned when the context ends. Not safe for concurrent use: the
// goroutine that pulls also closes.
type AsyncStream[T any] struct {
	next      func(ctx context.Context) (T, error)
	onClose   func() error
	closeOnce sync.Once
	closeErr  error
	claimed   bool
	done      bool
}

// NewAsync creates an async stream from a pull function returning io.EOF at
// the end. closeFn, if not nil, is called once when the stream ends or is closed.
func NewAsync[T any](next func(ctx context.Context) (T, error), closeFn func() error) *AsyncStream[T] {
	return &AsyncStream[T]{next: next, onClose: closeFn}
}

// Async wraps a synchronous stream: every pull is an already-resolved value.
// Ordering and timing of the source are unchanged.
func Async[T any](s *Stream[T]) *AsyncStream[T] {
	return NewAsync(func(context.Context) (T, error) {
		return s.Next()
	}, s.Close)
}

// FromSliceAsync streams the items of a slice asynchronously.
func FromSliceAsync[T any](items []T) *AsyncStream[T] {
	return Async(FromSlice(items))
}

// EmptyAsync returns an async stream with no items.
func EmptyAsync[T any]() *AsyncStream[T] {
	return FromSliceAsync[T](nil)
}

// Next pulls the next item. If ctx is done the stream is abandoned: its
// source is released and later pulls return ErrAlreadyConsumed.
func (s *AsyncStream[T]) Next(ctx context.Context) (T, error) {
	var zero T
	if s.done {
		return zero, ErrAlreadyConsumed
	}
	if err := ctx.Err(); err != nil {
		_ = s.finish()
		return zero, err
	}
	v, err := s.next(ctx)
	if err != nil {
		_ = s.finish()
		return zero, err
	}
	return v, nil
}

// All returns an iterator over the remaining items, see Stream.All.
func (s *AsyncStream[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		if s.claimed || s.done {
			yield(zero, ErrAlreadyConsumed)
			return
		}
		s.claimed = true
		for {
			v, err := s.Next(ctx)
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(v, nil) {
				_ = s.Close()
				return
			}
		}
	}
}

// Collect drains the stream into a slice.
func (s *AsyncStream[T]) Collect(ctx context.Context) ([]T, error) {
	out := make([]T, 0)
	for v, err := range s.All(ctx) {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Close abandons the stream and releases its source. Safe to call more than once.
func (s *AsyncStream[T]) Close() error {
	return s.finish()
}

func (s *AsyncStream[T]) finish() error {
	s.closeOnce.Do(func() {
		s.done = true
		s.next = nil
		if s.onClose != nil {
			s.closeErr = s.onClose()
		}
	})
	return s.closeErr
}

// MapAsync returns an async stream applying fn to every item of s.
func MapAsync[T, U any](s *AsyncStream[T], fn func(T) (U, error)) *AsyncStream[U] {
	return NewAsync(func(ctx context.Context) (U, error) {
		var zero U
		v, err := s.Next(ctx)
		if err != nil {
			return zero, err
		}
		return fn(v)
	}, s.Close)
}
