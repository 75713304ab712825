package stream

import (
	"errors"
	"io"
	"iter"
)

// ErrAlreadyConsumed is returned when a single-pass sequence is traversed again.
var ErrAlreadyConsumed = errors.New("stream already consumed")

// Stream is a single-pass, synchronously pulled sequence. Next returns
// io.EOF exactly once at the end. Not safe for concurrent use.
type Stream[T any] struct {
	next    func() (T, error)
	onClose func() error
	claimed bool
	done    bool
}

// New creates a stream from a pull function. The function returns io.EOF at the end.
func New[T any](next func() (T, error)) *Stream[T] {
	return &Stream[T]{next: next}
}

// NewWithClose is like New but calls closeFn once the stream ends or is closed.
func NewWithClose[T any](next func() (T, error), closeFn func() error) *Stream[T] {
	return &Stream[T]{next: next, onClose: closeFn}
}

// FromSlice streams the items of a slice in order.
func FromSlice[T any](items []T) *Stream[T] {
	i := 0
	return New(func() (T, error) {
		if i >= len(items) {
			var zero T
			return zero, io.EOF
		}
		v := items[i]
		i++
		return v, nil
	})
}

// Empty returns a stream with no items.
func Empty[T any]() *Stream[T] {
	return FromSlice[T](nil)
}

// Next pulls the next item.
func (s *Stream[T]) Next() (T, error) {
	var zero T
	if s.done {
		return zero, ErrAlreadyConsumed
	}
	v, err := s.next()
	if err != nil {
		s.finish()
		return zero, err
	}
	return v, nil
}

// All returns an iterator over the remaining items. A stream can be ranged
// over once; a second traversal yields a single ErrAlreadyConsumed.
// Breaking out of the loop closes the stream.
// Errors other than io.EOF are yielded once and end the traversal.
func (s *Stream[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		if s.claimed || s.done {
			yield(zero, ErrAlreadyConsumed)
			return
		}
		s.claimed = true
		for {
			v, err := s.Next()
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

// Collect drains the stream into a slice. On error the items read so far are returned.
func (s *Stream[T]) Collect() ([]T, error) {
	out := make([]T, 0)
	for v, err := range s.All() {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Close abandons the stream and releases its source.
func (s *Stream[T]) Close() error {
	if s.done {
		return nil
	}
	return s.finish()
}

func (s *Stream[T]) finish() error {
	s.done = true
	s.next = nil
	if s.onClose == nil {
		return nil
	}
	fn := s.onClose
	s.onClose = nil
	return fn()
}

// Map returns a stream applying fn to every item of s. Closing the result closes s.
func Map[T, U any](s *Stream[T], fn func(T) (U, error)) *Stream[U] {
	return NewWithClose(func() (U, error) {
		var zero U
		v, err := s.Next()
		if err != nil {
			return zero, err
		}
		return fn(v)
	}, s.Close)
}
