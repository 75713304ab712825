// Package stream provides single-pass sequences used to move table records
// and text blocks between the codec and its sources and sinks.
//
// A Stream is pulled synchronously; an AsyncStream takes a context on each
// pull so the producer can block on I/O and be abandoned. Both may be
// traversed exactly once: pulling past the end, or starting a second
// traversal, returns ErrAlreadyConsumed instead of silently yielding nothing.
// Use a slice when a collection must be traversed more than once.
package stream
