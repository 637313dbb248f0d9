// Package stream provides a generic duplex event stream: a single producer
// pushes ordered progress events that consumers iterate lazily, and the same
// stream separately resolves to one terminal result once the producer signals
// completion.
package stream

import "sync"

// Stream is an ordered, single-producer event queue with a separately awaited
// terminal result.
//
// Events are single-delivery: each pushed event is observed by exactly one
// consumer. Multiple concurrent consumers compete for events rather than each
// receiving a full copy. The stream is not safe for multiple producers.
//
// Result always resolves once End is called, even if no event was ever pushed
// and no one ever iterates, so callers that only care about the final value
// cannot deadlock.
type Stream[E any, R any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []E
	ended  bool
	result R
	done   chan struct{}
}

// New creates an open stream.
func New[E any, R any]() *Stream[E, R] {
	s := &Stream[E, R]{done: make(chan struct{})}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Push appends an event for the next consumer. Events pushed after End are
// discarded.
func (s *Stream[E, R]) Push(event E) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.queue = append(s.queue, event)
	s.cond.Signal()
}

// End marks the stream complete and resolves the terminal result exactly once.
// All pending and future consumers are woken; queued-but-unconsumed events
// remain deliverable before the end-of-stream signal. Subsequent calls are
// no-ops.
func (s *Stream[E, R]) End(result R) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true
	s.result = result
	close(s.done)
	s.cond.Broadcast()
}

// Next blocks until an event is available or the stream has ended with no
// queued events left. The second return is false once the stream is ended and
// drained.
func (s *Stream[E, R]) Next() (E, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.queue) == 0 && !s.ended {
		s.cond.Wait()
	}
	if len(s.queue) > 0 {
		event := s.queue[0]
		s.queue = s.queue[1:]
		return event, true
	}
	var zero E
	return zero, false
}

// TryNext returns a queued event without blocking. The second return is false
// when no event is currently queued.
func (s *Stream[E, R]) TryNext() (E, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) > 0 {
		event := s.queue[0]
		s.queue = s.queue[1:]
		return event, true
	}
	var zero E
	return zero, false
}

// Result blocks until End is called and returns the terminal result.
// It may be called before, during, or instead of iteration.
func (s *Stream[E, R]) Result() R {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Done returns a channel closed when the stream has ended.
func (s *Stream[E, R]) Done() <-chan struct{} {
	return s.done
}

// Ended reports whether End has been called.
func (s *Stream[E, R]) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}
