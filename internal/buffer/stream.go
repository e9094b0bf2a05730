package buffer

import (
	"sync"

	"github.com/rickchristie/rungpt"
)

// Stream is a rungpt.Stream fed by a producer goroutine. The producer calls
// Send for every fragment and Finish exactly once.
type Stream struct {
	q *Queue[string]

	mu  sync.Mutex
	err error
}

// NewStream creates an open stream.
func NewStream() *Stream {
	return &Stream{q: NewQueue[string]()}
}

// Send queues a fragment. Empty fragments are dropped.
func (s *Stream) Send(chunk string) {
	if chunk != "" {
		s.q.Push(chunk)
	}
}

// Finish records the generation error, if any, and closes the stream.
func (s *Stream) Finish(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
	s.q.Close()
}

// Chunks implements rungpt.Stream.
func (s *Stream) Chunks() <-chan string {
	return s.q.Out()
}

// Cancel implements rungpt.Canceler. Later Sends are dropped.
func (s *Stream) Cancel() {
	s.q.Discard()
}

// Err implements rungpt.Stream.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

var (
	_ rungpt.Stream   = (*Stream)(nil)
	_ rungpt.Canceler = (*Stream)(nil)
)
