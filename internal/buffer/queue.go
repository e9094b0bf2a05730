// Package buffer holds the unbounded queue that model streams are built on.
package buffer

import "sync"

// Queue is a FIFO whose Push never blocks. A background goroutine moves
// items to the Out channel as fast as the consumer reads them. A consumer
// that stops reading early must call Discard to release that goroutine.
type Queue[T any] struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   []T
	closed  bool
	out     chan T
	done    chan struct{}
	discard sync.Once
}

// NewQueue starts an empty queue.
func NewQueue[T any]() *Queue[T] {
	q := &Queue[T]{out: make(chan T, 1), done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.pump()
	return q
}

func (q *Queue[T]) pump() {
	for {
		q.mu.Lock()
		for len(q.items) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.items) == 0 {
			q.mu.Unlock()
			close(q.out)
			return
		}
		item := q.items[0]
		var zero T
		q.items[0] = zero
		q.items = q.items[1:]
		q.mu.Unlock()

		select {
		case q.out <- item:
		case <-q.done:
			close(q.out)
			return
		}
	}
}

// Push appends item. It reports false once the queue is closed.
func (q *Queue[T]) Push(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, item)
	q.cond.Signal()
	return true
}

// Out delivers items in push order and is closed after Close once the
// backlog is drained.
func (q *Queue[T]) Out() <-chan T {
	return q.out
}

// Close stops accepting items. Calling it twice is harmless.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		q.cond.Signal()
	}
}

// Discard closes the queue and drops the backlog. Out is closed without
// delivering the dropped items.
func (q *Queue[T]) Discard() {
	q.discard.Do(func() {
		q.mu.Lock()
		q.closed = true
		q.items = nil
		q.cond.Signal()
		q.mu.Unlock()
		close(q.done)
	})
}

// Len is the number of items not yet handed to Out.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
