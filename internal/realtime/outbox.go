package realtime

import "sync"

// outbox is a bounded per-session queue. push never blocks: frames are dropped
// when the queue is full or the session is closed. ch is never closed, so a
// concurrent push can not panic; consumers stop on done.
type outbox[T any] struct {
	ch   chan T
	done chan struct{}
	once sync.Once
}

func newOutbox[T any](size int) *outbox[T] {
	return &outbox[T]{
		ch:   make(chan T, size),
		done: make(chan struct{}),
	}
}

func (o *outbox[T]) push(v T) bool {
	select {
	case <-o.done:
		return false
	default:
	}

	select {
	case o.ch <- v:
		return true
	default:
		return false
	}
}

func (o *outbox[T]) close() {
	o.once.Do(func() { close(o.done) })
}
