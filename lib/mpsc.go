// Lock-free implementation of MPSC queue (Multiple Producers Single Consumer)

package lib

import (
	"go.uber.org/atomic"
)

// QueueMPSC is an unbounded queue. Push is safe to be called concurrently,
// Pop must be called by a single consumer only.
type QueueMPSC[T any] struct {
	head   atomic.Pointer[itemMPSC[T]]
	tail   atomic.Pointer[itemMPSC[T]]
	length atomic.Int64
}

type itemMPSC[T any] struct {
	value T
	next  atomic.Pointer[itemMPSC[T]]
}

func NewQueueMPSC[T any]() *QueueMPSC[T] {
	q := &QueueMPSC[T]{}
	stub := &itemMPSC[T]{}
	q.head.Store(stub)
	q.tail.Store(stub)
	return q
}

// Push appends the value to the queue.
func (q *QueueMPSC[T]) Push(value T) {
	i := &itemMPSC[T]{value: value}
	q.length.Inc()
	prev := q.head.Swap(i)
	prev.next.Store(i)
}

// Pop takes the oldest value out of the queue. Returns false if the queue is
// empty (or the producer that has taken the next slot has not linked it yet).
func (q *QueueMPSC[T]) Pop() (T, bool) {
	var empty T
	tail := q.tail.Load()
	next := tail.next.Load()
	if next == nil {
		return empty, false
	}
	value := next.value
	next.value = empty // let the GC free the value
	q.tail.Store(next)
	q.length.Dec()
	return value, true
}

// Len returns the number of items in the queue.
func (q *QueueMPSC[T]) Len() int64 {
	return q.length.Load()
}
