package node

import (
	"sync"
	"time"

	"github.com/edwingeng/deque"
	"go.uber.org/atomic"

	"ergo.services/actor/gen"
	"ergo.services/actor/lib"
)

// mailbox is the process inbox. Any goroutine may push, only the owner
// goroutine pops. Messages skipped by a selective receive are kept in the
// save queue in their arrival order and looked through first next time.
type mailbox struct {
	queue *lib.QueueMPSC[any]
	saved deque.Deque
	// length of the save queue for the readers other than the owner
	savedLen atomic.Int64

	notify    chan struct{}
	closed    chan struct{}
	isClosed  atomic.Bool
	closeOnce sync.Once
}

func newMailbox() *mailbox {
	return &mailbox{
		queue:  lib.NewQueueMPSC[any](),
		saved:  deque.NewDeque(),
		notify: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

// push appends the message. Never blocks. Returns false if the mailbox is
// closed and the message has been dropped.
func (m *mailbox) push(message any) bool {
	if m.isClosed.Load() {
		return false
	}
	m.queue.Push(message)
	select {
	case m.notify <- struct{}{}:
	default:
	}
	return true
}

func (m *mailbox) close() {
	m.closeOnce.Do(func() {
		m.isClosed.Store(true)
		close(m.closed)
	})
}

func (m *mailbox) len() int64 {
	return m.queue.Len() + m.savedLen.Load()
}

// pop returns the oldest message accepted by match (any message if match is
// nil). Blocks until such a message arrives, the timeout channel fires
// (gen.ErrTimeout), the mailbox is closed (gen.ErrProcessTerminated), or the
// abort channel is closed. On abort the mailbox is looked through one more
// time and errAborted is returned if nothing matched.
func (m *mailbox) pop(match gen.MatchFunc, timeout <-chan time.Time, abort <-chan struct{}) (any, error) {
	for {
		if m.isClosed.Load() {
			return nil, gen.ErrProcessTerminated
		}
		if message, ok := m.take(match); ok {
			return message, nil
		}
		select {
		case <-m.notify:
		case <-m.closed:
			return nil, gen.ErrProcessTerminated
		case <-timeout:
			return nil, gen.ErrTimeout
		case <-abort:
			if message, ok := m.take(match); ok {
				return message, nil
			}
			return nil, errAborted
		}
	}
}

func (m *mailbox) take(match gen.MatchFunc) (any, bool) {
	defer func() {
		m.savedLen.Store(int64(m.saved.Len()))
	}()

	var found any
	ok := false

	// rotate the save queue keeping the order of the messages left there
	for n := m.saved.Len(); n > 0; n-- {
		message := m.saved.PopFront()
		if ok == false && (match == nil || match(message)) {
			found = message
			ok = true
			continue
		}
		m.saved.PushBack(message)
	}
	if ok {
		return found, true
	}

	for {
		message, exist := m.queue.Pop()
		if exist == false {
			return nil, false
		}
		if match == nil || match(message) {
			return message, true
		}
		m.saved.PushBack(message)
	}
}
