package host

import (
	"sync"

	"github.com/dshills/hydra/key"
	"github.com/dshills/hydra/layer"
)

// InputQueue is the typed-input buffer a terminal host exposes to the
// foreign-key peek. Polled keys queue on a channel; PushFront re-queues
// a key the router already consumed so the leave path can inspect and
// discard it before the key reaches the unhandled sink.
type InputQueue struct {
	mu    sync.Mutex
	front []key.Event
	ch    chan key.Event
}

// NewInputQueue creates a queue buffering up to size polled events.
func NewInputQueue(size int) *InputQueue {
	return &InputQueue{ch: make(chan key.Event, size)}
}

// Push queues a polled event. It reports false when the buffer is
// full; the event is dropped in that case.
func (q *InputQueue) Push(ev key.Event) bool {
	select {
	case q.ch <- ev:
		return true
	default:
		return false
	}
}

// C is the dispatch-side channel of polled events. Events re-queued
// with PushFront never appear here; they are settled synchronously
// before dispatch continues.
func (q *InputQueue) C() <-chan key.Event {
	return q.ch
}

// PushFront re-queues an already-consumed event at the head of the
// buffer.
func (q *InputQueue) PushFront(ev key.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.front = append([]key.Event{ev}, q.front...)
}

// TakeFront removes and returns the head re-queued event, if any.
func (q *InputQueue) TakeFront() (key.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.front) == 0 {
		return key.Event{}, false
	}
	ev := q.front[0]
	q.front = q.front[1:]
	return ev, true
}

// HasBufferedInput reports whether typed input is waiting. Part of the
// foreign-key interception contract; it never blocks.
func (q *InputQueue) HasBufferedInput() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.front) > 0 || len(q.ch) > 0
}

// ConsumeOne removes and returns the next buffered key event. It does
// not block; with nothing buffered it returns the zero event.
func (q *InputQueue) ConsumeOne() key.Event {
	q.mu.Lock()
	if len(q.front) > 0 {
		ev := q.front[0]
		q.front = q.front[1:]
		q.mu.Unlock()
		return ev
	}
	q.mu.Unlock()

	select {
	case ev := <-q.ch:
		return ev
	default:
		return key.Event{}
	}
}

// LeaveFallback returns a router fallback that runs the active
// instance's leave path on an unresolved key. The key is re-queued at
// the front of q first, so amaranth and teal can see and discard it as
// a rejected foreign key. If the leave path left it unconsumed the
// mode has exited and the key falls through to the sink.
func LeaveFallback(slot *layer.Slot, q *InputQueue) func(ev key.Event) bool {
	return func(ev key.Event) bool {
		active := slot.Active()
		if active == nil {
			return false
		}
		q.PushFront(ev)
		_ = active.Leave()
		_, unconsumed := q.TakeFront()
		return !unconsumed
	}
}
