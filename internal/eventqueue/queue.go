// Package eventqueue provides the ordered per-task event channel between a
// turn's producer and its single consumer.
package eventqueue

import (
	"sync"

	"github.com/ShayCichocki/relay/internal/protocol"
)

// DefaultBuffer is the event buffer size for one turn.
const DefaultBuffer = 64

// Queue is an ordered sequence of task events produced by one turn and
// drained by a single consumer. Events are delivered in the exact order they
// are written; Finish terminates the sequence.
type Queue struct {
	mu   sync.Mutex
	ch   chan protocol.Event
	done bool
}

// New creates a Queue with the default buffer.
func New() *Queue {
	return &Queue{ch: make(chan protocol.Event, DefaultBuffer)}
}

// Write appends an event to the queue. Writes after Finish are dropped and
// return false.
func (q *Queue) Write(ev protocol.Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.done {
		return false
	}
	q.ch <- ev
	return true
}

// Finish terminates the sequence. The consumer's channel is closed after the
// last written event. Finish is idempotent.
func (q *Queue) Finish() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.done {
		return
	}
	q.done = true
	close(q.ch)
}

// Events returns the consumer side of the queue. The channel closes once
// Finish is called and all events are drained.
func (q *Queue) Events() <-chan protocol.Event {
	return q.ch
}
