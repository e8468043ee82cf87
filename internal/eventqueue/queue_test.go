package eventqueue

import (
	"fmt"
	"testing"

	"github.com/ShayCichocki/relay/internal/protocol"
)

func statusEvent(taskID string, state protocol.TaskState) *protocol.StatusUpdateEvent {
	return &protocol.StatusUpdateEvent{
		Kind:   protocol.EventKindStatusUpdate,
		TaskID: taskID,
		Status: protocol.TaskStatus{State: state},
	}
}

func TestQueue_OrderPreserved(t *testing.T) {
	q := New()
	for i := 0; i < 10; i++ {
		q.Write(statusEvent(fmt.Sprintf("t-%d", i), protocol.TaskStateWorking))
	}
	q.Finish()

	i := 0
	for ev := range q.Events() {
		want := fmt.Sprintf("t-%d", i)
		if ev.EventTaskID() != want {
			t.Errorf("event %d: task = %q, want %q", i, ev.EventTaskID(), want)
		}
		i++
	}
	if i != 10 {
		t.Errorf("drained %d events, want 10", i)
	}
}

func TestQueue_WriteAfterFinishDropped(t *testing.T) {
	q := New()
	q.Write(statusEvent("t-1", protocol.TaskStateWorking))
	q.Finish()

	if q.Write(statusEvent("t-2", protocol.TaskStateWorking)) {
		t.Error("Write after Finish should return false")
	}

	count := 0
	for range q.Events() {
		count++
	}
	if count != 1 {
		t.Errorf("drained %d events, want 1", count)
	}
}

func TestQueue_FinishIdempotent(t *testing.T) {
	q := New()
	q.Finish()
	q.Finish() // must not panic

	if _, open := <-q.Events(); open {
		t.Error("channel should be closed")
	}
}
