// Package ledger is the in-memory record of task identity, conversation
// identity, lifecycle state, and accumulated history and artifacts.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/ShayCichocki/relay/internal/keyed"
	"github.com/ShayCichocki/relay/internal/protocol"
)

// ErrTerminalState indicates an attempted transition out of a terminal state.
var ErrTerminalState = errors.New("ledger: task is already in a terminal state")

// Ledger stores tasks keyed by task ID. All mutations of one task are
// serialized per key; tasks are never evicted for the process lifetime.
type Ledger struct {
	tasks *keyed.Map[*protocol.Task]
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{tasks: keyed.NewMap[*protocol.Task]()}
}

// GetOrCreate returns the task for taskID, creating it in the submitted
// state on first contact. Creation is idempotent: a second call with the
// same taskID returns the existing task and created=false, so the creation
// event is emitted at most once.
func (l *Ledger) GetOrCreate(taskID, contextID string) (protocol.Task, bool) {
	var snap protocol.Task
	var created bool
	l.tasks.Update(taskID, func(cur *protocol.Task, ok bool) (*protocol.Task, bool) {
		if !ok {
			cur = &protocol.Task{
				Kind:      protocol.EventKindTask,
				ID:        taskID,
				ContextID: contextID,
				Status: protocol.TaskStatus{
					State:     protocol.TaskStateSubmitted,
					Timestamp: time.Now().UTC(),
				},
			}
			created = true
		}
		snap = snapshot(cur)
		return cur, true
	})
	return snap, created
}

// RecordMessage appends a message to the task's history. The task must
// exist; recording against an unknown task is a programming error.
func (l *Ledger) RecordMessage(taskID string, msg protocol.Message) {
	l.tasks.Update(taskID, func(cur *protocol.Task, ok bool) (*protocol.Task, bool) {
		if !ok {
			panic(fmt.Sprintf("ledger: RecordMessage for unknown task %q", taskID))
		}
		cur.History = append(cur.History, msg)
		return cur, true
	})
}

// AddArtifact appends an artifact to the task.
func (l *Ledger) AddArtifact(taskID string, artifact protocol.Artifact) {
	l.tasks.Update(taskID, func(cur *protocol.Task, ok bool) (*protocol.Task, bool) {
		if !ok {
			panic(fmt.Sprintf("ledger: AddArtifact for unknown task %q", taskID))
		}
		cur.Artifacts = append(cur.Artifacts, artifact)
		return cur, true
	})
}

// SetState transitions the task's lifecycle state. Transitions out of
// completed, canceled, or failed are rejected with ErrTerminalState. The
// task must exist.
func (l *Ledger) SetState(taskID string, state protocol.TaskState) error {
	var err error
	l.tasks.Update(taskID, func(cur *protocol.Task, ok bool) (*protocol.Task, bool) {
		if !ok {
			panic(fmt.Sprintf("ledger: SetState for unknown task %q", taskID))
		}
		if cur.Status.State.Terminal() {
			err = fmt.Errorf("%w: %s -> %s", ErrTerminalState, cur.Status.State, state)
			return cur, true
		}
		cur.Status = protocol.TaskStatus{State: state, Timestamp: time.Now().UTC()}
		return cur, true
	})
	return err
}

// Get returns a snapshot of the task for taskID.
func (l *Ledger) Get(taskID string) (protocol.Task, bool) {
	var snap protocol.Task
	var found bool
	l.tasks.Update(taskID, func(cur *protocol.Task, ok bool) (*protocol.Task, bool) {
		if !ok {
			return nil, false
		}
		snap = snapshot(cur)
		found = true
		return cur, true
	})
	return snap, found
}

// Count returns the number of tasks in the ledger.
func (l *Ledger) Count() int {
	return l.tasks.Len()
}

// snapshot copies the task so callers never share the ledger's slices.
func snapshot(t *protocol.Task) protocol.Task {
	out := *t
	out.History = append([]protocol.Message(nil), t.History...)
	out.Artifacts = append([]protocol.Artifact(nil), t.Artifacts...)
	return out
}
