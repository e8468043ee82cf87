// Package protocol defines the wire types shared by the relay orchestrator,
// the specialist services, and their clients: tasks, messages, artifacts,
// citations, streamed events, agent cards, and the JSON-RPC envelope that
// carries them.
package protocol

import "time"

// TaskState enumerates the mutually exclusive lifecycle states of a task.
type TaskState string

const (
	// TaskStateSubmitted indicates the task was received but work has not started.
	TaskStateSubmitted TaskState = "submitted"
	// TaskStateWorking indicates the task is actively being processed.
	TaskStateWorking TaskState = "working"
	// TaskStateInputRequired indicates the task is paused waiting on the caller.
	TaskStateInputRequired TaskState = "input-required"
	// TaskStateCompleted indicates the task finished successfully.
	TaskStateCompleted TaskState = "completed"
	// TaskStateCanceled indicates the task was cancelled on request.
	TaskStateCanceled TaskState = "canceled"
	// TaskStateFailed indicates the task failed.
	TaskStateFailed TaskState = "failed"
	// TaskStateUnknown is the zero value for unrecognized states.
	TaskStateUnknown TaskState = "unknown"
)

// Valid returns true if the state is a known value.
func (s TaskState) Valid() bool {
	switch s {
	case TaskStateSubmitted, TaskStateWorking, TaskStateInputRequired,
		TaskStateCompleted, TaskStateCanceled, TaskStateFailed, TaskStateUnknown:
		return true
	default:
		return false
	}
}

// Terminal returns true if no further transitions are allowed out of the state.
func (s TaskState) Terminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateCanceled, TaskStateFailed:
		return true
	default:
		return false
	}
}

// TaskStatus is the current state of a task plus the message that accompanied
// the transition, if any.
type TaskStatus struct {
	State     TaskState `json:"state"`
	Message   *Message  `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}
