package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Event kinds carried on the stream.
const (
	EventKindTask           = "task"
	EventKindStatusUpdate   = "status-update"
	EventKindArtifactUpdate = "artifact-update"
)

// ErrUnknownEvent indicates a stream payload whose kind is not recognized.
// Consumers log and skip these rather than aborting the turn.
var ErrUnknownEvent = errors.New("protocol: unknown event kind")

// Event is one element of a task's ordered event stream.
type Event interface {
	EventKind() string
	// EventTaskID returns the task the event belongs to.
	EventTaskID() string
}

// Task is a full snapshot of a unit of work. A Task doubles as the creation
// event emitted when a task first enters the ledger.
type Task struct {
	Kind      string     `json:"kind"`
	ID        string     `json:"id"`
	ContextID string     `json:"contextId"`
	Status    TaskStatus `json:"status"`
	History   []Message  `json:"history,omitempty"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// EventKind implements Event.
func (t *Task) EventKind() string { return EventKindTask }

// EventTaskID implements Event.
func (t *Task) EventTaskID() string { return t.ID }

// StatusUpdateEvent reports a task state transition, optionally carrying a
// message. Final marks the last event of a turn; the caller must treat it as
// closing the stream.
type StatusUpdateEvent struct {
	Kind      string     `json:"kind"`
	TaskID    string     `json:"taskId"`
	ContextID string     `json:"contextId"`
	Status    TaskStatus `json:"status"`
	Final     bool       `json:"final"`
}

// EventKind implements Event.
func (e *StatusUpdateEvent) EventKind() string { return EventKindStatusUpdate }

// EventTaskID implements Event.
func (e *StatusUpdateEvent) EventTaskID() string { return e.TaskID }

// ArtifactUpdateEvent delivers an artifact chunk on the side channel.
type ArtifactUpdateEvent struct {
	Kind      string   `json:"kind"`
	TaskID    string   `json:"taskId"`
	ContextID string   `json:"contextId"`
	Artifact  Artifact `json:"artifact"`
	Append    bool     `json:"append"`
	LastChunk bool     `json:"lastChunk"`
}

// EventKind implements Event.
func (e *ArtifactUpdateEvent) EventKind() string { return EventKindArtifactUpdate }

// EventTaskID implements Event.
func (e *ArtifactUpdateEvent) EventTaskID() string { return e.TaskID }

// DecodeEvent parses one stream payload into its concrete event type,
// validating the kind tag at the boundary. Missing optional fields decode to
// their zero values; an unrecognized state is normalized to
// TaskStateUnknown.
func DecodeEvent(raw []byte) (Event, error) {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	switch probe.Kind {
	case EventKindTask:
		var t Task
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("decode task event: %w", err)
		}
		if !t.Status.State.Valid() {
			t.Status.State = TaskStateUnknown
		}
		return &t, nil
	case EventKindStatusUpdate:
		var e StatusUpdateEvent
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("decode status-update event: %w", err)
		}
		if !e.Status.State.Valid() {
			e.Status.State = TaskStateUnknown
		}
		return &e, nil
	case EventKindArtifactUpdate:
		var e ArtifactUpdateEvent
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("decode artifact-update event: %w", err)
		}
		return &e, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, probe.Kind)
	}
}
