// Package specialist hosts the bundled specialist agents behind the same
// streaming contract the orchestrator speaks. An Agent adapts a Handler to
// the turn lifecycle: ledger bookkeeping, event emission, the HITL pause on
// input-required, and cooperative cancellation.
package specialist

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ShayCichocki/relay/internal/eventqueue"
	"github.com/ShayCichocki/relay/internal/keyed"
	"github.com/ShayCichocki/relay/internal/ledger"
	"github.com/ShayCichocki/relay/internal/protocol"
)

// Handler implements one specialist's behavior for a single turn.
type Handler interface {
	Handle(ctx context.Context, turn *Turn) error
}

// Agent serves a Handler as a streaming agent.
type Agent struct {
	card    protocol.AgentCard
	handler Handler
	ledger  *ledger.Ledger
	logger  *slog.Logger

	cancels *keyed.Map[struct{}]
	// pending marks tasks paused on input-required, so the next message on
	// the same task resumes instead of starting over.
	pending *keyed.Map[struct{}]
}

// NewAgent wraps handler as a servable agent described by card.
func NewAgent(card protocol.AgentCard, handler Handler, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		card:    card,
		handler: handler,
		ledger:  ledger.New(),
		logger:  logger.With("component", "specialist", "agent", card.Name),
		cancels: keyed.NewMap[struct{}](),
		pending: keyed.NewMap[struct{}](),
	}
}

// Card returns the agent's capability descriptor.
func (a *Agent) Card() protocol.AgentCard {
	return a.card
}

// Cancel adds a task to the cooperative cancellation set.
func (a *Agent) Cancel(taskID string) {
	a.cancels.Set(taskID, struct{}{})
}

// Task returns a snapshot of one task.
func (a *Agent) Task(taskID string) (protocol.Task, bool) {
	return a.ledger.Get(taskID)
}

// HandleMessage starts one turn and returns its event queue.
func (a *Agent) HandleMessage(ctx context.Context, msg protocol.Message) *eventqueue.Queue {
	q := eventqueue.New()
	go a.runTurn(ctx, msg, q)
	return q
}

func (a *Agent) runTurn(ctx context.Context, msg protocol.Message, q *eventqueue.Queue) {
	defer q.Finish()

	taskID := msg.TaskID
	if taskID == "" {
		taskID = protocol.NewID()
	}
	contextID := msg.ContextID
	if contextID == "" {
		contextID = protocol.NewID()
	}

	task, created := a.ledger.GetOrCreate(taskID, contextID)
	contextID = task.ContextID
	msg.TaskID = taskID
	msg.ContextID = contextID
	a.ledger.RecordMessage(taskID, msg)

	if created {
		snapshot, _ := a.ledger.Get(taskID)
		q.Write(&snapshot)
	}

	_, resumed := a.pending.Get(taskID)
	if resumed {
		a.pending.Delete(taskID)
	}
	if err := a.ledger.SetState(taskID, protocol.TaskStateWorking); err != nil {
		a.logger.Warn("task not transitionable", "task", taskID, "error", err)
	}

	turn := &Turn{
		Text:      msg.Text(),
		TaskID:    taskID,
		ContextID: contextID,
		Resumed:   resumed,
		agent:     a,
		queue:     q,
	}
	if len(a.card.Skills) > 0 {
		turn.Skill = a.card.Skills[0].ID
	}

	if err := a.handler.Handle(ctx, turn); err != nil {
		a.logger.Error("turn failed", "task", taskID, "error", err)
		if !turn.done {
			turn.Fail(fmt.Sprintf("This request could not be completed: %v", err))
		}
		return
	}
	if !turn.done {
		// A handler that returns without a terminal is a bug; fail loudly
		// instead of leaving the caller's stream open.
		a.logger.Error("handler returned without terminal event", "task", taskID)
		turn.Fail("The specialist ended the turn without an answer.")
	}
}

// Turn is the handler's view of one in-flight turn.
type Turn struct {
	// Text is the inbound user text.
	Text string
	// TaskID and ContextID identify the task on this agent.
	TaskID    string
	ContextID string
	// Resumed is true when this message answers a prior input-required
	// prompt on the same task.
	Resumed bool
	// Skill tags outbound messages; preset to the card's first skill.
	Skill string

	agent *Agent
	queue *eventqueue.Queue
	done  bool
}

// Working emits a non-final progress update.
func (t *Turn) Working(text string, citations ...protocol.Citation) {
	msg := t.message(text, citations)
	t.queue.Write(&protocol.StatusUpdateEvent{
		Kind:      protocol.EventKindStatusUpdate,
		TaskID:    t.TaskID,
		ContextID: t.ContextID,
		Status: protocol.TaskStatus{
			State:     protocol.TaskStateWorking,
			Message:   msg,
			Timestamp: time.Now().UTC(),
		},
	})
}

// SendArtifact emits one artifact chunk on the side channel.
func (t *Turn) SendArtifact(artifact protocol.Artifact, lastChunk bool) {
	t.agent.ledger.AddArtifact(t.TaskID, artifact)
	t.queue.Write(&protocol.ArtifactUpdateEvent{
		Kind:      protocol.EventKindArtifactUpdate,
		TaskID:    t.TaskID,
		ContextID: t.ContextID,
		Artifact:  artifact,
		LastChunk: lastChunk,
	})
}

// RequireInput pauses the task for caller input. The prompt is the turn's
// final event; the next message on the same task resumes with Resumed set.
func (t *Turn) RequireInput(prompt string) {
	t.agent.pending.Set(t.TaskID, struct{}{})
	if err := t.agent.ledger.SetState(t.TaskID, protocol.TaskStateInputRequired); err != nil {
		t.agent.logger.Warn("input-required transition rejected", "task", t.TaskID, "error", err)
	}
	msg := t.message(prompt, nil)
	t.agent.ledger.RecordMessage(t.TaskID, *msg)
	t.queue.Write(&protocol.StatusUpdateEvent{
		Kind:      protocol.EventKindStatusUpdate,
		TaskID:    t.TaskID,
		ContextID: t.ContextID,
		Status: protocol.TaskStatus{
			State:     protocol.TaskStateInputRequired,
			Message:   msg,
			Timestamp: time.Now().UTC(),
		},
		Final: true,
	})
	t.done = true
}

// Complete ends the turn successfully.
func (t *Turn) Complete(text string, citations ...protocol.Citation) {
	t.finish(protocol.TaskStateCompleted, text, citations)
}

// Fail ends the turn in the failed state with a user-visible explanation.
func (t *Turn) Fail(text string) {
	t.finish(protocol.TaskStateFailed, text, nil)
}

func (t *Turn) finish(state protocol.TaskState, text string, citations []protocol.Citation) {
	// Cancellation wins over whatever terminal the handler chose.
	if _, ok := t.agent.cancels.Get(t.TaskID); ok {
		state = protocol.TaskStateCanceled
		t.agent.cancels.Delete(t.TaskID)
	}

	msg := t.message(text, citations)
	t.agent.ledger.RecordMessage(t.TaskID, *msg)
	if err := t.agent.ledger.SetState(t.TaskID, state); err != nil {
		t.agent.logger.Warn("terminal transition rejected", "task", t.TaskID, "error", err)
	}
	t.queue.Write(&protocol.StatusUpdateEvent{
		Kind:      protocol.EventKindStatusUpdate,
		TaskID:    t.TaskID,
		ContextID: t.ContextID,
		Status: protocol.TaskStatus{
			State:     state,
			Message:   msg,
			Timestamp: time.Now().UTC(),
		},
		Final: true,
	})
	t.done = true
}

func (t *Turn) message(text string, citations []protocol.Citation) *protocol.Message {
	msg := protocol.NewAgentText(text)
	msg.TaskID = t.TaskID
	msg.ContextID = t.ContextID
	msg.SkillID = t.Skill
	msg.Citations = citations
	return &msg
}
