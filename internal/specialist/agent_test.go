package specialist

import (
	"context"
	"errors"
	"testing"

	"github.com/ShayCichocki/relay/internal/protocol"
)

func collect(t *testing.T, a *Agent, msg protocol.Message) []protocol.Event {
	t.Helper()
	var events []protocol.Event
	for ev := range a.HandleMessage(context.Background(), msg).Events() {
		events = append(events, ev)
	}
	return events
}

func lastStatus(t *testing.T, events []protocol.Event) *protocol.StatusUpdateEvent {
	t.Helper()
	if len(events) == 0 {
		t.Fatal("no events")
	}
	su, ok := events[len(events)-1].(*protocol.StatusUpdateEvent)
	if !ok {
		t.Fatalf("last event = %T, want status update", events[len(events)-1])
	}
	return su
}

// echoHandler completes immediately with the inbound text.
type echoHandler struct{}

func (echoHandler) Handle(_ context.Context, turn *Turn) error {
	turn.Complete("echo: " + turn.Text)
	return nil
}

// failingHandler returns an error without emitting a terminal.
type failingHandler struct{}

func (failingHandler) Handle(context.Context, *Turn) error {
	return errors.New("boom")
}

func echoCard() protocol.AgentCard {
	return protocol.AgentCard{
		Name:   "Echo Agent",
		Skills: []protocol.AgentSkill{{ID: "echo", Name: "Echo"}},
	}
}

func TestAgent_FirstTurnEmitsSnapshotThenFinal(t *testing.T) {
	a := NewAgent(echoCard(), echoHandler{}, nil)

	events := collect(t, a, protocol.NewUserMessage("hello"))
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	snap, ok := events[0].(*protocol.Task)
	if !ok {
		t.Fatalf("first event = %T, want task snapshot", events[0])
	}
	if snap.ID == "" || snap.ContextID == "" {
		t.Error("snapshot must carry generated identifiers")
	}

	fin := lastStatus(t, events)
	if !fin.Final || fin.Status.State != protocol.TaskStateCompleted {
		t.Errorf("final = %v state = %q, want final completed", fin.Final, fin.Status.State)
	}
	if fin.Status.Message.SkillID != "echo" {
		t.Errorf("skill tag = %q, want echo", fin.Status.Message.SkillID)
	}

	task, ok := a.Task(snap.ID)
	if !ok || task.Status.State != protocol.TaskStateCompleted {
		t.Errorf("ledger state = %v/%v, want completed", task.Status.State, ok)
	}
	// Inbound user message and the answer are both in history.
	if len(task.History) != 2 {
		t.Errorf("history length = %d, want 2", len(task.History))
	}
}

func TestAgent_HandlerErrorBecomesFailedTerminal(t *testing.T) {
	a := NewAgent(echoCard(), failingHandler{}, nil)

	events := collect(t, a, protocol.NewUserMessage("hello"))
	fin := lastStatus(t, events)
	if !fin.Final || fin.Status.State != protocol.TaskStateFailed {
		t.Errorf("final = %v state = %q, want final failed", fin.Final, fin.Status.State)
	}
	if fin.Status.Message.Text() == "" {
		t.Error("failed terminal must carry explanation text")
	}
}

func TestAgent_CancellationOverridesTerminal(t *testing.T) {
	a := NewAgent(echoCard(), echoHandler{}, nil)

	msg := protocol.NewUserMessage("hello")
	msg.TaskID = "t-cancel"
	a.Cancel("t-cancel")

	events := collect(t, a, msg)
	fin := lastStatus(t, events)
	if fin.Status.State != protocol.TaskStateCanceled {
		t.Errorf("state = %q, want canceled", fin.Status.State)
	}
}
