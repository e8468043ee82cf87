package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShayCichocki/relay/internal/protocol"
)

func sized(t *testing.T, m *Chat) *Chat {
	t.Helper()
	model, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return model.(*Chat)
}

func finalUpdate(text string, state protocol.TaskState, taskID string) *protocol.StatusUpdateEvent {
	msg := protocol.NewAgentText(text)
	msg.IntentPath = []string{"orchestrator.general"}
	return &protocol.StatusUpdateEvent{
		Kind:   protocol.EventKindStatusUpdate,
		TaskID: taskID,
		Status: protocol.TaskStatus{State: state, Message: &msg},
		Final:  true,
	}
}

func TestApplyEvent_FinalReplacesProgress(t *testing.T) {
	m := sized(t, NewChat(nil, "http://orch"))
	m.entries = []entry{
		{kind: entryUser, text: "hello"},
		{kind: entryProgress, text: "thinking..."},
	}

	m.applyEvent(finalUpdate("Hi there.", protocol.TaskStateCompleted, "t-1"))

	if len(m.entries) != 2 {
		t.Fatalf("entries = %d, want 2 (progress replaced)", len(m.entries))
	}
	last := m.entries[1]
	if last.kind != entryAgent || last.text != "Hi there." {
		t.Errorf("last entry = %+v", last)
	}
	if len(last.intentPath) != 1 {
		t.Errorf("intent path not carried into transcript: %+v", last)
	}
	if m.pendingTaskID != "" {
		t.Errorf("pendingTaskID = %q, want empty after completed turn", m.pendingTaskID)
	}
}

func TestApplyEvent_InputRequiredRetainsTask(t *testing.T) {
	m := sized(t, NewChat(nil, "http://orch"))

	m.applyEvent(finalUpdate("Which city?", protocol.TaskStateInputRequired, "t-hitl"))

	if m.pendingTaskID != "t-hitl" {
		t.Errorf("pendingTaskID = %q, want t-hitl", m.pendingTaskID)
	}
}

func TestApplyEvent_WorkingTextUpdatesProgressLine(t *testing.T) {
	m := sized(t, NewChat(nil, "http://orch"))
	m.entries = []entry{{kind: entryProgress, text: "thinking..."}}

	text := protocol.NewAgentText("looking up conditions")
	m.applyEvent(&protocol.StatusUpdateEvent{
		Kind:   protocol.EventKindStatusUpdate,
		TaskID: "t-1",
		Status: protocol.TaskStatus{State: protocol.TaskStateWorking, Message: &text},
	})

	if len(m.entries) != 1 {
		t.Fatalf("entries = %d, want progress line replaced in place", len(m.entries))
	}
	if m.entries[0].text != "looking up conditions" {
		t.Errorf("progress text = %q", m.entries[0].text)
	}
}

func TestApplyEvent_ArtifactNoted(t *testing.T) {
	m := sized(t, NewChat(nil, "http://orch"))

	m.applyEvent(&protocol.ArtifactUpdateEvent{
		Kind:     protocol.EventKindArtifactUpdate,
		TaskID:   "t-1",
		Artifact: protocol.Artifact{ArtifactID: "a-1", Name: "sales.csv"},
	})

	if len(m.entries) != 1 || !strings.Contains(m.entries[0].text, "sales.csv") {
		t.Errorf("entries = %+v, want artifact note", m.entries)
	}
}

func TestRenderTranscript_CitationsListed(t *testing.T) {
	out := renderTranscript([]entry{{
		kind: entryAgent,
		text: "**Calculator Agent:** 2 + 2 = 4",
		citations: []protocol.Citation{
			{Label: "arithmetic evaluator", Kind: protocol.CitationKindAPI},
			{Label: "Routed to Calculator Agent", Kind: protocol.CitationKindInternal},
		},
	}}, 80)

	if !strings.Contains(out, "[1] arithmetic evaluator") {
		t.Errorf("first citation missing:\n%s", out)
	}
	if !strings.Contains(out, "[2] Routed to Calculator Agent") {
		t.Errorf("second citation missing:\n%s", out)
	}
}

func TestSubmitWhileBusyIgnored(t *testing.T) {
	m := sized(t, NewChat(nil, "http://orch"))
	m.busy = true

	model, cmd := m.Update(MessageSubmittedMsg{Text: "another"})
	m = model.(*Chat)
	if cmd != nil {
		t.Error("submit while busy should not start a turn")
	}
	if len(m.entries) != 0 {
		t.Errorf("entries = %d, want 0", len(m.entries))
	}
}
