package journal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ShayCichocki/relay/internal/protocol"
)

func setupTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("failed to open test journal: %v", err)
	}
	t.Cleanup(func() {
		j.Close()
	})
	return j
}

func TestOpen_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "journal.db")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer j.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("journal file does not exist at %s", path)
	}
	if j.Path() != path {
		t.Errorf("Path() = %q, want %q", j.Path(), path)
	}
}

func TestRecord_AppendOrderPreserved(t *testing.T) {
	j := setupTestJournal(t)

	msg := protocol.NewAgentText("done")
	events := []protocol.Event{
		&protocol.Task{Kind: protocol.EventKindTask, ID: "t-1", ContextID: "c-1",
			Status: protocol.TaskStatus{State: protocol.TaskStateSubmitted}},
		&protocol.StatusUpdateEvent{Kind: protocol.EventKindStatusUpdate, TaskID: "t-1", ContextID: "c-1",
			Status: protocol.TaskStatus{State: protocol.TaskStateWorking}},
		&protocol.StatusUpdateEvent{Kind: protocol.EventKindStatusUpdate, TaskID: "t-1", ContextID: "c-1",
			Status: protocol.TaskStatus{State: protocol.TaskStateCompleted, Message: &msg}, Final: true},
	}
	for _, ev := range events {
		if err := j.Record(ev); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	entries, err := j.TaskEvents("t-1")
	if err != nil {
		t.Fatalf("TaskEvents failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	wantKinds := []string{protocol.EventKindTask, protocol.EventKindStatusUpdate, protocol.EventKindStatusUpdate}
	for i, e := range entries {
		if e.Kind != wantKinds[i] {
			t.Errorf("entry %d kind = %q, want %q", i, e.Kind, wantKinds[i])
		}
		if e.TaskID != "t-1" {
			t.Errorf("entry %d task = %q, want t-1", i, e.TaskID)
		}
	}
}

func TestTaskEvents_FiltersByTask(t *testing.T) {
	j := setupTestJournal(t)

	for _, id := range []string{"t-1", "t-2", "t-1"} {
		ev := &protocol.StatusUpdateEvent{Kind: protocol.EventKindStatusUpdate, TaskID: id,
			Status: protocol.TaskStatus{State: protocol.TaskStateWorking}}
		if err := j.Record(ev); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	entries, err := j.TaskEvents("t-1")
	if err != nil {
		t.Fatalf("TaskEvents failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries for t-1, want 2", len(entries))
	}

	total, err := j.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if total != 3 {
		t.Errorf("Count = %d, want 3", total)
	}
}
