package specialist

import (
	"strings"
	"testing"

	"github.com/ShayCichocki/relay/internal/protocol"
)

func TestDataset_ExportsCSVArtifact(t *testing.T) {
	a := NewAgent(DatasetCard("http://data", "test"), Dataset{}, nil)

	events := collect(t, a, protocol.NewUserMessage("Export the sales table as CSV"))

	var artifact *protocol.ArtifactUpdateEvent
	for _, ev := range events {
		if au, ok := ev.(*protocol.ArtifactUpdateEvent); ok {
			artifact = au
		}
	}
	if artifact == nil {
		t.Fatal("no artifact-update event emitted")
	}
	if artifact.Artifact.Name != "sales.csv" {
		t.Errorf("artifact name = %q, want sales.csv", artifact.Artifact.Name)
	}
	if !artifact.LastChunk {
		t.Error("single-chunk export should set lastChunk")
	}
	csv := artifact.Artifact.Parts[0].Text
	if !strings.HasPrefix(csv, "region,product,units,revenue\n") {
		t.Errorf("csv header missing, got %q", csv)
	}
	if len(artifact.Artifact.Citations) != 1 || artifact.Artifact.Citations[0].Kind != protocol.CitationKindDoc {
		t.Errorf("artifact citations = %+v, want one doc citation", artifact.Artifact.Citations)
	}

	fin := lastStatus(t, events)
	if fin.Status.State != protocol.TaskStateCompleted {
		t.Fatalf("state = %q, want completed", fin.Status.State)
	}
	if fin.Status.Message.SkillID != "structured-query" {
		t.Errorf("skill = %q, want structured-query", fin.Status.Message.SkillID)
	}

	// The artifact is also retained on the task snapshot.
	task, _ := a.Task(events[0].EventTaskID())
	if len(task.Artifacts) != 1 {
		t.Errorf("ledger artifacts = %d, want 1", len(task.Artifacts))
	}
}

func TestFilterRows(t *testing.T) {
	north := filterRows("show me the north numbers")
	for _, r := range north {
		if r.Region != "North" {
			t.Errorf("filter by region leaked row %+v", r)
		}
	}
	if len(north) != 2 {
		t.Errorf("north rows = %d, want 2", len(north))
	}

	all := filterRows("everything please")
	if len(all) != len(salesData) {
		t.Errorf("unfiltered rows = %d, want %d", len(all), len(salesData))
	}
}
