package memory

import (
	"reflect"
	"testing"
)

func TestObserve_BoundedWindow(t *testing.T) {
	s := NewStore()
	for _, u := range []string{"one", "two", "three", "four"} {
		s.Observe("c-1", u)
	}

	snap := s.Snapshot("c-1")
	want := []string{"two", "three", "four"}
	if !reflect.DeepEqual(snap.Utterances, want) {
		t.Errorf("Utterances = %v, want %v", snap.Utterances, want)
	}
}

func TestRecordSpecialist(t *testing.T) {
	s := NewStore()
	s.RecordSpecialist("c-1", "Structured Data Agent", true)

	snap := s.Snapshot("c-1")
	if snap.LastSpecialist != "Structured Data Agent" {
		t.Errorf("LastSpecialist = %q", snap.LastSpecialist)
	}
	if !snap.StructuredLast {
		t.Error("StructuredLast should be true")
	}

	// A direct-answer turn clears the structured flag.
	s.RecordSpecialist("c-1", "", false)
	snap = s.Snapshot("c-1")
	if snap.LastSpecialist != "" || snap.StructuredLast {
		t.Errorf("after direct turn: %+v, want cleared", snap)
	}
}

func TestSnapshot_UnknownContextIsZero(t *testing.T) {
	snap := NewStore().Snapshot("missing")
	if len(snap.Utterances) != 0 || snap.LastSpecialist != "" || snap.StructuredLast {
		t.Errorf("zero snapshot expected, got %+v", snap)
	}
}

func TestContextsIsolated(t *testing.T) {
	s := NewStore()
	s.Observe("c-1", "hello")
	s.RecordSpecialist("c-2", "Weather Agent", false)

	if got := s.Snapshot("c-1").LastSpecialist; got != "" {
		t.Errorf("c-1 LastSpecialist = %q, want empty", got)
	}
	if got := s.Snapshot("c-2").Utterances; len(got) != 0 {
		t.Errorf("c-2 Utterances = %v, want empty", got)
	}
}
