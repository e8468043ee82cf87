package bridge

import "testing"

func TestArmLookupClear(t *testing.T) {
	m := NewMap()

	if _, ok := m.Lookup("t-1"); ok {
		t.Error("Lookup on empty map should miss")
	}

	e := Entry{
		SpecialistName:      "Weather Agent",
		SpecialistURL:       "http://weather",
		SpecialistTaskID:    "wt-1",
		SpecialistContextID: "wc-1",
	}
	m.Arm("t-1", e)

	got, ok := m.Lookup("t-1")
	if !ok {
		t.Fatal("Lookup should hit after Arm")
	}
	if got != e {
		t.Errorf("Lookup = %+v, want %+v", got, e)
	}

	m.Clear("t-1")
	if _, ok := m.Lookup("t-1"); ok {
		t.Error("Lookup should miss after Clear")
	}
	if m.Count() != 0 {
		t.Errorf("Count = %d, want 0", m.Count())
	}
}

func TestArm_ReplacesOnReArm(t *testing.T) {
	m := NewMap()
	m.Arm("t-1", Entry{SpecialistTaskID: "first"})
	m.Arm("t-1", Entry{SpecialistTaskID: "second"})

	got, _ := m.Lookup("t-1")
	if got.SpecialistTaskID != "second" {
		t.Errorf("SpecialistTaskID = %q, want second", got.SpecialistTaskID)
	}
	if m.Count() != 1 {
		t.Errorf("Count = %d, want 1", m.Count())
	}
}
