package specialist

import (
	"testing"

	"github.com/ShayCichocki/relay/internal/protocol"
)

func TestWeather_CityInRequest(t *testing.T) {
	a := NewAgent(WeatherCard("http://weather", "test"), Weather{}, nil)

	events := collect(t, a, protocol.NewUserMessage("What's the weather in Tokyo?"))
	fin := lastStatus(t, events)
	if fin.Status.State != protocol.TaskStateCompleted {
		t.Fatalf("state = %q, want completed", fin.Status.State)
	}
	if got, want := fin.Status.Message.Text(), conditionsFor("Tokyo"); got != want {
		t.Errorf("answer = %q, want %q", got, want)
	}
	if fin.Status.Message.SkillID != "weather" {
		t.Errorf("skill = %q, want weather", fin.Status.Message.SkillID)
	}
}

func TestWeather_MissingCityPausesThenResumes(t *testing.T) {
	a := NewAgent(WeatherCard("http://weather", "test"), Weather{}, nil)

	// Turn 1: no city named, so the turn ends on an input-required prompt.
	first := protocol.NewUserMessage("Is it raining?")
	first.TaskID = "t-w"
	events := collect(t, a, first)
	fin := lastStatus(t, events)
	if fin.Status.State != protocol.TaskStateInputRequired || !fin.Final {
		t.Fatalf("turn 1 = state %q final %v, want input-required final", fin.Status.State, fin.Final)
	}
	if fin.Status.Message.Text() != WeatherPrompt {
		t.Errorf("prompt = %q, want %q", fin.Status.Message.Text(), WeatherPrompt)
	}

	// Turn 2: the reply on the same task is the city.
	reply := protocol.NewUserMessage("Tokyo")
	reply.TaskID = "t-w"
	events = collect(t, a, reply)
	fin = lastStatus(t, events)
	if fin.Status.State != protocol.TaskStateCompleted {
		t.Fatalf("turn 2 state = %q, want completed", fin.Status.State)
	}
	if got, want := fin.Status.Message.Text(), conditionsFor("Tokyo"); got != want {
		t.Errorf("answer = %q, want %q", got, want)
	}
}

func TestConditionsFor_Stable(t *testing.T) {
	if conditionsFor("Tokyo") != conditionsFor("tokyo") {
		t.Error("conditions should be case-insensitive on city name")
	}
	if conditionsFor("Tokyo") == conditionsFor("Oslo") {
		t.Error("different cities should usually differ")
	}
}

func TestExtractCity(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"What's the weather in Tokyo?", "Tokyo"},
		{"forecast for New York", "New York"},
		{"Is it raining?", ""},
	}
	for _, tt := range tests {
		if got := extractCity(tt.text); got != tt.want {
			t.Errorf("extractCity(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
