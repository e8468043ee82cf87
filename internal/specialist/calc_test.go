package specialist

import (
	"testing"

	"github.com/ShayCichocki/relay/internal/protocol"
)

func TestCalculator_ExampleExpression(t *testing.T) {
	a := NewAgent(CalculatorCard("http://calc", "test"), Calculator{}, nil)

	events := collect(t, a, protocol.NewUserMessage("Calculate 25 * 4 + 16"))
	fin := lastStatus(t, events)
	if fin.Status.State != protocol.TaskStateCompleted {
		t.Fatalf("state = %q, want completed", fin.Status.State)
	}
	if got := fin.Status.Message.Text(); got != "25 * 4 + 16 = 116" {
		t.Errorf("answer = %q, want %q", got, "25 * 4 + 16 = 116")
	}
	if fin.Status.Message.SkillID != "calculator" {
		t.Errorf("skill = %q, want calculator", fin.Status.Message.SkillID)
	}
	if len(fin.Status.Message.Citations) != 1 || fin.Status.Message.Citations[0].Kind != protocol.CitationKindAPI {
		t.Errorf("citations = %+v, want one api citation", fin.Status.Message.Citations)
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"25 * 4 + 16", 116},
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"10 / 4", 2.5},
		{"-3 + 5", 2},
		{"2 * (3 + (4 - 1))", 12},
		{"1.5 * 2", 3},
	}
	for _, tt := range tests {
		got, err := evaluate(tt.expr)
		if err != nil {
			t.Errorf("evaluate(%q): %v", tt.expr, err)
			continue
		}
		if got != tt.want {
			t.Errorf("evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestEvaluate_Errors(t *testing.T) {
	for _, expr := range []string{"1 / 0", "(2 + 3", "2 +", "+ +"} {
		if _, err := evaluate(expr); err == nil {
			t.Errorf("evaluate(%q) should fail", expr)
		}
	}
}

func TestExtractExpression(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Calculate 25 * 4 + 16", "25 * 4 + 16"},
		{"what is (3 + 5) / 2?", "(3 + 5) / 2"},
		{"compute 7*8", "7*8"},
		{"no math here", ""},
	}
	for _, tt := range tests {
		if got := extractExpression(tt.text); got != tt.want {
			t.Errorf("extractExpression(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestCalculator_NoExpressionFails(t *testing.T) {
	a := NewAgent(CalculatorCard("http://calc", "test"), Calculator{}, nil)

	events := collect(t, a, protocol.NewUserMessage("hello there"))
	fin := lastStatus(t, events)
	if fin.Status.State != protocol.TaskStateFailed {
		t.Errorf("state = %q, want failed", fin.Status.State)
	}
}

func TestFormatNumber(t *testing.T) {
	if got := formatNumber(116); got != "116" {
		t.Errorf("formatNumber(116) = %q, want 116", got)
	}
	if got := formatNumber(2.5); got != "2.5" {
		t.Errorf("formatNumber(2.5) = %q, want 2.5", got)
	}
}
