package router

import (
	"context"
	"errors"
	"testing"

	"github.com/ShayCichocki/relay/internal/llm"
	"github.com/ShayCichocki/relay/internal/memory"
)

// fakeOracle returns a fixed label or error and records whether it was asked.
type fakeOracle struct {
	label  string
	err    error
	called bool
}

func (f *fakeOracle) Complete(_ context.Context, req llm.Request) (string, error) {
	f.called = true
	if req.Temperature != 0 {
		return "", errors.New("classification must run at temperature 0")
	}
	return f.label, f.err
}

func (f *fakeOracle) Source() string { return "fake" }

func TestClassify_StructuredKeywordsBeatOracle(t *testing.T) {
	// The oracle lies; the deterministic rule must win.
	oracle := &fakeOracle{label: "weather"}
	r := New(oracle, nil)

	for _, text := range []string{
		"make a chart of sales",
		"Export this as CSV please",
		"can you visualize the totals",
		"query { products { name price } }",
	} {
		got := r.Classify(context.Background(), text, memory.Snapshot{})
		if got != IntentStructuredQuery {
			t.Errorf("Classify(%q) = %q, want structured-query", text, got)
		}
	}
	if oracle.called {
		t.Error("oracle must not be consulted when a deterministic rule matches")
	}
}

func TestClassify_AnaphoricThisWithStructuredHistory(t *testing.T) {
	r := New(&fakeOracle{label: "general"}, nil)

	mem := memory.Snapshot{StructuredLast: true}
	if got := r.Classify(context.Background(), "turn this into a pie, please", mem); got != IntentStructuredQuery {
		t.Errorf("Classify = %q, want structured-query", got)
	}

	// Without the structured flag, "this" alone is not a signal.
	if got := r.Classify(context.Background(), "turn this into a pie, please", memory.Snapshot{}); got != IntentGeneral {
		t.Errorf("Classify = %q, want general", got)
	}
}

func TestClassify_OracleLabels(t *testing.T) {
	cases := []struct {
		label string
		want  Intent
	}{
		{"calculator", IntentCalculator},
		{" Weather\n", IntentWeather},
		{"structured-query", IntentStructuredQuery},
		{"general", IntentGeneral},
		{"banana", IntentGeneral},
	}
	for _, tc := range cases {
		r := New(&fakeOracle{label: tc.label}, nil)
		got := r.Classify(context.Background(), "Calculate 25 * 4 + 16", memory.Snapshot{})
		if got != tc.want {
			t.Errorf("label %q: Classify = %q, want %q", tc.label, got, tc.want)
		}
	}
}

func TestClassify_OracleFailureFallsBackToGeneral(t *testing.T) {
	r := New(&fakeOracle{err: errors.New("503")}, nil)
	if got := r.Classify(context.Background(), "what is the meaning of life", memory.Snapshot{}); got != IntentGeneral {
		t.Errorf("Classify = %q, want general", got)
	}
}

func TestClassify_NilOracleIsGeneral(t *testing.T) {
	r := New(nil, nil)
	if got := r.Classify(context.Background(), "hello there", memory.Snapshot{}); got != IntentGeneral {
		t.Errorf("Classify = %q, want general", got)
	}
}
