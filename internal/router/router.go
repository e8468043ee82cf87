// Package router decides whether an inbound request is delegated to a
// specialist or answered directly. Deterministic keyword rules run before the
// classification oracle and can never be overridden by it.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ShayCichocki/relay/internal/llm"
	"github.com/ShayCichocki/relay/internal/memory"
)

// Intent is the routed destination for a turn.
type Intent string

const (
	// IntentWeather routes to the weather specialist.
	IntentWeather Intent = "weather"
	// IntentCalculator routes to the calculator specialist.
	IntentCalculator Intent = "calculator"
	// IntentStructuredQuery routes to the structured-data specialist.
	IntentStructuredQuery Intent = "structured-query"
	// IntentGeneral answers directly without delegation.
	IntentGeneral Intent = "general"
)

// structuredKeywords are unambiguous structural signals for the
// structured-data specialist.
var structuredKeywords = []string{
	"chart", "graph", "csv", "export", "visualize", "plot", "graphql",
}

// classifyMaxTokens keeps the oracle response to a single label token.
const classifyMaxTokens = 8

const classifySystemPrompt = "You classify a user request into exactly one intent label. " +
	"Answer with one word from: weather, calculator, structured-query, general. " +
	"No punctuation, no explanation."

// Router classifies request text against short-term conversation memory.
type Router struct {
	completions llm.CompletionClient
	logger      *slog.Logger
}

// New creates a Router. completions may be nil, in which case everything
// that misses the deterministic rules classifies as general.
func New(completions llm.CompletionClient, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		completions: completions,
		logger:      logger.With("component", "router"),
	}
}

// Classify returns the intent for text. Deterministic rules first: an
// explicit structured-data signal, or an anaphoric "this" while the previous
// turn touched the structured-data specialist, short-circuits to
// structured-query. Otherwise one classification call is issued at
// temperature 0; any failure or unrecognized label degrades to general.
func (r *Router) Classify(ctx context.Context, text string, mem memory.Snapshot) Intent {
	if r.matchesStructuredRules(text, mem) {
		return IntentStructuredQuery
	}

	if r.completions == nil {
		return IntentGeneral
	}

	out, err := r.completions.Complete(ctx, llm.Request{
		Messages: []llm.ChatMessage{
			{Role: "system", Content: classifySystemPrompt},
			{Role: "user", Content: classifyMemo(text, mem)},
		},
		MaxTokens:   classifyMaxTokens,
		Temperature: 0,
	})
	if err != nil {
		r.logger.Warn("classification call failed, defaulting to general", "error", err)
		return IntentGeneral
	}

	intent, ok := ParseIntent(out)
	if !ok {
		r.logger.Warn("classifier returned unknown label, defaulting to general", "label", out)
		return IntentGeneral
	}
	return intent
}

func (r *Router) matchesStructuredRules(text string, mem memory.Snapshot) bool {
	lower := strings.ToLower(text)
	for _, kw := range structuredKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	// An explicit query literal is a structural signal.
	if strings.Contains(lower, "query {") || strings.HasPrefix(strings.TrimSpace(text), "{") {
		return true
	}
	if mem.StructuredLast && hasWord(lower, "this") {
		return true
	}
	return false
}

// hasWord reports whether w appears as a standalone token in lower.
func hasWord(lower, w string) bool {
	for _, tok := range strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '-'
	}) {
		if tok == w {
			return true
		}
	}
	return false
}

// classifyMemo renders the short-term memory and current text into the
// classification prompt.
func classifyMemo(text string, mem memory.Snapshot) string {
	var b strings.Builder
	if mem.LastSpecialist != "" {
		fmt.Fprintf(&b, "Last specialist used: %s\n", mem.LastSpecialist)
	}
	if len(mem.Utterances) > 0 {
		b.WriteString("Recent user messages:\n")
		for _, u := range mem.Utterances {
			fmt.Fprintf(&b, "- %s\n", u)
		}
	}
	fmt.Fprintf(&b, "Current request: %s", text)
	return b.String()
}

// ParseIntent maps an oracle label to an Intent.
func ParseIntent(label string) (Intent, bool) {
	switch Intent(strings.Trim(strings.ToLower(strings.TrimSpace(label)), ".\"'`")) {
	case IntentWeather:
		return IntentWeather, true
	case IntentCalculator:
		return IntentCalculator, true
	case IntentStructuredQuery:
		return IntentStructuredQuery, true
	case IntentGeneral:
		return IntentGeneral, true
	default:
		return IntentGeneral, false
	}
}
