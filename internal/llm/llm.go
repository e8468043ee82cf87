// Package llm provides the completion oracle used for intent classification
// and direct free-form answers. The oracle is an opaque external dependency:
// callers apply defined fallbacks on any failure, nothing here retries.
package llm

import (
	"context"
	"sync"
)

// ChatMessage is one turn of a completion conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single completion call.
type Request struct {
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// CompletionClient issues a completion call and returns the response text.
type CompletionClient interface {
	Complete(ctx context.Context, req Request) (string, error)
	// Source names the completion backend for model-kind citations.
	Source() string
}

// TokenTracker tracks token usage across completion calls.
type TokenTracker struct {
	mu        sync.Mutex
	inputTok  int64
	outputTok int64
	calls     int
}

// NewTokenTracker creates a new token tracker.
func NewTokenTracker() *TokenTracker {
	return &TokenTracker{}
}

// Add records token usage from one call.
func (t *TokenTracker) Add(input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputTok += input
	t.outputTok += output
	t.calls++
}

// Total returns the total input and output tokens tracked.
func (t *TokenTracker) Total() (input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inputTok, t.outputTok
}

// Calls returns the number of completion calls made.
func (t *TokenTracker) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}
