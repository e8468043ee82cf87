package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPClient_Complete(t *testing.T) {
	var got chatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "calculator"}},
			},
			"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 1},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "test-model", "secret")
	out, err := c.Complete(context.Background(), Request{
		Messages:    []ChatMessage{{Role: "user", Content: "classify this"}},
		MaxTokens:   5,
		Temperature: 0,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "calculator" {
		t.Errorf("Complete = %q, want calculator", out)
	}
	if got.Model != "test-model" {
		t.Errorf("request model = %q, want test-model", got.Model)
	}
	if got.Temperature != 0 {
		t.Errorf("temperature = %v, want 0", got.Temperature)
	}

	in, outTok := c.Tracker().Total()
	if in != 12 || outTok != 1 {
		t.Errorf("tracked tokens = %d/%d, want 12/1", in, outTok)
	}
}

func TestHTTPClient_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL, "m", "").Complete(context.Background(), Request{})
	if err == nil {
		t.Error("expected error for non-2xx completion response")
	}
}

func TestHTTPClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL, "m", "").Complete(context.Background(), Request{})
	if err == nil {
		t.Error("expected error for empty choices")
	}
}
