package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/relay/internal/config"
	"github.com/ShayCichocki/relay/internal/llm"
)

// newLogger builds the process logger. Verbose switches to debug level.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newCompletionClient builds the completion backend selected by cfg. A nil
// client is valid: the orchestrator then degrades direct answers to a
// formatted notice.
func newCompletionClient(cfg *config.LLMConfig) (llm.CompletionClient, error) {
	switch cfg.Backend {
	case config.BackendNone:
		return nil, nil
	case config.BackendOpenAI:
		return llm.NewHTTPClient(cfg.Endpoint, cfg.Model, cfg.APIKey), nil
	case config.BackendAnthropic:
		return llm.NewAnthropicClient(llm.AnthropicConfig{
			Model:  anthropic.Model(cfg.Model),
			APIKey: cfg.APIKey,
		})
	case config.BackendBedrock:
		return llm.NewAnthropicClient(llm.AnthropicConfig{
			Model:         anthropic.Model(cfg.Model),
			UseAWSBedrock: true,
			AWSRegion:     cfg.AWSRegion,
			AWSProfile:    cfg.AWSProfile,
		})
	default:
		return nil, fmt.Errorf("unknown llm backend %q", cfg.Backend)
	}
}
