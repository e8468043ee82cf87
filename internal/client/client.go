// Package client implements the calling side of the agent streaming
// contract: capability-card fetch, message/stream over SSE, and task
// cancellation.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ShayCichocki/relay/internal/protocol"
)

// Client talks to one or more agents over HTTP. Safe for concurrent use.
type Client struct {
	http   *http.Client
	logger *slog.Logger
}

// New creates a Client. The underlying HTTP client carries no global
// timeout because streams are long-lived; callers bound individual calls
// with their context.
func New(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:   &http.Client{},
		logger: logger.With("component", "client"),
	}
}

// FetchCard retrieves the agent's capability descriptor from the well-known
// path under baseURL.
func (c *Client) FetchCard(ctx context.Context, baseURL string) (*protocol.AgentCard, error) {
	url := strings.TrimRight(baseURL, "/") + protocol.AgentCardPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch card: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch card %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch card %s: unexpected status %d", url, resp.StatusCode)
	}
	var card protocol.AgentCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, fmt.Errorf("fetch card %s: malformed descriptor: %w", url, err)
	}
	return &card, nil
}

// Stream opens a message/stream call against baseURL and delivers the
// agent's events in arrival order. The event channel closes when the server
// ends the stream or an event arrives with final=true; at most one error is
// sent on the error channel before both channels close.
func (c *Client) Stream(ctx context.Context, baseURL string, params protocol.MessageSendParams) (<-chan protocol.Event, <-chan error) {
	events := make(chan protocol.Event, eventBuffer)
	errs := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errs)
		if err := c.stream(ctx, baseURL, params, events); err != nil {
			errs <- err
		}
	}()

	return events, errs
}

const eventBuffer = 16

func (c *Client) stream(ctx context.Context, baseURL string, params protocol.MessageSendParams, events chan<- protocol.Event) error {
	body, err := json.Marshal(protocol.Request{
		JSONRPC: "2.0",
		ID:      json.RawMessage(fmt.Sprintf("%q", protocol.NewID())),
		Method:  protocol.MethodMessageStream,
		Params:  mustMarshal(params),
	})
	if err != nil {
		return fmt.Errorf("stream: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("stream: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("stream %s: %w", baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("stream %s: unexpected status %d", baseURL, resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventBytes)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}

		var env struct {
			Result json.RawMessage    `json:"result"`
			Error  *protocol.RPCError `json:"error"`
		}
		if err := json.Unmarshal([]byte(payload), &env); err != nil {
			c.logger.Warn("skipping malformed stream payload", "error", err)
			continue
		}
		if env.Error != nil {
			return fmt.Errorf("stream %s: remote error %d: %s", baseURL, env.Error.Code, env.Error.Message)
		}

		ev, err := protocol.DecodeEvent(env.Result)
		if err != nil {
			// Unknown shapes are soft protocol violations; skip them.
			c.logger.Warn("skipping undecodable event", "error", err)
			continue
		}

		select {
		case events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}

		if su, ok := ev.(*protocol.StatusUpdateEvent); ok && su.Final {
			return nil
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return fmt.Errorf("stream %s: %w", baseURL, err)
	}
	return nil
}

const maxEventBytes = 4 * 1024 * 1024

// Cancel issues a tasks/cancel call for taskID. It returns once the server
// acknowledges; it does not guarantee in-flight work stops.
func (c *Client) Cancel(ctx context.Context, baseURL, taskID string) error {
	body, err := json.Marshal(protocol.Request{
		JSONRPC: "2.0",
		ID:      json.RawMessage(fmt.Sprintf("%q", protocol.NewID())),
		Method:  protocol.MethodTasksCancel,
		Params:  mustMarshal(protocol.TaskIDParams{ID: taskID}),
	})
	if err != nil {
		return fmt.Errorf("cancel: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("cancel: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cancel %s: %w", baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("cancel %s: unexpected status %d", baseURL, resp.StatusCode)
	}
	return nil
}

func mustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
