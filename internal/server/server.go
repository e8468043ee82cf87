// Package server exposes a turn handler over HTTP: the agent card on the
// well-known path and a JSON-RPC 2.0 endpoint where message/stream responses
// are delivered as server-sent events. Both the orchestrator and the bundled
// specialists are served through it.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ShayCichocki/relay/internal/eventqueue"
	"github.com/ShayCichocki/relay/internal/protocol"
)

// TurnHandler runs one turn per inbound message and supports cooperative
// cancellation. The orchestrator engine and the specialist framework both
// satisfy it.
type TurnHandler interface {
	HandleMessage(ctx context.Context, msg protocol.Message) *eventqueue.Queue
	Cancel(taskID string)
	Task(taskID string) (protocol.Task, bool)
}

// Server serves one agent over HTTP.
type Server struct {
	handler TurnHandler
	card    protocol.AgentCard
	logger  *slog.Logger
	mux     *http.ServeMux
}

// New creates a Server for the given handler and card.
func New(handler TurnHandler, card protocol.AgentCard, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		handler: handler,
		card:    card,
		logger:  logger.With("component", "server", "agent", card.Name),
	}
	mux := http.NewServeMux()
	mux.HandleFunc(protocol.AgentCardPath, s.handleCard)
	mux.HandleFunc("/", s.handleRPC)
	s.mux = mux
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe blocks serving on addr.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("listening", "addr", addr)
	return http.ListenAndServe(addr, s)
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.card); err != nil {
		s.logger.Error("card encode failed", "error", err)
	}
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req protocol.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, nil, protocol.CodeParseError, fmt.Sprintf("parse request: %v", err))
		return
	}
	if req.JSONRPC != "2.0" {
		s.writeError(w, req.ID, protocol.CodeInvalidRequest, "jsonrpc must be 2.0")
		return
	}

	switch req.Method {
	case protocol.MethodMessageStream:
		s.handleMessageStream(w, r, req)
	case protocol.MethodTasksCancel:
		s.handleTasksCancel(w, req)
	default:
		s.writeError(w, req.ID, protocol.CodeMethodNotFound, fmt.Sprintf("unknown method %q", req.Method))
	}
}

// handleMessageStream runs one turn and streams its events as SSE, one
// JSON-RPC response envelope per event, repeating the request ID.
func (s *Server) handleMessageStream(w http.ResponseWriter, r *http.Request, req protocol.Request) {
	var params protocol.MessageSendParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.writeError(w, req.ID, protocol.CodeInvalidParams, fmt.Sprintf("parse params: %v", err))
		return
	}
	if params.Message.Text() == "" {
		s.writeError(w, req.ID, protocol.CodeInvalidParams, "message has no text")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, req.ID, protocol.CodeInternalError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	q := s.handler.HandleMessage(r.Context(), params.Message)
	for ev := range q.Events() {
		env := protocol.Response{JSONRPC: "2.0", ID: req.ID, Result: ev}
		payload, err := json.Marshal(env)
		if err != nil {
			s.logger.Error("event encode failed", "error", err)
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			// Caller went away; the turn keeps running to completion.
			s.logger.Warn("stream write failed", "error", err)
			return
		}
		flusher.Flush()
	}
}

func (s *Server) handleTasksCancel(w http.ResponseWriter, req protocol.Request) {
	var params protocol.TaskIDParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.writeError(w, req.ID, protocol.CodeInvalidParams, fmt.Sprintf("parse params: %v", err))
		return
	}
	if params.ID == "" {
		s.writeError(w, req.ID, protocol.CodeInvalidParams, "task id required")
		return
	}

	s.handler.Cancel(params.ID)

	// Cancellation is cooperative: the snapshot reflects the task as it is
	// now, not as it will be once the running turn notices.
	var result any
	if task, ok := s.handler.Task(params.ID); ok {
		result = &task
	} else {
		result = map[string]string{"id": params.ID, "status": "cancellation requested"}
	}
	s.writeResult(w, req.ID, result)
}

func (s *Server) writeResult(w http.ResponseWriter, id json.RawMessage, result any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(protocol.Response{JSONRPC: "2.0", ID: id, Result: result}); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, id json.RawMessage, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	err := json.NewEncoder(w).Encode(protocol.Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &protocol.RPCError{Code: code, Message: message},
	})
	if err != nil {
		s.logger.Error("error encode failed", "error", err)
	}
}
