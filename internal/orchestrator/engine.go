// Package orchestrator runs the turn state machine: ledger lookup, HITL
// bridge check, intent routing, delegation or direct answer, and the single
// merged terminal bubble.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ShayCichocki/relay/internal/bridge"
	"github.com/ShayCichocki/relay/internal/eventqueue"
	"github.com/ShayCichocki/relay/internal/keyed"
	"github.com/ShayCichocki/relay/internal/ledger"
	"github.com/ShayCichocki/relay/internal/llm"
	"github.com/ShayCichocki/relay/internal/memory"
	"github.com/ShayCichocki/relay/internal/protocol"
	"github.com/ShayCichocki/relay/internal/proxy"
	"github.com/ShayCichocki/relay/internal/registry"
	"github.com/ShayCichocki/relay/internal/router"
)

// answerMaxTokens bounds the direct-answer completion call.
const answerMaxTokens = 1024

// EventSink receives every event emitted to a caller, for observational
// journaling. Sink failures never affect the turn.
type EventSink interface {
	Record(ev protocol.Event) error
}

// Config wires an Engine.
type Config struct {
	Ledger   *ledger.Ledger
	Registry *registry.Registry
	Router   *router.Router
	Proxy    *proxy.Proxy
	Bridges  *bridge.Map
	Memory   *memory.Store
	// Completions answers general turns directly. May be nil; direct
	// answers then degrade to a formatted error message.
	Completions llm.CompletionClient
	// Journal is optional.
	Journal EventSink
	Logger  *slog.Logger
}

// Engine coordinates one turn per inbound message. Turns on different tasks
// proceed concurrently; per-task state is serialized by the keyed stores.
type Engine struct {
	ledger      *ledger.Ledger
	registry    *registry.Registry
	router      *router.Router
	proxy       *proxy.Proxy
	bridges     *bridge.Map
	memory      *memory.Store
	completions llm.CompletionClient
	journal     EventSink
	logger      *slog.Logger

	// cancels is the cooperative cancellation set; membership only changes
	// which terminal event a turn emits.
	cancels *keyed.Map[struct{}]
}

// New creates an Engine from cfg, filling in empty stores.
func New(cfg Config) *Engine {
	if cfg.Ledger == nil {
		cfg.Ledger = ledger.New()
	}
	if cfg.Bridges == nil {
		cfg.Bridges = bridge.NewMap()
	}
	if cfg.Memory == nil {
		cfg.Memory = memory.NewStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Engine{
		ledger:      cfg.Ledger,
		registry:    cfg.Registry,
		router:      cfg.Router,
		proxy:       cfg.Proxy,
		bridges:     cfg.Bridges,
		memory:      cfg.Memory,
		completions: cfg.Completions,
		journal:     cfg.Journal,
		logger:      cfg.Logger.With("component", "orchestrator"),
		cancels:     keyed.NewMap[struct{}](),
	}
}

// Cancel adds a task to the cooperative cancellation set and returns
// immediately. In-flight work is not interrupted; the turn emits a canceled
// terminal event once its current step completes.
func (e *Engine) Cancel(taskID string) {
	e.cancels.Set(taskID, struct{}{})
}

// HandleMessage starts one turn for the inbound message and returns the
// ordered event queue for it. The queue finishes after the turn's final
// event.
func (e *Engine) HandleMessage(ctx context.Context, msg protocol.Message) *eventqueue.Queue {
	q := eventqueue.New()
	go e.runTurn(ctx, msg, q)
	return q
}

func (e *Engine) runTurn(ctx context.Context, msg protocol.Message, q *eventqueue.Queue) {
	defer q.Finish()

	taskID := msg.TaskID
	if taskID == "" {
		taskID = protocol.NewID()
	}
	contextID := msg.ContextID
	if contextID == "" {
		contextID = protocol.NewID()
	}

	emit := func(ev protocol.Event) {
		q.Write(ev)
		if e.journal != nil {
			if err := e.journal.Record(ev); err != nil {
				e.logger.Warn("journal write failed", "task", taskID, "error", err)
			}
		}
	}

	task, created := e.ledger.GetOrCreate(taskID, contextID)
	contextID = task.ContextID
	msg.TaskID = taskID
	msg.ContextID = contextID
	e.ledger.RecordMessage(taskID, msg)

	if created {
		snapshot, _ := e.ledger.Get(taskID)
		emit(&snapshot)
	}

	text := msg.Text()
	e.memory.Observe(contextID, text)

	if err := e.ledger.SetState(taskID, protocol.TaskStateWorking); err != nil {
		e.logger.Warn("task not transitionable, continuing", "task", taskID, "error", err)
	}
	// Text-free placeholder keeps the caller's spinner alive without a
	// duplicate bubble.
	emit(&protocol.StatusUpdateEvent{
		Kind:      protocol.EventKindStatusUpdate,
		TaskID:    taskID,
		ContextID: contextID,
		Status:    protocol.TaskStatus{State: protocol.TaskStateWorking, Timestamp: time.Now().UTC()},
	})

	if err := e.registry.Wait(ctx); err != nil {
		e.finishTurn(taskID, contextID, turnOutcome{
			text:       fmt.Sprintf("Request aborted before specialist discovery finished: %v", err),
			intentPath: []string{proxy.IntentPathRoot},
		}, emit)
		return
	}

	if entry, armed := e.bridges.Lookup(taskID); armed {
		e.runBridgedTurn(ctx, taskID, contextID, text, entry, emit)
		return
	}

	intent := e.router.Classify(ctx, text, e.memory.Snapshot(contextID))

	var sp *registry.Specialist
	if intent != router.IntentGeneral {
		sp = e.registry.Find(string(intent))
		if sp == nil {
			e.logger.Info("no specialist for intent, answering directly", "intent", intent)
		}
	}

	if sp == nil {
		e.runDirectTurn(ctx, taskID, contextID, text, emit)
		return
	}
	e.runDelegatedTurn(ctx, taskID, contextID, text, sp, nil, emit)
}

// runBridgedTurn forwards the caller's reply straight to the paused
// specialist task, bypassing the router entirely.
func (e *Engine) runBridgedTurn(ctx context.Context, taskID, contextID, text string, entry bridge.Entry, emit func(protocol.Event)) {
	sp := e.registry.Find(entry.SpecialistName)
	if sp == nil {
		// Specialist card no longer resolvable; keep the handle we stored.
		sp = &registry.Specialist{
			Card: protocol.AgentCard{Name: entry.SpecialistName},
			URL:  entry.SpecialistURL,
		}
	}
	e.runDelegatedTurn(ctx, taskID, contextID, text, sp, &entry, emit)
}

func (e *Engine) runDelegatedTurn(ctx context.Context, taskID, contextID, text string, sp *registry.Specialist, cont *bridge.Entry, emit func(protocol.Event)) {
	res, err := e.proxy.Delegate(ctx, proxy.Request{
		Specialist:   sp,
		Text:         text,
		TaskID:       taskID,
		ContextID:    contextID,
		Continuation: cont,
	}, emit)

	name := sp.Card.Name
	skill := res.SkillID
	if skill == "" {
		skill = proxy.FallbackSkill(sp)
	}
	structured := skill == "structured-query"

	if res.InputRequired {
		// The HITL prompt already closed the caller's stream; remember where
		// the reply has to go.
		e.bridges.Arm(taskID, bridge.Entry{
			SpecialistName:      name,
			SpecialistURL:       sp.URL,
			SpecialistTaskID:    res.SpecialistTaskID,
			SpecialistContextID: res.SpecialistContextID,
		})
		if serr := e.ledger.SetState(taskID, protocol.TaskStateInputRequired); serr != nil {
			e.logger.Warn("input-required transition rejected", "task", taskID, "error", serr)
		}
		e.memory.RecordSpecialist(contextID, name, structured)
		return
	}

	if res.Terminal {
		e.bridges.Clear(taskID)
	}

	bubble := fmt.Sprintf("**%s:** %s\n\n", name, res.Text)
	if err != nil {
		e.logger.Error("delegation failed", "specialist", name, "task", taskID, "error", err)
		bubble = fmt.Sprintf("**%s:** %s\n\n_Delegation error: %v_\n\n", name, res.Text, err)
	}

	// Specialist citations first, then the orchestrator's own routing marker.
	citations := append([]protocol.Citation(nil), res.Citations...)
	citations = append(citations, protocol.Citation{
		ID:        protocol.NewID(),
		Label:     fmt.Sprintf("Routed to %s", name),
		Kind:      protocol.CitationKindInternal,
		Tool:      "orchestrator",
		Note:      fmt.Sprintf("intent resolved to %s.%s", name, skill),
		Timestamp: time.Now().UTC(),
	})

	e.memory.RecordSpecialist(contextID, name, structured)
	e.finishTurn(taskID, contextID, turnOutcome{
		text:       bubble,
		citations:  citations,
		intentPath: proxy.IntentPath(sp, skill),
	}, emit)
}

// runDirectTurn answers with a single free-form completion call. A failed
// call becomes a formatted error message but the turn still terminates in
// the normal terminal state.
func (e *Engine) runDirectTurn(ctx context.Context, taskID, contextID, text string, emit func(protocol.Event)) {
	var answer string
	source := "unconfigured"
	if e.completions == nil {
		answer = "No completion backend is configured, so I cannot answer that directly."
	} else {
		source = e.completions.Source()
		out, err := e.completions.Complete(ctx, llm.Request{
			Messages:  []llm.ChatMessage{{Role: "user", Content: text}},
			MaxTokens: answerMaxTokens,
		})
		if err != nil {
			e.logger.Error("direct answer failed", "task", taskID, "error", err)
			answer = fmt.Sprintf("The answer service could not process this request: %v", err)
		} else {
			answer = out
		}
	}

	e.memory.RecordSpecialist(contextID, "", false)
	e.finishTurn(taskID, contextID, turnOutcome{
		text: answer,
		citations: []protocol.Citation{{
			ID:        protocol.NewID(),
			Label:     source,
			Kind:      protocol.CitationKindModel,
			Tool:      "orchestrator",
			Note:      "direct answer",
			Timestamp: time.Now().UTC(),
		}},
		intentPath: []string{proxy.IntentPathRoot},
	}, emit)
}

type turnOutcome struct {
	text       string
	citations  []protocol.Citation
	intentPath []string
}

// finishTurn emits the turn's single terminal bubble, honoring the
// cooperative cancellation set checked immediately before emission.
func (e *Engine) finishTurn(taskID, contextID string, out turnOutcome, emit func(protocol.Event)) {
	state := protocol.TaskStateCompleted
	if _, ok := e.cancels.Get(taskID); ok {
		state = protocol.TaskStateCanceled
		e.cancels.Delete(taskID)
	}

	final := protocol.Message{
		Kind:       "message",
		MessageID:  protocol.NewID(),
		Role:       protocol.RoleAgent,
		Parts:      []protocol.Part{protocol.TextPart(out.text)},
		TaskID:     taskID,
		ContextID:  contextID,
		Citations:  out.citations,
		IntentPath: out.intentPath,
	}
	e.ledger.RecordMessage(taskID, final)
	if err := e.ledger.SetState(taskID, state); err != nil {
		e.logger.Warn("terminal transition rejected", "task", taskID, "error", err)
	}

	emit(&protocol.StatusUpdateEvent{
		Kind:      protocol.EventKindStatusUpdate,
		TaskID:    taskID,
		ContextID: contextID,
		Status: protocol.TaskStatus{
			State:     state,
			Message:   &final,
			Timestamp: time.Now().UTC(),
		},
		Final: true,
	})
}

// Task returns a snapshot of one task from the ledger.
func (e *Engine) Task(taskID string) (protocol.Task, bool) {
	return e.ledger.Get(taskID)
}

// Card is the orchestrator's own capability descriptor, served on the same
// well-known path the specialists use.
func Card(baseURL, version string) protocol.AgentCard {
	return protocol.AgentCard{
		Name:        "Relay Orchestrator",
		Description: "Routes natural-language requests to specialist agents and relays their streams under one task identity.",
		URL:         baseURL,
		Version:     version,
		Capabilities: protocol.AgentCapabilities{
			Streaming: true,
		},
		DefaultInputModes:  []string{"text"},
		DefaultOutputModes: []string{"text"},
		Skills: []protocol.AgentSkill{{
			ID:          "general",
			Name:        "General orchestration",
			Description: "Classifies intent, delegates to calculator/weather/structured-data specialists, or answers directly.",
			Tags:        []string{"orchestration", "routing"},
			Examples:    []string{"Calculate 25 * 4 + 16", "What's the weather in Tokyo?", "Export the sales table as CSV"},
			InputModes:  []string{"text"},
			OutputModes: []string{"text"},
		}},
	}
}
