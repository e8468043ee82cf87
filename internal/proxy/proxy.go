// Package proxy opens the streaming call to a chosen specialist and relays
// its events back under the orchestrator's task identity: every forwarded
// event is rewritten from the specialist's task/context identifiers to the
// orchestrator's, duplicate terminal text is suppressed, and provenance
// records are collected for the merged terminal bubble.
package proxy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ShayCichocki/relay/internal/bridge"
	"github.com/ShayCichocki/relay/internal/protocol"
	"github.com/ShayCichocki/relay/internal/registry"
)

// IntentPathRoot is the first breadcrumb of every intent path.
const IntentPathRoot = "orchestrator.general"

// Streamer is the calling side of the specialist streaming contract.
type Streamer interface {
	Stream(ctx context.Context, baseURL string, params protocol.MessageSendParams) (<-chan protocol.Event, <-chan error)
}

// Request describes one delegation.
type Request struct {
	// Specialist is the delegation target.
	Specialist *registry.Specialist
	// Text is the user text forwarded to the specialist. The orchestrator's
	// internal identifiers are never forwarded; the outbound message carries
	// a newly generated message ID.
	Text string
	// TaskID and ContextID are the orchestrator-side identifiers every
	// forwarded event is rewritten to.
	TaskID    string
	ContextID string
	// Continuation, when set, resumes the specialist task a previous turn
	// left paused on input-required.
	Continuation *bridge.Entry
}

// Result is what one delegation produced.
type Result struct {
	// Text is the specialist's accumulated terminal text, unprefixed.
	Text string
	// Citations are the specialist's citations in order of first appearance.
	Citations []protocol.Citation
	// SkillID is the specialist skill inferred best-effort from the stream;
	// falls back to the first skill on the specialist's card.
	SkillID string
	// Terminal is true when the specialist stream reached a terminal state.
	Terminal bool
	// InputRequired is true when the specialist paused for caller input.
	InputRequired bool
	// SpecialistTaskID and SpecialistContextID identify the specialist-side
	// task, needed to arm the HITL bridge.
	SpecialistTaskID    string
	SpecialistContextID string
}

// Proxy delegates turns to specialists.
type Proxy struct {
	streamer Streamer
	logger   *slog.Logger
}

// New creates a Proxy that opens streams through streamer.
func New(streamer Streamer, logger *slog.Logger) *Proxy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Proxy{
		streamer: streamer,
		logger:   logger.With("component", "proxy"),
	}
}

// Delegate streams the request to the specialist, emitting rewritten events
// through emit as they arrive, in arrival order. On a mid-stream error the
// partial Result is returned alongside the error.
func (p *Proxy) Delegate(ctx context.Context, req Request, emit func(protocol.Event)) (Result, error) {
	out := protocol.Message{
		Kind:      "message",
		MessageID: protocol.NewID(),
		Role:      protocol.RoleUser,
		Parts:     []protocol.Part{protocol.TextPart(req.Text)},
	}
	if req.Continuation != nil {
		out.TaskID = req.Continuation.SpecialistTaskID
		out.ContextID = req.Continuation.SpecialistContextID
	}

	params := protocol.MessageSendParams{
		Message: out,
		Configuration: &protocol.SendConfiguration{
			AcceptedOutputModes: []string{"text"},
			Blocking:            false,
		},
	}

	var res Result
	events, errs := p.streamer.Stream(ctx, req.Specialist.URL, params)
	for ev := range events {
		p.relay(ev, req, &res, emit)
	}
	if err := <-errs; err != nil {
		return res, fmt.Errorf("delegation to %s: %w", req.Specialist.Card.Name, err)
	}
	return res, nil
}

// relay rewrites one specialist event into the orchestrator's task space.
func (p *Proxy) relay(ev protocol.Event, req Request, res *Result, emit func(protocol.Event)) {
	switch e := ev.(type) {
	case *protocol.Task:
		// The specialist's task snapshot carries its identity; record it for
		// the bridge but never surface it to the caller.
		res.SpecialistTaskID = e.ID
		res.SpecialistContextID = e.ContextID

	case *protocol.ArtifactUpdateEvent:
		p.noteSpecialistIDs(e.TaskID, e.ContextID, res)
		emit(&protocol.ArtifactUpdateEvent{
			Kind:      protocol.EventKindArtifactUpdate,
			TaskID:    req.TaskID,
			ContextID: req.ContextID,
			Artifact:  e.Artifact,
			Append:    e.Append,
			LastChunk: e.LastChunk,
		})

	case *protocol.StatusUpdateEvent:
		p.noteSpecialistIDs(e.TaskID, e.ContextID, res)
		p.relayStatus(e, req, res, emit)
	}
}

func (p *Proxy) relayStatus(e *protocol.StatusUpdateEvent, req Request, res *Result, emit func(protocol.Event)) {
	msg := e.Status.Message
	text := ""
	if msg != nil {
		text = msg.Text()
		if skill := inferSkill(msg); skill != "" {
			res.SkillID = skill
		}
		res.Citations = append(res.Citations, msg.Citations...)
	}

	switch {
	case e.Status.State.Terminal():
		// The specialist's final text feeds the orchestrator's single merged
		// terminal bubble; forwarding it here would produce a duplicate
		// final-answer bubble.
		res.Terminal = true
		res.Text += text

	case e.Status.State == protocol.TaskStateInputRequired:
		res.InputRequired = true
		// The HITL prompt closes the caller's stream for this turn; the
		// follow-up message resumes the bridged specialist task.
		emit(&protocol.StatusUpdateEvent{
			Kind:      protocol.EventKindStatusUpdate,
			TaskID:    req.TaskID,
			ContextID: req.ContextID,
			Status: protocol.TaskStatus{
				State:     protocol.TaskStateInputRequired,
				Message:   p.rewrite(msg, req, res),
				Timestamp: e.Status.Timestamp,
			},
			Final: true,
		})

	default:
		// Empty "thinking" pings are suppressed so the caller never sees
		// duplicate placeholder bubbles.
		if text == "" && (msg == nil || len(msg.Citations) == 0) {
			return
		}
		emit(&protocol.StatusUpdateEvent{
			Kind:      protocol.EventKindStatusUpdate,
			TaskID:    req.TaskID,
			ContextID: req.ContextID,
			Status: protocol.TaskStatus{
				State:     e.Status.State,
				Message:   p.rewrite(msg, req, res),
				Timestamp: e.Status.Timestamp,
			},
			Final: false,
		})
	}
}

// rewrite clones a specialist message into the orchestrator's identity: new
// message ID, the orchestrator's task/context identifiers, and the intent
// path breadcrumb. Parts and citations pass through untouched.
func (p *Proxy) rewrite(msg *protocol.Message, req Request, res *Result) *protocol.Message {
	if msg == nil {
		return nil
	}
	return &protocol.Message{
		Kind:       "message",
		MessageID:  protocol.NewID(),
		Role:       protocol.RoleAgent,
		Parts:      msg.Parts,
		TaskID:     req.TaskID,
		ContextID:  req.ContextID,
		SkillID:    msg.SkillID,
		Citations:  msg.Citations,
		IntentPath: IntentPath(req.Specialist, p.skillFor(msg, req, res)),
	}
}

// skillFor picks the breadcrumb skill for one message: the message's own
// tag, the stream's inferred skill, or the card's first skill.
func (p *Proxy) skillFor(msg *protocol.Message, req Request, res *Result) string {
	if s := inferSkill(msg); s != "" {
		return s
	}
	if res.SkillID != "" {
		return res.SkillID
	}
	return FallbackSkill(req.Specialist)
}

func (p *Proxy) noteSpecialistIDs(taskID, contextID string, res *Result) {
	if taskID != "" {
		res.SpecialistTaskID = taskID
	}
	if contextID != "" {
		res.SpecialistContextID = contextID
	}
}

// inferSkill reads the optional skill tag off a specialist message.
// Absence is tolerated, not an error.
func inferSkill(msg *protocol.Message) string {
	if msg == nil {
		return ""
	}
	if msg.SkillID != "" {
		return msg.SkillID
	}
	return msg.Intent
}

// FallbackSkill is the card's first skill id, used when the stream never
// named one.
func FallbackSkill(sp *registry.Specialist) string {
	if len(sp.Card.Skills) > 0 {
		return sp.Card.Skills[0].ID
	}
	return "unknown"
}

// IntentPath builds the breadcrumb for a delegated turn.
func IntentPath(sp *registry.Specialist, skill string) []string {
	return []string{IntentPathRoot, fmt.Sprintf("%s.%s", sp.Card.Name, skill)}
}
