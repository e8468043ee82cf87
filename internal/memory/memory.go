// Package memory keeps short-term conversation state per context, used only
// to disambiguate referential follow-ups. Never persisted.
package memory

import (
	"github.com/ShayCichocki/relay/internal/keyed"
)

// UtteranceWindow is the number of recent user utterances retained per
// context.
const UtteranceWindow = 3

// Snapshot is a point-in-time copy of one context's short-term memory.
type Snapshot struct {
	// Utterances are the most recent user utterances, oldest first.
	Utterances []string
	// LastSpecialist is the display name of the specialist used on the
	// previous turn, empty if the previous turn was answered directly.
	LastSpecialist string
	// StructuredLast is true when the previous turn touched the
	// structured-data specialist.
	StructuredLast bool
}

type entry struct {
	utterances     []string
	lastSpecialist string
	structuredLast bool
}

// Store holds conversation memory keyed by context ID with per-key
// serialization.
type Store struct {
	contexts *keyed.Map[*entry]
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{contexts: keyed.NewMap[*entry]()}
}

// Observe records a user utterance for the context, keeping the last
// UtteranceWindow of them.
func (s *Store) Observe(contextID, utterance string) {
	s.contexts.Update(contextID, func(e *entry, ok bool) (*entry, bool) {
		if !ok {
			e = &entry{}
		}
		e.utterances = append(e.utterances, utterance)
		if len(e.utterances) > UtteranceWindow {
			e.utterances = e.utterances[len(e.utterances)-UtteranceWindow:]
		}
		return e, true
	})
}

// RecordSpecialist records the specialist used for the turn just finished.
// An empty name marks a direct-answer turn. Mutated after every turn.
func (s *Store) RecordSpecialist(contextID, name string, structured bool) {
	s.contexts.Update(contextID, func(e *entry, ok bool) (*entry, bool) {
		if !ok {
			e = &entry{}
		}
		e.lastSpecialist = name
		e.structuredLast = structured
		return e, true
	})
}

// Snapshot returns a copy of the context's memory.
func (s *Store) Snapshot(contextID string) Snapshot {
	var snap Snapshot
	s.contexts.Update(contextID, func(e *entry, ok bool) (*entry, bool) {
		if !ok {
			return nil, false
		}
		snap = Snapshot{
			Utterances:     append([]string(nil), e.utterances...),
			LastSpecialist: e.lastSpecialist,
			StructuredLast: e.structuredLast,
		}
		return e, true
	})
	return snap
}
