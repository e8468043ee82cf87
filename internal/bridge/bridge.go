// Package bridge remembers which specialist task is waiting on the caller,
// so the next inbound message for an orchestrator task can be forwarded to
// the paused specialist instead of starting a new delegation.
package bridge

import (
	"github.com/ShayCichocki/relay/internal/keyed"
)

// Entry maps an orchestrator task to the specialist task paused on
// input-required. Per orchestrator task the bridge moves
// NONE -> AWAITING_INPUT (Arm) -> NONE (Clear), re-arming if the specialist
// pauses again. Entries never expire; an abandoned bridge lives until
// process exit.
type Entry struct {
	// SpecialistName is the display name from the specialist's card.
	SpecialistName string
	// SpecialistURL is the specialist's base address.
	SpecialistURL string
	// SpecialistTaskID is the paused task in the specialist's task space.
	SpecialistTaskID string
	// SpecialistContextID is the conversation in the specialist's context space.
	SpecialistContextID string
}

// Map is the bridge store, keyed by orchestrator task ID.
type Map struct {
	entries *keyed.Map[Entry]
}

// NewMap creates an empty bridge map.
func NewMap() *Map {
	return &Map{entries: keyed.NewMap[Entry]()}
}

// Arm installs (or replaces) the bridge entry for an orchestrator task.
func (m *Map) Arm(taskID string, e Entry) {
	m.entries.Set(taskID, e)
}

// Lookup returns the bridge entry for an orchestrator task, if armed.
func (m *Map) Lookup(taskID string) (Entry, bool) {
	return m.entries.Get(taskID)
}

// Clear removes the bridge entry once the specialist stream reaches a
// terminal state.
func (m *Map) Clear(taskID string) {
	m.entries.Delete(taskID)
}

// Count returns the number of armed bridges.
func (m *Map) Count() int {
	return m.entries.Len()
}
