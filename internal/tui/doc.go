// Package tui implements the interactive chat client: a scrollback
// transcript over a single-line input, streaming orchestrator events into
// the transcript as they arrive.
package tui
