package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/relay/internal/protocol"
)

// entryKind discriminates transcript entries.
type entryKind int

const (
	entryUser entryKind = iota
	entryAgent
	entryProgress
	entryError
)

// entry is one rendered line group in the transcript.
type entry struct {
	kind       entryKind
	text       string
	intentPath []string
	citations  []protocol.Citation
}

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	agentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	breadcrumbStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("107"))

	citationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))
)

// render produces the transcript text for the viewport.
func renderTranscript(entries []entry, width int) string {
	var b strings.Builder
	wrap := lipgloss.NewStyle().Width(width)

	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		switch e.kind {
		case entryUser:
			b.WriteString(wrap.Render(userStyle.Render("You: ") + e.text))
		case entryProgress:
			b.WriteString(wrap.Render(progressStyle.Render(e.text)))
		case entryError:
			b.WriteString(wrap.Render(errorStyle.Render(e.text)))
		case entryAgent:
			b.WriteString(wrap.Render(agentStyle.Render(strings.TrimRight(e.text, "\n"))))
			if len(e.intentPath) > 0 {
				b.WriteString("\n")
				b.WriteString(wrap.Render(breadcrumbStyle.Render("via " + strings.Join(e.intentPath, " -> "))))
			}
			for j, c := range e.citations {
				b.WriteString("\n")
				b.WriteString(wrap.Render(citationStyle.Render(fmt.Sprintf("  [%d] %s (%s)", j+1, c.Label, c.Kind))))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
