package protocol

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message.
type Role string

const (
	// RoleUser marks messages authored by the caller.
	RoleUser Role = "user"
	// RoleAgent marks messages authored by an agent.
	RoleAgent Role = "agent"
)

// PartKind discriminates the Part union.
type PartKind string

const (
	// PartKindText is a plain text part.
	PartKindText PartKind = "text"
	// PartKindFile is a base64 binary part with a MIME type.
	PartKindFile PartKind = "file"
)

// Part is one segment of a message or artifact payload: either text or a
// base64-encoded binary payload with a MIME type.
type Part struct {
	Kind PartKind     `json:"kind"`
	Text string       `json:"text,omitempty"`
	File *FileContent `json:"file,omitempty"`
}

// FileContent carries a binary payload inline as base64.
type FileContent struct {
	Name     string `json:"name,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
	Bytes    string `json:"bytes,omitempty"`
}

// UnmarshalJSON validates the part kind at the boundary. An unrecognized or
// missing kind decodes to an empty text part rather than failing the event,
// matching the degrade-gracefully contract for specialist streams.
func (p *Part) UnmarshalJSON(data []byte) error {
	type alias Part
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	switch a.Kind {
	case PartKindText, PartKindFile:
		*p = Part(a)
	default:
		*p = Part{Kind: PartKindText}
	}
	return nil
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Kind: PartKindText, Text: text}
}

// FilePart builds a file part, base64-encoding the payload.
func FilePart(name, mimeType string, data []byte) Part {
	return Part{Kind: PartKindFile, File: &FileContent{
		Name:     name,
		MIMEType: mimeType,
		Bytes:    base64.StdEncoding.EncodeToString(data),
	}}
}

// CitationKind classifies the source a citation points at.
type CitationKind string

const (
	// CitationKindDoc cites a document.
	CitationKindDoc CitationKind = "doc"
	// CitationKindAPI cites an external API call.
	CitationKindAPI CitationKind = "api"
	// CitationKindModel cites a model completion.
	CitationKindModel CitationKind = "model"
	// CitationKindInternal cites an internal routing decision.
	CitationKindInternal CitationKind = "internal"
)

// Citation is a provenance record attached to a message or artifact.
// Citations are concatenated in order of first appearance and never
// deduplicated.
type Citation struct {
	ID        string       `json:"id"`
	Label     string       `json:"label"`
	URL       string       `json:"url,omitempty"`
	Kind      CitationKind `json:"kind"`
	Tool      string       `json:"tool,omitempty"`
	Note      string       `json:"note,omitempty"`
	Timestamp time.Time    `json:"timestamp,omitzero"`
}

// Message is one utterance in a task's history. Immutable once published.
type Message struct {
	Kind      string `json:"kind,omitempty"`
	MessageID string `json:"messageId"`
	Role      Role   `json:"role"`
	Parts     []Part `json:"parts"`
	TaskID    string `json:"taskId,omitempty"`
	ContextID string `json:"contextId,omitempty"`
	// Intent optionally tags the message with the routed intent label.
	Intent string `json:"intent,omitempty"`
	// SkillID optionally names the specialist skill that produced the message.
	SkillID    string     `json:"skillId,omitempty"`
	Citations  []Citation `json:"citations,omitempty"`
	IntentPath []string   `json:"intentPath,omitempty"`
}

// Text returns the concatenated text parts of the message.
func (m Message) Text() string {
	var b strings.Builder
	for _, p := range m.Parts {
		if p.Kind == PartKindText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// NewUserMessage builds a user message with a fresh message ID and a single
// text part.
func NewUserMessage(text string) Message {
	return Message{
		Kind:      "message",
		MessageID: NewID(),
		Role:      RoleUser,
		Parts:     []Part{TextPart(text)},
	}
}

// NewAgentText builds an agent message with a fresh message ID and a single
// text part.
func NewAgentText(text string) Message {
	return Message{
		Kind:      "message",
		MessageID: NewID(),
		Role:      RoleAgent,
		Parts:     []Part{TextPart(text)},
	}
}

// Artifact is a named, MIME-typed payload produced alongside the message
// stream.
type Artifact struct {
	ArtifactID  string     `json:"artifactId"`
	Name        string     `json:"name,omitempty"`
	Description string     `json:"description,omitempty"`
	Parts       []Part     `json:"parts"`
	Citations   []Citation `json:"citations,omitempty"`
}

// NewID returns a fresh opaque identifier.
func NewID() string {
	return uuid.New().String()
}
