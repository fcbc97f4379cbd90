// Package plan holds the shared data types for a business-plan project:
// the accumulated plan fields, the chat transcript driving the wizard, and
// the locale of user-visible text.
package plan

// Locale selects the language for questions, guidance, and system messages.
type Locale string

const (
	LocaleEN Locale = "en"
	LocaleFA Locale = "fa"
)

// Sender identifies who produced a chat message.
type Sender string

const (
	SenderUser   Sender = "user"
	SenderAI     Sender = "ai"
	SenderSystem Sender = "system"
)

// Source is a grounding reference attached to generated content.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Message is one entry in the append-only conversation transcript.
// Insertion order is semantically meaningful.
type Message struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	Sender       Sender   `json:"sender"`
	IsSuggestion bool     `json:"isSuggestion,omitempty"`
	Sources      []Source `json:"sources,omitempty"`
}

// Meta fields stored in Data alongside the per-stage plan fields.
const (
	KeyProjectName = "projectName"
	KeyInitialIdea = "initialIdea"
)

// Data is the business-plan record: one free-text value per completed stage
// field, plus the project meta fields. Partial at all times.
type Data map[string]string

// Clone returns an independent copy of d.
func (d Data) Clone() Data {
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// CloneMessages returns an independent copy of the transcript slice.
// Message values are copied; Sources slices are shared (never mutated).
func CloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
