package fragment

import (
	"fmt"
	"strings"
)

// Speaker identifies who authored a transcript message.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
	SpeakerSystem    Speaker = "system"
)

// Message is one entry in a conversation transcript.
type Message struct {
	Speaker Speaker
	Text    string
}

// HistoryEntry is one user request and the conversation it produced.
// Compression replaces the transcript with a one-line summary; once
// compressed an entry never reverts.
type HistoryEntry struct {
	Sequence   int
	Summary    string
	Messages   []Message
	Compressed bool
}

// Compress returns a compressed copy of the entry. Compressing an already
// compressed entry returns it unchanged.
func (e HistoryEntry) Compress(summary string) HistoryEntry {
	if e.Compressed {
		return e
	}
	return HistoryEntry{
		Sequence:   e.Sequence,
		Summary:    summary,
		Compressed: true,
	}
}

func (e HistoryEntry) render() string {
	if e.Compressed {
		return fmt.Sprintf("## Task %d (compressed)\n%s", e.Sequence, e.Summary)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Task %d\n", e.Sequence)
	for _, m := range e.Messages {
		fmt.Fprintf(&sb, "%s: %s\n", m.Speaker, m.Text)
	}
	return sb.String()
}

// History is the conversation history fragment of a snapshot.
type History struct {
	id      string
	entries []HistoryEntry
}

// NewHistory creates a history fragment over the given entries. The slice is
// copied so callers cannot mutate the fragment afterwards.
func NewHistory(entries []HistoryEntry) *History {
	cp := make([]HistoryEntry, len(entries))
	copy(cp, entries)
	return &History{id: NewID(), entries: cp}
}

func (f *History) ID() string   { return f.id }
func (f *History) Kind() Kind   { return KindHistory }
func (f *History) IsText() bool { return true }

func (f *History) Description() string {
	return fmt.Sprintf("Task history (%d tasks)", len(f.entries))
}

func (f *History) Text() (string, error) {
	parts := make([]string, len(f.entries))
	for i, e := range f.entries {
		parts[i] = e.render()
	}
	return strings.Join(parts, "\n\n"), nil
}

func (f *History) Files() []FileRef { return nil }

// Entries returns the entries in order. The returned slice must not be
// modified.
func (f *History) Entries() []HistoryEntry { return f.entries }

// UncompressedCount reports how many entries are still uncompressed.
func (f *History) UncompressedCount() int {
	n := 0
	for _, e := range f.entries {
		if !e.Compressed {
			n++
		}
	}
	return n
}

// Output holds the parsed transcript of the most recent action, e.g. LLM
// output captured into the workspace.
type Output struct {
	id       string
	title    string
	messages []Message
}

// NewOutput creates an output fragment with the given title and transcript.
func NewOutput(title string, messages []Message) *Output {
	cp := make([]Message, len(messages))
	copy(cp, messages)
	return &Output{id: NewID(), title: title, messages: cp}
}

func (f *Output) ID() string          { return f.id }
func (f *Output) Kind() Kind          { return KindOutput }
func (f *Output) IsText() bool        { return true }
func (f *Output) Description() string { return f.title }

func (f *Output) Text() (string, error) {
	var sb strings.Builder
	for _, m := range f.messages {
		fmt.Fprintf(&sb, "%s: %s\n", m.Speaker, m.Text)
	}
	return sb.String(), nil
}

func (f *Output) Files() []FileRef { return nil }

// Messages returns the transcript in order. The returned slice must not be
// modified.
func (f *Output) Messages() []Message { return f.messages }
