package extract

import "unicode/utf8"

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RoleAssistant is the role whose messages become notes.
const RoleAssistant = "assistant"

// TranscriptOptions controls FromTranscript.
type TranscriptOptions struct {
	// MinLength is the rune count a message must exceed to be kept.
	MinLength int
	// Last keeps only the most recent candidates. Zero keeps all.
	Last int
}

// DefaultTranscriptOptions keeps the last 3 assistant messages longer than 20 characters.
func DefaultTranscriptOptions() TranscriptOptions {
	return TranscriptOptions{MinLength: 20, Last: 3}
}

// FromTranscript picks the assistant messages worth keeping as notes, oldest first.
func FromTranscript(messages []Message, opts TranscriptOptions) []string {
	var notes []string
	for _, m := range messages {
		if m.Role != RoleAssistant || utf8.RuneCountInString(m.Content) <= opts.MinLength {
			continue
		}
		notes = append(notes, m.Content)
	}
	if opts.Last > 0 && len(notes) > opts.Last {
		notes = notes[len(notes)-opts.Last:]
	}
	return notes
}
