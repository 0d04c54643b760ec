package extract

import (
	"reflect"
	"strings"
	"testing"
)

func TestFromTranscript(t *testing.T) {
	long := func(s string) string { return s + strings.Repeat(".", 20) }
	messages := []Message{
		{Role: "user", Content: long("user question")},
		{Role: RoleAssistant, Content: "too short"},
		{Role: RoleAssistant, Content: long("one")},
		{Role: RoleAssistant, Content: long("two")},
		{Role: RoleAssistant, Content: long("three")},
		{Role: RoleAssistant, Content: long("four")},
	}

	got := FromTranscript(messages, DefaultTranscriptOptions())
	want := []string{long("two"), long("three"), long("four")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}

	all := FromTranscript(messages, TranscriptOptions{MinLength: 20})
	if len(all) != 4 {
		t.Errorf("without a limit got %d notes, want 4", len(all))
	}
}

func TestFromTranscript_LengthIsExclusive(t *testing.T) {
	exact := strings.Repeat("é", 20)
	got := FromTranscript([]Message{{Role: RoleAssistant, Content: exact}}, DefaultTranscriptOptions())
	if len(got) != 0 {
		t.Errorf("a message of exactly 20 characters should be dropped, got %q", got)
	}
}
