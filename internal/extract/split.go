package extract

import (
	"regexp"
	"strings"
)

var blankLines = regexp.MustCompile(`\n[ \t\r]*\n`)

// SplitNotes splits text into note candidates on blank lines. Whitespace inside a
// candidate is collapsed to single spaces and empty candidates are dropped.
func SplitNotes(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var notes []string
	for _, block := range blankLines.Split(text, -1) {
		if note := strings.Join(strings.Fields(block), " "); note != "" {
			notes = append(notes, note)
		}
	}
	return notes
}
