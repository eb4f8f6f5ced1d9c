package commitmsg

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxBodyLine is the advisory wrap width for body lines.
const MaxBodyLine = 100

// Lint returns advisory style notes for an already classified message.
// Notes never make a message malformed.
func Lint(msg *Message) []string {
	if msg == nil {
		return nil
	}

	var notes []string
	if strings.HasSuffix(msg.Subject, ".") {
		notes = append(notes, "subject should not end with a period")
	}
	if r, _ := utf8.DecodeRuneInString(msg.Subject); unicode.IsUpper(r) && !isAcronym(msg.Subject) {
		notes = append(notes, "subject should start with a lowercase imperative verb")
	}
	for i, line := range strings.Split(msg.Body, "\n") {
		if n := utf8.RuneCountInString(line); n > MaxBodyLine {
			notes = append(notes, fmt.Sprintf("body line %d is %d chars (wrap at %d)", i+1, n, MaxBodyLine))
		}
	}
	return notes
}

// isAcronym reports whether the first word is all caps (e.g. "JWT", "API").
func isAcronym(subject string) bool {
	word := subject
	if idx := strings.IndexAny(subject, " :"); idx != -1 {
		word = subject[:idx]
	}
	if utf8.RuneCountInString(word) < 2 {
		return false
	}
	for _, r := range word {
		if unicode.IsLower(r) {
			return false
		}
	}
	return true
}
