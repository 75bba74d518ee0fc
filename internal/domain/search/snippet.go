package search

import "strings"

// SnippetMaxChars is the number of characters kept from the joined fragments.
const SnippetMaxChars = 300

// Ellipsis is appended to a truncated snippet.
const Ellipsis = "..."

// Snippet joins the non-blank fragments with single spaces and keeps the first
// SnippetMaxChars characters, appending Ellipsis when something was cut.
func Snippet(fragments []string) string {
	kept := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if strings.TrimSpace(f) == "" {
			continue
		}
		kept = append(kept, f)
	}
	joined := strings.Join(kept, " ")

	runes := []rune(joined)
	if len(runes) <= SnippetMaxChars {
		return joined
	}
	return string(runes[:SnippetMaxChars]) + Ellipsis
}
