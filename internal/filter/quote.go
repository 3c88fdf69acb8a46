package filter

import "strings"

// Quote appends a reply to draft: every line of text quoted with '>', the
// nick on the first quoted line, and a mention to start the answer.
func Quote(draft, nick, text string) string {
	var b strings.Builder
	if draft != "" {
		b.WriteString(draft)
		b.WriteString("\n")
	}
	b.WriteString(">")
	b.WriteString(nick)
	b.WriteString("\n")
	for _, line := range strings.Split(text, "\n") {
		b.WriteString(">")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n@")
	b.WriteString(nick)
	b.WriteString(" ")
	return b.String()
}
