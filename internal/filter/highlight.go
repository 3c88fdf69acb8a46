package filter

import (
	"unicode"
	"unicode/utf8"

	"github.com/vovakirdan/hackchat-client/internal/chat"
)

// SpecialUser marks someone whose messages get a label and a color.
type SpecialUser struct {
	Nick  string `yaml:"nick,omitempty"`
	Trip  string `yaml:"trip,omitempty"`
	Label string `yaml:"label,omitempty"`
	Color string `yaml:"color"`
}

// Highlight returns the first special user matching m by nick or trip. The
// local user's own messages are never highlighted.
func Highlight(m chat.Message, specials []SpecialUser, self string) (SpecialUser, bool) {
	if m.Nick == self || m.IsSystem() {
		return SpecialUser{}, false
	}
	for _, s := range specials {
		if s.Nick != "" && s.Nick == m.Nick {
			return s, true
		}
		if s.Trip != "" && m.Trip != "" && s.Trip == m.Trip {
			return s, true
		}
	}
	return SpecialUser{}, false
}

// Span is a byte range of text holding "@nick".
type Span struct {
	Start int
	End   int
	Nick  string
}

func mentionStop(r rune) bool {
	switch r {
	case '.', ',', '!', '?', ':', ';':
		return true
	}
	return unicode.IsSpace(r)
}

// MentionSpans finds "@nick" tokens whose nick is present. A nick runs from
// the '@' to the first following punctuation, whitespace, or end of text and
// holds at least one character.
func MentionSpans(text string, present func(nick string) bool) []Span {
	var spans []Span
	i := 0
	for i < len(text) {
		if text[i] != '@' {
			i++
			continue
		}
		start := i
		j := i + 1
		if j >= len(text) {
			break
		}
		// the first character belongs to the nick even if it would stop it
		r, size := utf8.DecodeRuneInString(text[j:])
		if unicode.IsSpace(r) {
			i = j
			continue
		}
		j += size
		for j < len(text) {
			r, size = utf8.DecodeRuneInString(text[j:])
			if mentionStop(r) {
				break
			}
			j += size
		}
		nick := text[start+1 : j]
		if present(nick) {
			spans = append(spans, Span{Start: start, End: j, Nick: nick})
		}
		i = j
	}
	return spans
}
