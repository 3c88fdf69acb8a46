package filter

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// MentionQuery is the active @-token being typed. Start is the rune offset of
// the '@', End the cursor.
type MentionQuery struct {
	Query string
	Start int
	End   int
}

// DetectMention finds the @-token the cursor is in. cursor is a rune offset
// into text and is clamped to its bounds.
func DetectMention(text string, cursor int) (MentionQuery, bool) {
	runes := []rune(text)
	if cursor > len(runes) {
		cursor = len(runes)
	}
	for i := cursor - 1; i >= 0; i-- {
		r := runes[i]
		if unicode.IsSpace(r) {
			return MentionQuery{}, false
		}
		if r != '@' {
			continue
		}
		if i > 0 && !unicode.IsSpace(runes[i-1]) {
			return MentionQuery{}, false
		}
		return MentionQuery{Query: string(runes[i+1 : cursor]), Start: i, End: cursor}, true
	}
	return MentionQuery{}, false
}

type candidate struct {
	nick   string
	folded string
	prefix bool
}

// RankCandidates returns the nicks that contain query under Unicode case
// folding, excluding self. Prefix matches come first, each group sorted by
// folded nick with the raw nick breaking ties.
func RankCandidates(nicks []string, self, query string) []string {
	fold := cases.Fold()
	q := fold.String(query)

	matches := make([]candidate, 0, len(nicks))
	seen := make(map[string]struct{}, len(nicks))
	for _, nick := range nicks {
		if nick == self {
			continue
		}
		if _, dup := seen[nick]; dup {
			continue
		}
		seen[nick] = struct{}{}
		folded := fold.String(nick)
		if !strings.Contains(folded, q) {
			continue
		}
		matches = append(matches, candidate{nick: nick, folded: folded, prefix: strings.HasPrefix(folded, q)})
	}

	slices.SortFunc(matches, func(a, b candidate) int {
		if a.prefix != b.prefix {
			if a.prefix {
				return -1
			}
			return 1
		}
		if c := strings.Compare(a.folded, b.folded); c != 0 {
			return c
		}
		return strings.Compare(a.nick, b.nick)
	})

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.nick
	}
	return out
}

// Complete replaces the query span with "@nick " and returns the new text
// and the rune offset right after the inserted space.
func Complete(text string, q MentionQuery, nick string) (string, int) {
	runes := []rune(text)
	start, end := q.Start, q.End
	if start < 0 || start > len(runes) {
		start = len(runes)
	}
	if end < start || end > len(runes) {
		end = start
	}
	insert := []rune("@" + nick + " ")

	out := make([]rune, 0, len(runes)-(end-start)+len(insert))
	out = append(out, runes[:start]...)
	out = append(out, insert...)
	out = append(out, runes[end:]...)
	return string(out), start + len(insert)
}

// AppendMention adds "@nick " to the end of draft, separated by a space when
// the draft does not already end in one.
func AppendMention(draft, nick string) string {
	sep := ""
	if draft != "" && !strings.HasSuffix(draft, " ") {
		sep = " "
	}
	return draft + sep + "@" + nick + " "
}
