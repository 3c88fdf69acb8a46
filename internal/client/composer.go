package client

import (
	"unicode/utf8"

	"github.com/vovakirdan/hackchat-client/internal/filter"
)

// Composer is the message draft with its cursor and the mention picker that
// follows it. Cursor positions are rune offsets.
type Composer struct {
	text      string
	cursor    int
	picker    filter.Picker
	dismissed int
}

// NewComposer returns an empty draft.
func NewComposer() Composer {
	return Composer{dismissed: -1}
}

func (c *Composer) Text() string { return c.text }
func (c *Composer) Cursor() int  { return c.cursor }

// Candidates returns the visible mention candidates and the highlighted
// index, or -1 when the picker is closed.
func (c *Composer) Candidates() ([]string, int) {
	if !c.picker.Active() {
		return nil, -1
	}
	return c.picker.Candidates(), c.picker.Index()
}

// Set replaces the draft and recomputes the candidates against nicks.
func (c *Composer) Set(text string, cursor int, nicks []string, self string) {
	n := utf8.RuneCountInString(text)
	if cursor < 0 || cursor > n {
		cursor = n
	}
	c.text = text
	c.cursor = cursor
	c.refresh(nicks, self)
}

// Clear empties the draft.
func (c *Composer) Clear() {
	c.text = ""
	c.cursor = 0
	c.dismissed = -1
	c.picker.Reset()
}

// Handle feeds a key to the picker after matching the candidates against
// nicks. It reports whether the key was consumed; unconsumed keys belong to
// the text editor.
func (c *Composer) Handle(k filter.Key, nicks []string, self string) bool {
	c.refresh(nicks, self)
	switch c.picker.Handle(k) {
	case filter.ActionMove:
		return true
	case filter.ActionCommit:
		nick, _ := c.picker.Selected()
		if q, ok := filter.DetectMention(c.text, c.cursor); ok {
			c.text, c.cursor = filter.Complete(c.text, q, nick)
		}
		c.picker.Reset()
		c.refresh(nicks, self)
		return true
	case filter.ActionDismiss:
		if q, ok := filter.DetectMention(c.text, c.cursor); ok {
			c.dismissed = q.Start
		}
		c.picker.Reset()
		return true
	default:
		return false
	}
}

// Sync recomputes the candidates for the current draft against nicks.
func (c *Composer) Sync(nicks []string, self string) {
	c.refresh(nicks, self)
}

// refresh recomputes the candidate list. A dismissed token stays closed
// until the cursor leaves it.
func (c *Composer) refresh(nicks []string, self string) {
	q, ok := filter.DetectMention(c.text, c.cursor)
	if !ok {
		c.dismissed = -1
		c.picker.Reset()
		return
	}
	if q.Start == c.dismissed {
		c.picker.Reset()
		return
	}
	c.dismissed = -1
	candidates := filter.RankCandidates(nicks, self, q.Query)
	if len(candidates) == 0 {
		c.picker.Reset()
		return
	}
	c.picker.SetCandidates(candidates)
}

func (c *Composer) replace(text string, nicks []string, self string) {
	c.Set(text, utf8.RuneCountInString(text), nicks, self)
}
