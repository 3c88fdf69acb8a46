package filter

import "github.com/vovakirdan/hackchat-client/internal/chat"

// BlockRules is a read-only snapshot of the nicks and tripcodes whose
// messages are hidden.
type BlockRules struct {
	Nicks map[string]struct{}
	Trips map[string]struct{}
}

// NewBlockRules builds a snapshot from plain lists. Empty entries are ignored.
func NewBlockRules(nicks, trips []string) BlockRules {
	r := BlockRules{
		Nicks: make(map[string]struct{}, len(nicks)),
		Trips: make(map[string]struct{}, len(trips)),
	}
	for _, n := range nicks {
		if n != "" {
			r.Nicks[n] = struct{}{}
		}
	}
	for _, t := range trips {
		if t != "" {
			r.Trips[t] = struct{}{}
		}
	}
	return r
}

// Hidden reports whether m must be left out of the visible list.
func (r BlockRules) Hidden(m chat.Message) bool {
	if _, ok := r.Nicks[m.Nick]; ok {
		return true
	}
	if m.Trip != "" {
		if _, ok := r.Trips[m.Trip]; ok {
			return true
		}
	}
	return false
}

// Visible returns the messages not hidden by rules, preserving log order.
func Visible(log []chat.Message, rules BlockRules) []chat.Message {
	out := make([]chat.Message, 0, len(log))
	for _, m := range log {
		if !rules.Hidden(m) {
			out = append(out, m)
		}
	}
	return out
}
