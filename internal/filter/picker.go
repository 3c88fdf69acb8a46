package filter

import "slices"

// Key is an editing key as far as the candidate list is concerned.
type Key int

const (
	KeyOther Key = iota
	KeyUp
	KeyDown
	KeyEnter
	KeyTab
	KeyEscape
)

// Action tells the caller what a key did to the candidate list.
type Action int

const (
	// ActionPass means the key was not consumed and belongs to the editor.
	ActionPass Action = iota
	// ActionMove means the highlight moved.
	ActionMove
	// ActionCommit means the highlighted candidate must be inserted.
	ActionCommit
	// ActionDismiss means the query must be dropped without editing text.
	ActionDismiss
)

// Picker tracks the highlighted entry of a mention candidate list.
type Picker struct {
	candidates []string
	index      int
}

// SetCandidates replaces the list. The highlight stays on the same nick
// while it is listed and resets to the top otherwise.
func (p *Picker) SetCandidates(c []string) {
	if slices.Equal(p.candidates, c) {
		return
	}
	sel, ok := p.Selected()
	p.candidates = append([]string(nil), c...)
	p.index = 0
	if ok {
		if i := slices.Index(p.candidates, sel); i >= 0 {
			p.index = i
		}
	}
}

// Reset empties the list.
func (p *Picker) Reset() {
	p.candidates = nil
	p.index = 0
}

// Active reports whether there is anything to pick from.
func (p *Picker) Active() bool {
	return len(p.candidates) > 0
}

// Candidates returns the current list.
func (p *Picker) Candidates() []string {
	return append([]string(nil), p.candidates...)
}

// Index returns the highlighted position.
func (p *Picker) Index() int {
	return p.index
}

// Selected returns the highlighted candidate.
func (p *Picker) Selected() (string, bool) {
	if !p.Active() {
		return "", false
	}
	return p.candidates[p.index], true
}

// Handle applies a key. With no candidates every key passes through.
func (p *Picker) Handle(k Key) Action {
	if !p.Active() {
		return ActionPass
	}
	n := len(p.candidates)
	switch k {
	case KeyUp:
		p.index = (p.index - 1 + n) % n
		return ActionMove
	case KeyDown:
		p.index = (p.index + 1) % n
		return ActionMove
	case KeyEnter, KeyTab:
		return ActionCommit
	case KeyEscape:
		return ActionDismiss
	default:
		return ActionPass
	}
}
