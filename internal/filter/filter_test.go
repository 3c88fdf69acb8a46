package filter

import (
	"reflect"
	"testing"

	"github.com/vovakirdan/hackchat-client/internal/chat"
)

func TestVisibleHidesBlockedNickAnywhere(t *testing.T) {
	log := []chat.Message{
		{Nick: "troll", Text: "first"},
		{Nick: "alice", Text: "hi"},
		{Nick: "troll", Text: "middle"},
		{Nick: "bob", Text: "yo", Trip: "BobTrip"},
		{Nick: "troll", Text: "last"},
	}

	blocked := Visible(log, NewBlockRules([]string{"troll"}, nil))
	if got := texts(blocked); !reflect.DeepEqual(got, []string{"hi", "yo"}) {
		t.Fatalf("unexpected visible list %v", got)
	}

	restored := Visible(log, NewBlockRules(nil, nil))
	if !reflect.DeepEqual(restored, log) {
		t.Fatalf("unblocking must restore the original order, got %v", texts(restored))
	}
}

func TestVisibleHidesBlockedTrip(t *testing.T) {
	log := []chat.Message{
		{Nick: "anon1", Trip: "EvilTr"},
		{Nick: "anon2"},
		{Nick: "anon3", Trip: "GoodTr"},
	}
	got := Visible(log, NewBlockRules(nil, []string{"EvilTr", ""}))
	if len(got) != 2 || got[0].Nick != "anon2" || got[1].Nick != "anon3" {
		t.Fatalf("unexpected visible list %+v", got)
	}
}

func TestDetectMention(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		cursor int
		want   MentionQuery
		ok     bool
	}{
		{"query at end", "hello @ali", 10, MentionQuery{Query: "ali", Start: 6, End: 10}, true},
		{"no preceding whitespace", "a@b", 3, MentionQuery{}, false},
		{"bare at sign", "@", 1, MentionQuery{Query: "", Start: 0, End: 1}, true},
		{"cursor before at sign", "@", 0, MentionQuery{}, false},
		{"whitespace after at", "hi @bob there", 13, MentionQuery{}, false},
		{"cursor inside token", "hi @bobby", 6, MentionQuery{Query: "bo", Start: 3, End: 6}, true},
		{"newline counts as whitespace", "line\n@ca", 8, MentionQuery{Query: "ca", Start: 5, End: 8}, true},
		{"multibyte runes", "привет @ан", 10, MentionQuery{Query: "ан", Start: 7, End: 10}, true},
		{"cursor past end is clamped", "@x", 99, MentionQuery{Query: "x", Start: 0, End: 2}, true},
		{"empty text", "", 0, MentionQuery{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DetectMention(tt.text, tt.cursor)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("DetectMention(%q, %d) = %+v, %v; want %+v, %v", tt.text, tt.cursor, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestRankCandidates(t *testing.T) {
	roster := []string{"Alice", "alina", "Bob"}
	if got := RankCandidates(roster, "", "al"); !reflect.DeepEqual(got, []string{"Alice", "alina"}) {
		t.Fatalf("unexpected order %v", got)
	}

	roster = []string{"kal", "alex", "me", "Sal", "ALF", "zed"}
	got := RankCandidates(roster, "me", "AL")
	want := []string{"alex", "ALF", "kal", "Sal"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	if got := RankCandidates(roster, "me", ""); len(got) != 5 {
		t.Fatalf("empty query should match everyone but self, got %v", got)
	}
	if got := RankCandidates([]string{"me"}, "me", "m"); len(got) != 0 {
		t.Fatalf("self must be excluded, got %v", got)
	}
}

func TestRankCandidatesUsesCaseFolding(t *testing.T) {
	got := RankCandidates([]string{"ΟΔΥΣΣΕΥΣ", "Bob"}, "", "οδυσσευς")
	if len(got) != 1 || got[0] != "ΟΔΥΣΣΕΥΣ" {
		t.Fatalf("folded match expected, got %v", got)
	}
}

func TestComplete(t *testing.T) {
	text := "hey @al how are you"
	q, ok := DetectMention(text, 7)
	if !ok {
		t.Fatalf("expected query")
	}
	got, cursor := Complete(text, q, "alice")
	if got != "hey @alice  how are you" {
		t.Fatalf("unexpected completion %q", got)
	}
	if cursor != 11 {
		t.Fatalf("unexpected cursor %d", cursor)
	}

	got, cursor = Complete("@", MentionQuery{Start: 0, End: 1}, "bob")
	if got != "@bob " || cursor != 5 {
		t.Fatalf("unexpected completion %q cursor %d", got, cursor)
	}
}

func TestAppendMention(t *testing.T) {
	tests := []struct{ draft, want string }{
		{"", "@bob "},
		{"hi", "hi @bob "},
		{"hi ", "hi @bob "},
	}
	for _, tt := range tests {
		if got := AppendMention(tt.draft, "bob"); got != tt.want {
			t.Errorf("AppendMention(%q) = %q, want %q", tt.draft, got, tt.want)
		}
	}
}

func TestPickerKeyboardContract(t *testing.T) {
	var p Picker
	if a := p.Handle(KeyDown); a != ActionPass {
		t.Fatalf("empty picker must pass keys through, got %v", a)
	}

	p.SetCandidates([]string{"a", "b", "c"})
	if a := p.Handle(KeyUp); a != ActionMove {
		t.Fatalf("expected move, got %v", a)
	}
	if sel, _ := p.Selected(); sel != "c" {
		t.Fatalf("up from top should wrap to bottom, got %q", sel)
	}
	p.Handle(KeyDown)
	if sel, _ := p.Selected(); sel != "a" {
		t.Fatalf("down from bottom should wrap to top, got %q", sel)
	}
	p.Handle(KeyDown)

	// same list keeps the highlight, a new one resets it
	p.SetCandidates([]string{"a", "b", "c"})
	if p.Index() != 1 {
		t.Fatalf("highlight lost on identical list")
	}
	p.SetCandidates([]string{"x", "b", "c"})
	if sel, _ := p.Selected(); sel != "b" {
		t.Fatalf("highlight should follow b, got %q", sel)
	}
	p.SetCandidates([]string{"c", "d"})
	if p.Index() != 0 {
		t.Fatalf("highlight not reset when the nick left the list")
	}

	for _, k := range []Key{KeyEnter, KeyTab} {
		if a := p.Handle(k); a != ActionCommit {
			t.Fatalf("key %v: expected commit, got %v", k, a)
		}
	}
	if a := p.Handle(KeyEscape); a != ActionDismiss {
		t.Fatalf("expected dismiss, got %v", a)
	}
	if a := p.Handle(KeyOther); a != ActionPass {
		t.Fatalf("expected pass, got %v", a)
	}
}

func TestQuote(t *testing.T) {
	if got := Quote("", "bob", "hello"); got != ">bob\n>hello\n\n@bob " {
		t.Fatalf("unexpected quote %q", got)
	}
	if got := Quote("draft", "bob", "a\nb"); got != "draft\n>bob\n>a\n>b\n\n@bob " {
		t.Fatalf("unexpected quote %q", got)
	}
}

func TestHighlight(t *testing.T) {
	specials := []SpecialUser{
		{Nick: "friend", Label: " [pal]", Color: "gold"},
		{Trip: "TrIp01", Color: "cyan"},
	}

	if s, ok := Highlight(chat.Message{Nick: "friend"}, specials, "me"); !ok || s.Color != "gold" {
		t.Fatalf("nick match expected, got %+v %v", s, ok)
	}
	if s, ok := Highlight(chat.Message{Nick: "other", Trip: "TrIp01"}, specials, "me"); !ok || s.Color != "cyan" {
		t.Fatalf("trip match expected, got %+v %v", s, ok)
	}
	if _, ok := Highlight(chat.Message{Nick: "friend"}, specials, "friend"); ok {
		t.Fatalf("own messages must not be highlighted")
	}
	if _, ok := Highlight(chat.Message{Nick: "nobody"}, specials, "me"); ok {
		t.Fatalf("unexpected highlight")
	}
}

func TestMentionSpans(t *testing.T) {
	present := func(n string) bool { return n == "bob" || n == "alice" }

	text := "hi @bob, and @alice! not @carol or a@bob"
	spans := MentionSpans(text, present)
	var nicks []string
	for _, s := range spans {
		if text[s.Start:s.End] != "@"+s.Nick {
			t.Fatalf("span %+v does not cover %q", s, "@"+s.Nick)
		}
		nicks = append(nicks, s.Nick)
	}
	if !reflect.DeepEqual(nicks, []string{"bob", "alice", "bob"}) {
		t.Fatalf("unexpected mentions %v", nicks)
	}

	if spans := MentionSpans("@ @", present); len(spans) != 0 {
		t.Fatalf("bare at signs are not mentions: %+v", spans)
	}
	if spans := MentionSpans("trailing @", present); len(spans) != 0 {
		t.Fatalf("trailing at sign is not a mention: %+v", spans)
	}
}

func texts(msgs []chat.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}
