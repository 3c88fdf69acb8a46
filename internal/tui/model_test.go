package tui

import (
	"strings"
	"testing"

	"github.com/benbjohnson/clock"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/vovakirdan/hackchat-client/internal/chat"
	"github.com/vovakirdan/hackchat-client/internal/client"
	"github.com/vovakirdan/hackchat-client/internal/filter"
	"github.com/vovakirdan/hackchat-client/internal/session"
	"github.com/vovakirdan/hackchat-client/internal/transport"
)

// idleTransport never connects.
type idleTransport struct{ opened int }

func (t *idleTransport) Open(string, transport.Handler) { t.opened++ }
func (t *idleTransport) Send([]byte) error              { return transport.ErrNotConnected }
func (t *idleTransport) Close() error                   { return nil }

func testModel(t *testing.T) (model, *client.Client, *idleTransport) {
	t.Helper()
	tr := &idleTransport{}
	sess := session.New(tr, session.Config{Clock: clock.NewMock()}, nil)
	c := client.New(sess, nil, nil)
	m := newModel(c, make(chan struct{}), Options{}, nil)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(model), c, tr
}

func typeText(m model, text string) model {
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return updated.(model)
}

func press(m model, k tea.KeyType) (model, tea.Cmd) {
	updated, cmd := m.Update(tea.KeyMsg{Type: k})
	return updated.(model), cmd
}

func TestTypingSyncsDraft(t *testing.T) {
	m, c, _ := testModel(t)
	m = typeText(m, "hello")
	if v := c.View(); v.Draft != "hello" || v.Cursor != 5 {
		t.Fatalf("draft not synced: %q at %d", v.Draft, v.Cursor)
	}
}

func TestEnterWhileNotJoinedShowsError(t *testing.T) {
	m, c, _ := testModel(t)
	m = typeText(m, "hello")
	m, _ = press(m, tea.KeyEnter)
	if !strings.Contains(m.notice, "not joined") {
		t.Fatalf("expected not joined notice, got %q", m.notice)
	}
	if c.View().Draft != "hello" {
		t.Fatalf("draft must survive a failed send")
	}
}

func TestJoinCommand(t *testing.T) {
	m, c, tr := testModel(t)
	m = typeText(m, "/join lab alice")
	m, _ = press(m, tea.KeyEnter)
	if m.notice != "" {
		t.Fatalf("unexpected notice %q", m.notice)
	}
	v := c.View()
	if tr.opened != 1 || v.Credentials.Channel != "lab" || v.Credentials.Nick != "alice" {
		t.Fatalf("join not issued: %+v", v.Credentials)
	}
	if v.Draft != "" || m.input.Value() != "" {
		t.Fatalf("command text left in the draft: %q", v.Draft)
	}
}

func TestQuitCommand(t *testing.T) {
	m, _, _ := testModel(t)
	m = typeText(m, "/quit")
	_, cmd := press(m, tea.KeyEnter)
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestRenderMessage(t *testing.T) {
	v := client.View{
		Credentials: session.Credentials{Nick: "me", Channel: "lab"},
		Users:       []chat.User{{Nick: "me"}, {Nick: "bob"}},
		Specials:    []filter.SpecialUser{{Nick: "bob", Label: "friend", Color: "#00ff00"}},
	}
	line := renderMessage(chat.Message{Nick: "bob", Text: "hi @me", Trip: "abc"}, v)
	for _, want := range []string{"bob", "#abc", "friend", "@me"} {
		if !strings.Contains(line, want) {
			t.Fatalf("rendered line %q missing %q", line, want)
		}
	}

	sys := renderMessage(chat.Message{Nick: chat.SystemNick, Text: "*bob left.*", Kind: chat.KindSystem}, v)
	if !strings.Contains(sys, "bob left.") || strings.Contains(sys, "*") {
		t.Fatalf("unexpected system line %q", sys)
	}
}

func TestNamedHighlightColors(t *testing.T) {
	prev := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.TrueColor)
	t.Cleanup(func() { lipgloss.SetColorProfile(prev) })

	if got := specialColor("Cyan"); got != lipgloss.Color("#06B6D4") {
		t.Fatalf("cyan mapped to %q", got)
	}
	if got := specialColor("#123456"); got != lipgloss.Color("#123456") {
		t.Fatalf("hex must pass through, got %q", got)
	}

	msg := chat.Message{Nick: "bob", Text: "hi"}
	plain := renderMessage(msg, client.View{})
	marked := renderMessage(msg, client.View{Specials: []filter.SpecialUser{{Nick: "bob", Color: "cyan"}}})
	const cyanFg = "38;2;6;182;212"
	if strings.Contains(plain, cyanFg) || !strings.Contains(marked, cyanFg) {
		t.Fatalf("highlight color not applied:\nplain  %q\nmarked %q", plain, marked)
	}
}

func TestRenderPicker(t *testing.T) {
	if renderPicker(client.View{}) != "" {
		t.Fatalf("closed picker must render nothing")
	}
	out := renderPicker(client.View{Candidates: []string{"Alice", "alina"}, Selected: 1})
	if !strings.Contains(out, "@Alice") || !strings.Contains(out, "@alina") {
		t.Fatalf("unexpected picker %q", out)
	}
}
