// Package tui is the terminal front end. It renders client.View and routes
// keys into the client facade; it holds no chat state of its own.
package tui

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/hackchat-client/internal/client"
	"github.com/vovakirdan/hackchat-client/internal/filter"
	applog "github.com/vovakirdan/hackchat-client/internal/log"
)

// Options seeds the first join. An empty nick or channel leaves the user at
// the /join prompt.
type Options struct {
	Nick     string
	Channel  string
	Password string
}

type changedMsg struct{}

type model struct {
	client *client.Client
	log    *zerolog.Logger
	opts   Options
	sub    <-chan struct{}

	width, height int

	chat  viewport.Model
	input textarea.Model

	view     client.View
	notice   string
	showHelp bool
}

func newModel(c *client.Client, sub <-chan struct{}, opts Options, logger *zerolog.Logger) model {
	in := textarea.New()
	in.Placeholder = "Type a message, /join <channel> <nick> or /help"
	in.ShowLineNumbers = false
	in.Prompt = "> "
	in.CharLimit = 0
	in.SetHeight(3)
	in.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")
	in.Focus()

	return model{
		client: c,
		log:    applog.OrNop(logger),
		opts:   opts,
		sub:    sub,
		chat:   viewport.New(80, 20),
		input:  in,
		view:   c.View(),
	}
}

// Run drives the terminal UI until the user quits or ctx ends.
func Run(ctx context.Context, c *client.Client, opts Options, logger *zerolog.Logger) error {
	sub, cancel := c.Subscribe()
	defer cancel()

	p := tea.NewProgram(newModel(c, sub, opts, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func waitForChange(sub <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-sub; !ok {
			return nil
		}
		return changedMsg{}
	}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, waitForChange(m.sub)}
	if m.opts.Nick != "" && m.opts.Channel != "" {
		o := m.opts
		c := m.client
		cmds = append(cmds, func() tea.Msg {
			if err := c.Join(o.Nick, o.Channel, o.Password); err != nil {
				return errMsg{err}
			}
			return nil
		})
	}
	return tea.Batch(cmds...)
}

type errMsg struct{ err error }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refresh()
		return m, nil

	case changedMsg:
		m.refresh()
		return m, waitForChange(m.sub)

	case errMsg:
		m.notice = msg.err.Error()
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if _, ok := msg.(tea.KeyMsg); ok {
		m.syncDraft()
	}
	return m, cmd
}

// handleKey takes the keys that do not belong to the text area.
func (m *model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		_ = m.client.Close()
		return tea.Quit, true
	case "f1":
		m.showHelp = !m.showHelp
		return nil, true
	case "pgup":
		m.chat.HalfPageUp()
		return nil, true
	case "pgdown":
		m.chat.HalfPageDown()
		return nil, true
	}

	if k := pickerKey(msg); k != filter.KeyOther {
		m.syncDraft()
		if m.client.HandleKey(k) {
			m.refresh()
			return nil, true
		}
	}

	if msg.Type == tea.KeyEnter && !msg.Alt {
		return m.submit(), true
	}
	return nil, false
}

func pickerKey(msg tea.KeyMsg) filter.Key {
	switch msg.Type {
	case tea.KeyUp:
		return filter.KeyUp
	case tea.KeyDown:
		return filter.KeyDown
	case tea.KeyEnter:
		if msg.Alt {
			return filter.KeyOther
		}
		return filter.KeyEnter
	case tea.KeyTab:
		return filter.KeyTab
	case tea.KeyEsc:
		return filter.KeyEscape
	default:
		return filter.KeyOther
	}
}

func (m *model) submit() tea.Cmd {
	text := m.input.Value()
	m.notice = ""

	if client.IsCommand(text) {
		m.client.SetDraft("", 0)
		if strings.TrimSpace(text) == "/help" {
			m.showHelp = !m.showHelp
			m.refresh()
			return nil
		}
		err := client.RunCommand(m.client, text)
		if errors.Is(err, client.ErrQuit) {
			_ = m.client.Close()
			return tea.Quit
		}
		if err != nil {
			m.notice = err.Error()
			m.log.Debug().Err(err).Str("command", text).Msg("command failed")
		}
		m.refresh()
		return nil
	}

	if strings.HasPrefix(text, "//") {
		m.client.SetDraft(text[1:], -1)
	}
	if err := m.client.SendDraft(); err != nil {
		m.notice = err.Error()
	}
	m.refresh()
	return nil
}

// syncDraft pushes the text area into the client so mention candidates
// follow the cursor.
func (m *model) syncDraft() {
	m.client.SetDraft(m.input.Value(), textareaCursor(m.input))
	m.view = m.client.View()
}

// textareaCursor converts the text area position into a rune offset.
func textareaCursor(in textarea.Model) int {
	lines := strings.Split(in.Value(), "\n")
	row := in.Line()
	if row >= len(lines) {
		return utf8.RuneCountInString(in.Value())
	}
	offset := 0
	for _, l := range lines[:row] {
		offset += utf8.RuneCountInString(l) + 1
	}
	li := in.LineInfo()
	col := li.StartColumn + li.ColumnOffset
	if n := utf8.RuneCountInString(lines[row]); col > n {
		col = n
	}
	return offset + col
}

// setTextarea loads draft into the text area with the cursor at a rune offset.
func setTextarea(in *textarea.Model, draft string, cursor int) {
	in.SetValue(draft)
	lines := strings.Split(draft, "\n")
	row, col := 0, cursor
	for row < len(lines)-1 {
		n := utf8.RuneCountInString(lines[row]) + 1
		if col < n {
			break
		}
		col -= n
		row++
	}
	for in.Line() > row {
		in.CursorUp()
	}
	in.SetCursor(col)
}

// refresh pulls a fresh view and re-renders the panes.
func (m *model) refresh() {
	m.view = m.client.View()
	if m.view.Draft != m.input.Value() {
		setTextarea(&m.input, m.view.Draft, m.view.Cursor)
	}
	atBottom := m.chat.AtBottom()
	m.chat.SetContent(lipgloss.NewStyle().Width(m.chat.Width).Render(renderLog(m.view)))
	if atBottom {
		m.chat.GotoBottom()
	}
}

func (m *model) resize(w, h int) {
	m.width, m.height = w, h
	inputHeight := 3 + 2
	statusHeight := 1
	chatHeight := h - inputHeight - statusHeight - 2
	if chatHeight < 3 {
		chatHeight = 3
	}
	chatWidth := w - (sidebarWidth + 2) - 2
	if chatWidth < 20 {
		chatWidth = 20
	}
	m.chat.Width = chatWidth
	m.chat.Height = chatHeight
	m.input.SetWidth(w - 4)
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return inputBoxStyle.Width(m.width - 4).Padding(1, 2).Render(client.HelpText)
	}

	chatBox := chatBoxStyle.Width(m.chat.Width).Height(m.chat.Height).Render(m.chat.View())
	users := sidebarStyle.Height(m.chat.Height).Render(renderUsers(m.view))
	row := lipgloss.JoinHorizontal(lipgloss.Top, chatBox, users)

	parts := []string{row}
	if picker := renderPicker(m.view); picker != "" {
		parts = append(parts, picker)
	}
	parts = append(parts, inputBoxStyle.Width(m.width-2).Render(m.input.View()))

	status := statusText(m.view)
	if m.notice != "" {
		status += " • " + errorStyle.Render(m.notice)
	}
	parts = append(parts, statusBarStyle.Width(m.width).Render(status))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
