package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/hackchat-client/internal/chat"
	"github.com/vovakirdan/hackchat-client/internal/client"
	"github.com/vovakirdan/hackchat-client/internal/filter"
)

// renderMessage formats one log line.
func renderMessage(m chat.Message, v client.View) string {
	ts := timeStyle.Render(m.CreatedAt().Format("15:04"))
	if m.IsSystem() {
		return ts + " " + systemStyle.Render(strings.Trim(m.Text, "*"))
	}

	nick := lipgloss.NewStyle().Bold(true).Foreground(nickColor(m.Nick))
	label := ""
	if special, ok := filter.Highlight(m, v.Specials, v.Self()); ok {
		color := specialColor(special.Color)
		nick = nick.Foreground(color)
		if special.Label != "" {
			label = labelStyle.Foreground(color).Render(special.Label)
		}
	}

	head := ts + " " + label + nick.Render(m.Nick)
	if m.Role != chat.RoleNormal {
		head += tripStyle.Render(" [" + m.Role.String() + "]")
	}
	if m.Trip != "" {
		head += tripStyle.Render(" #" + m.Trip)
	}

	body := highlightMentions(m.Text, v)
	line := head + ": " + body
	if mentionsSelf(m.Text, v) {
		line = selfMention.Render(line)
	}
	return line
}

// highlightMentions styles every @nick of a present user.
func highlightMentions(text string, v client.View) string {
	spans := filter.MentionSpans(text, v.Present)
	if len(spans) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, s := range spans {
		b.WriteString(text[last:s.Start])
		b.WriteString(mentionStyle.Render(text[s.Start:s.End]))
		last = s.End
	}
	b.WriteString(text[last:])
	return b.String()
}

func mentionsSelf(text string, v client.View) bool {
	self := v.Self()
	if self == "" {
		return false
	}
	for _, s := range filter.MentionSpans(text, v.Present) {
		if s.Nick == self {
			return true
		}
	}
	return false
}

// renderLog joins every visible message.
func renderLog(v client.View) string {
	lines := make([]string, 0, len(v.Messages)+1)
	for _, m := range v.Messages {
		lines = append(lines, renderMessage(m, v))
	}
	if v.Hidden > 0 {
		lines = append(lines, systemStyle.Render(fmt.Sprintf("%d message(s) hidden by block rules", v.Hidden)))
	}
	return strings.Join(lines, "\n")
}

// renderUsers lists the roster in join order.
func renderUsers(v client.View) string {
	lines := make([]string, 0, len(v.Users)+1)
	lines = append(lines, lipgloss.NewStyle().Foreground(accent).Bold(true).Render(fmt.Sprintf("Online (%d)", len(v.Users))))
	for _, u := range v.Users {
		style := lipgloss.NewStyle().Foreground(nickColor(u.Nick))
		if u.Nick == v.Self() {
			style = style.Underline(true)
		}
		name := style.Render(u.Nick)
		if u.Role != chat.RoleNormal {
			name += tripStyle.Render(" " + u.Role.String())
		}
		lines = append(lines, name)
	}
	return strings.Join(lines, "\n")
}

// renderPicker shows the mention candidates, or "" when closed.
func renderPicker(v client.View) string {
	if len(v.Candidates) == 0 {
		return ""
	}
	items := make([]string, len(v.Candidates))
	for i, c := range v.Candidates {
		if i == v.Selected {
			items[i] = pickerSelectedStyle.Render("@" + c)
		} else {
			items[i] = "@" + c
		}
	}
	return pickerStyle.Render(strings.Join(items, "  "))
}

func statusText(v client.View) string {
	where := "not connected"
	if v.Credentials.Channel != "" {
		where = "?" + v.Credentials.Channel + " as " + v.Credentials.Nick
	}
	text := v.Status.String() + " • " + where
	if v.Err != nil {
		text += " • " + errorStyle.Render(v.Err.Error())
	}
	return text
}
