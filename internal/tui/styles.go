package tui

import (
	"hash/fnv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	accent      = lipgloss.Color("#5EEAD4")
	muted       = lipgloss.Color("#9CA3AF")
	borderColor = lipgloss.Color("#374151")

	nickPalette = []lipgloss.Color{
		lipgloss.Color("#EAB308"),
		lipgloss.Color("#A78BFA"),
		lipgloss.Color("#34D399"),
		lipgloss.Color("#F472B6"),
		lipgloss.Color("#60A5FA"),
		lipgloss.Color("#FB923C"),
	}

	sidebarWidth = 22

	chatBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor)

	sidebarStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Width(sidebarWidth)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent)

	pickerStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(accent).
			Padding(0, 1)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#111827")).
				Background(accent)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#1F2937")).
			Foreground(muted).
			Padding(0, 1)

	timeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FDE68A"))
	tripStyle    = lipgloss.NewStyle().Foreground(muted).Faint(true)
	systemStyle  = lipgloss.NewStyle().Foreground(muted).Italic(true)
	mentionStyle = lipgloss.NewStyle().Foreground(accent).Bold(true)
	selfMention  = lipgloss.NewStyle().Background(lipgloss.Color("#3F3F46"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
)

// nickColor picks a stable color for nick.
func nickColor(nick string) lipgloss.Color {
	h := fnv.New32a()
	_, _ = h.Write([]byte(nick))
	return nickPalette[int(h.Sum32()%uint32(len(nickPalette)))]
}

// specialPalette maps the named highlight colors to hex. Other values are
// passed to lipgloss as they are.
var specialPalette = map[string]lipgloss.Color{
	"red":    lipgloss.Color("#EF4444"),
	"orange": lipgloss.Color("#F97316"),
	"gold":   lipgloss.Color("#EAB308"),
	"green":  lipgloss.Color("#22C55E"),
	"cyan":   lipgloss.Color("#06B6D4"),
	"purple": lipgloss.Color("#A855F7"),
}

func specialColor(name string) lipgloss.Color {
	if c, ok := specialPalette[strings.ToLower(strings.TrimSpace(name))]; ok {
		return c
	}
	return lipgloss.Color(name)
}
