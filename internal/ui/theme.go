package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is a named console palette.
type Theme struct {
	Name string

	Selection     string
	SelectionText string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string
	Ink     string // badge foreground
}

// StatusColor maps a collection status (or "offline") to a palette color.
func (t Theme) StatusColor(status string) string {
	switch status {
	case "idle":
		return t.Faint
	case "loading":
		return t.Info
	case "ready":
		return t.Success
	case "failed":
		return t.Danger
	case "offline":
		return t.Warning
	}
	return ""
}

// Styles holds the lipgloss styles built from a Theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style
	Logo        lipgloss.Style
	Selected    lipgloss.Style

	theme Theme
}

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// Styles returns lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),
		InfoText:    fg(t.Info),
		Logo:        fg(t.Warning).Bold(true),
		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Selection)).
			Foreground(lipgloss.Color(t.SelectionText)),
		theme: t,
	}
}

// StatusStyle renders a status badge.
func (s Styles) StatusStyle(status string) lipgloss.Style {
	color := s.theme.StatusColor(status)
	if color == "" {
		color = s.theme.Muted
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.theme.Ink)).
		Background(lipgloss.Color(color)).
		Padding(0, 1)
}

// Palettes: nightfox.nvim, kanagawa.nvim and the Tailwind slate/sky scale.
var themeList = []Theme{
	{
		Name:      "Nightfox",
		Selection: "#2b3b51", SelectionText: "#cdcecf",
		Text: "#cdcecf", Muted: "#738091", Faint: "#71839b", Accent: "#719cd6",
		Success: "#81b29a", Warning: "#dbc074", Danger: "#c94f6d", Info: "#63cdcf",
		Ink: "#131a24",
	},
	{
		Name:      "Kanagawa",
		Selection: "#2D4F67", SelectionText: "#DCD7BA",
		Text: "#DCD7BA", Muted: "#C8C093", Faint: "#727169", Accent: "#7E9CD8",
		Success: "#98BB6C", Warning: "#E6C384", Danger: "#E46876", Info: "#7FB4CA",
		Ink: "#16161D",
	},
	{
		Name:      "Slate",
		Selection: "#0284c7", SelectionText: "#f8fafc",
		Text: "#f1f5f9", Muted: "#94a3b8", Faint: "#64748b", Accent: "#38bdf8",
		Success: "#22c55e", Warning: "#f59e0b", Danger: "#ef4444", Info: "#06b6d4",
		Ink: "#020617",
	},
}

// GetTheme returns a theme by name, falling back to the first one.
func GetTheme(name string) Theme {
	for _, t := range themeList {
		if t.Name == name {
			return t
		}
	}
	return themeList[0]
}

// NextTheme returns the theme after current in the cycle.
func NextTheme(current string) string {
	for i, t := range themeList {
		if t.Name == current {
			return themeList[(i+1)%len(themeList)].Name
		}
	}
	return themeList[0].Name
}

// ThemeNames returns the available theme names in cycle order.
func ThemeNames() []string {
	names := make([]string, len(themeList))
	for i, t := range themeList {
		names[i] = t.Name
	}
	return names
}
