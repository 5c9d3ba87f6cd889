package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/nodewar/internal/world"
)

// Theme contains the visual styles shared by the watch and runs screens.
type Theme struct {
	Title     lipgloss.Style
	Value     lipgloss.Style
	Dim       lipgloss.Style
	Paused    lipgloss.Style
	Help      lipgloss.Style
	Panel     lipgloss.Style
	Empty     lipgloss.Style
	Neutral   lipgloss.Style
	Claimed   lipgloss.Style
	Contested lipgloss.Style

	// Owners cycle through these in sorted player order.
	Players []lipgloss.Style
}

// DefaultTheme returns the default visual theme.
func DefaultTheme() Theme {
	return Theme{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")),
		Value:     lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Paused:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208")),
		Help:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Panel:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1),
		Empty:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true).Padding(1, 2),
		Neutral:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Claimed:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Contested: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		Players: []lipgloss.Style{
			lipgloss.NewStyle().Foreground(lipgloss.Color("205")), // Hot pink
			lipgloss.NewStyle().Foreground(lipgloss.Color("51")),  // Bright cyan
			lipgloss.NewStyle().Foreground(lipgloss.Color("226")), // Bright yellow
			lipgloss.NewStyle().Foreground(lipgloss.Color("135")), // Medium purple
			lipgloss.NewStyle().Foreground(lipgloss.Color("46")),  // Lime green
		},
	}
}

// Status returns the style for a node status.
func (t Theme) Status(s world.NodeStatus) lipgloss.Style {
	switch s {
	case world.StatusClaimed:
		return t.Claimed
	case world.StatusContested:
		return t.Contested
	default:
		return t.Neutral
	}
}

// Player returns the style of a player given the sorted player list.
func (t Theme) Player(players []string, id string) lipgloss.Style {
	if id == "" || len(t.Players) == 0 {
		return t.Dim
	}
	for i, p := range players {
		if p == id {
			return t.Players[i%len(t.Players)]
		}
	}
	return t.Value
}

// TableStyles returns bubbles table styles matching the theme.
func (t Theme) TableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	return s
}

func centerText(text string, width int) string {
	w := lipgloss.Width(text)
	if w >= width {
		return text
	}
	return strings.Repeat(" ", (width-w)/2) + text
}
