// Package styles derives the lipgloss styles of every page from the active
// color theme.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"neron/internal/theme"
)

// Styles is the full style set for one theme. Rebuild it on theme change.
type Styles struct {
	Theme theme.Theme

	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Subtle    lipgloss.Color
	Border    lipgloss.Color

	Header   lipgloss.Style
	Title    lipgloss.Style
	Card     lipgloss.Style
	Selected lipgloss.Style
	Item     lipgloss.Style
	Copy     lipgloss.Style
	Footer   lipgloss.Style
	Console  lipgloss.Style
	Error    lipgloss.Style
	Warning  lipgloss.Style
	Success  lipgloss.Style
	Status   lipgloss.Style
}

// New builds the styles for th.
func New(th theme.Theme) Styles {
	c := th.Colors
	primary := lipgloss.Color(c.Primary)
	border := lipgloss.Color(c.Border)

	return Styles{
		Theme:     th,
		Primary:   primary,
		Secondary: lipgloss.Color(c.Secondary),
		Subtle:    lipgloss.Color(c.TextSecondary),
		Border:    border,

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(c.Background)).
			Background(primary).
			Padding(1, 2),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(primary),

		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1).
			Margin(0, 1),

		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(c.Text)),

		Item: lipgloss.NewStyle().
			Foreground(lipgloss.Color(c.TextSecondary)),

		Copy: lipgloss.NewStyle().
			Foreground(lipgloss.Color(c.TextSecondary)).
			Italic(true),

		Footer: lipgloss.NewStyle().
			Foreground(lipgloss.Color(c.Accent)).
			PaddingLeft(2),

		Console: lipgloss.NewStyle().
			Foreground(lipgloss.Color(c.ConsoleText)),

		Error:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(c.Error)),
		Warning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(c.Warning)),
		Success: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(c.Success)),
		Status:  lipgloss.NewStyle().Bold(true),
	}
}

// Node returns the style for a node of the given color.
func (s Styles) Node(color string) lipgloss.Style {
	if color == "" {
		color = s.Theme.DefaultNodeColor
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}
