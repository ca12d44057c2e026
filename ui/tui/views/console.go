package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"neron/ui/tui/state"
)

type ConsoleView struct{}

func (v ConsoleView) Render(s state.AppState, props ViewProps) string {
	st := props.Styles
	th := st.Theme
	header := st.Header.Width(props.Width).Render(th.Label("RENDERER CONSOLE", "Console"))

	availableHeight := props.Height - lipgloss.Height(header) - 4
	if availableHeight < 1 {
		availableHeight = 1
	}

	lines := s.ConsoleLogs
	totalLines := len(lines)

	scrollY := props.ScrollY
	if scrollY > totalLines-availableHeight {
		scrollY = totalLines - availableHeight
	}
	if scrollY < 0 {
		scrollY = 0
	}

	end := scrollY + availableHeight
	if end > totalLines {
		end = totalLines
	}

	viewContent := strings.Join(lines[scrollY:end], "\n")
	if totalLines == 0 {
		viewContent = st.Copy.Render(th.Label("NO OUTPUT YET", "No log output yet"))
	}

	box := st.Console.
		Width(max(props.Width-4, 1)).
		Height(availableHeight).
		Padding(0, 1).
		Render(viewContent)

	footerText := fmt.Sprintf("Scroll: %d/%d • Press 'b' to go back", scrollY, totalLines)
	if totalLines > availableHeight {
		footerText += " • Use ↑/↓ to scroll"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.NewStyle().Padding(1, 2).Render(box),
		st.Footer.Render(footerText),
	)
}
