package views

import (
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"neron/ui/tui/state"
)

// RetryZone is the mouse zone of the retry buttons.
const RetryZone = "retry"

type LoadingView struct{}

func (v LoadingView) Render(s state.AppState, props ViewProps) string {
	st := props.Styles
	msg := st.Title.Render(st.Theme.Label("LOADING GRAPH DATA...", "Loading graph data..."))
	return lipgloss.Place(props.Width, max(props.Height-4, 3), lipgloss.Center, lipgloss.Center,
		lipgloss.JoinHorizontal(lipgloss.Left, props.SpinnerView, " ", msg))
}

// ErrorView is shown when the dataset could not be loaded.
type ErrorView struct{}

func (v ErrorView) Render(s state.AppState, props ViewProps) string {
	st := props.Styles
	th := st.Theme
	msg := ""
	if s.LoadErr != nil {
		msg = s.LoadErr.Error()
	}
	return renderBlocking(props,
		st.Error.Render(th.Label("DATA LOAD FAILED", "Could not load graph data")),
		msg,
	)
}

// SurfaceErrorView blocks the screen while the render surface is down.
type SurfaceErrorView struct{}

func (v SurfaceErrorView) Render(s state.AppState, props ViewProps) string {
	st := props.Styles
	th := st.Theme
	msg := ""
	if s.BridgeErr != nil {
		msg = s.BridgeErr.Error()
	}
	header := st.Header.Width(props.Width).Render(th.Label("NERON GRAPH VISUALIZATION", "Neron Knowledge Graph"))
	return lipgloss.JoinVertical(lipgloss.Left, header, renderBlocking(props,
		st.Error.Render(th.Label("RENDERER FAILED TO INITIALIZE", "The graph renderer failed to start")),
		msg,
	))
}

func renderBlocking(props ViewProps, title, msg string) string {
	st := props.Styles
	th := st.Theme
	button := st.Card.Render(st.Title.Render(th.Label("[R] RETRY", "Retry (r)")))
	box := lipgloss.JoinVertical(lipgloss.Center,
		title,
		"",
		st.Copy.Render(msg),
		"",
		zone.Mark(RetryZone, button),
		st.Copy.Render(th.Label("[C] CONSOLE • [Q] QUIT", "c console • q quit")),
	)
	return zone.Scan(lipgloss.Place(props.Width, max(props.Height-4, 8), lipgloss.Center, lipgloss.Center, box))
}
