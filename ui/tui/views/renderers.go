package views

import (
	"neron/internal/bridge"
	"neron/ui/tui/state"
)

// RenderOverview shows the graph screen, or the blocking renderer error when
// the render surface is down.
func RenderOverview(s state.AppState, props ViewProps) string {
	if s.Bridge == bridge.Error {
		return SurfaceErrorView{}.Render(s, props)
	}
	return OverviewView{}.Render(s, props)
}

func RenderDetail(s state.AppState, props ViewProps) string {
	return DetailView{}.Render(s, props)
}

func RenderConsole(s state.AppState, props ViewProps) string {
	return ConsoleView{}.Render(s, props)
}
