package views

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"neron/internal/bridge"
	"neron/internal/engine"
	"neron/ui/tui/state"
	"neron/ui/tui/styles"
)

func ColorForStatus(st styles.Styles, status string) lipgloss.Style {
	switch status {
	case engine.StatusWarning:
		return st.Warning
	case engine.StatusCritical:
		return st.Error
	}
	return st.Success
}

// selection is how strongly row i is highlighted while the animated cursor
// travels towards it: 1 on the row, fading to 0 one row away.
func selection(i int, animCursor float64) float64 {
	dist := math.Abs(float64(i) - animCursor)
	if dist >= 1 {
		return 0
	}
	return 1 - dist
}

// BridgeStatus is the one-line render surface indicator.
func BridgeStatus(s state.AppState, st styles.Styles) string {
	th := st.Theme
	switch s.Bridge {
	case bridge.Ready:
		return st.Success.Render(th.Label("● RENDERER ONLINE", "● Renderer ready"))
	case bridge.AssetResolving, bridge.Loading:
		return st.Warning.Render(th.Label("◌ RENDERER "+strings.ToUpper(s.Bridge.String()), "◌ Renderer "+strings.ToLower(s.Bridge.String())))
	case bridge.Error:
		return st.Error.Render(th.Label("✖ RENDERER OFFLINE", "✖ Renderer unavailable"))
	}
	return st.Copy.Render(th.Label("○ RENDERER IDLE", "○ Renderer idle"))
}

// clampWindow returns the [start, end) slice of total lines to show so that
// line focus stays visible in a window of size lines.
func clampWindow(total, focus, size int) (int, int) {
	if size <= 0 || total <= size {
		return 0, total
	}
	start := focus - size/2
	if start < 0 {
		start = 0
	}
	if start+size > total {
		start = total - size
	}
	return start, start + size
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
