package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"neron/internal/graph"
	"neron/internal/output"
	"neron/ui/tui/state"
)

// OverviewRows is the selectable node list of the overview: every node,
// grouped by type in first-seen order.
func OverviewRows(p *output.PipelinePayload) []graph.VisualNode {
	if p == nil {
		return nil
	}
	rows := make([]graph.VisualNode, 0, len(p.Graph.Nodes))
	for _, g := range graph.NodesByType(p.Graph.Nodes) {
		rows = append(rows, g.Nodes...)
	}
	return rows
}

// NodeZone is the mouse zone of overview row i.
func NodeZone(i int) string { return fmt.Sprintf("node_%d", i) }

type OverviewView struct{}

func (v OverviewView) Render(s state.AppState, props ViewProps) string {
	st := props.Styles
	th := st.Theme

	header := st.Header.Width(props.Width).Render(th.Label("NERON GRAPH VISUALIZATION", "Neron Knowledge Graph"))

	if s.LoadErr != nil && !s.HasData() {
		return lipgloss.JoinVertical(lipgloss.Left, header, ErrorView{}.Render(s, props))
	}
	if !s.HasData() {
		return lipgloss.JoinVertical(lipgloss.Left, header, LoadingView{}.Render(s, props))
	}

	summary := s.Payload.Summary
	statusLine := lipgloss.JoinHorizontal(lipgloss.Left,
		props.SpinnerView, " ",
		st.Title.Render(summary.Header()), "  ",
		BridgeStatus(s, st), "  ",
		st.Copy.Render(s.Source),
	)

	var banner string
	if s.RenderErr != "" {
		banner = st.Error.Render(th.Label("RENDER ERROR: ", "Render error: ")+s.RenderErr) +
			st.Copy.Render(th.Label("  [R] RETRY", "  Press r to retry"))
	}
	if s.LoadErr != nil {
		banner = st.Warning.Render(th.Label("RELOAD FAILED: ", "Reload failed: ") + s.LoadErr.Error())
	}

	listHeight := props.Height - 12
	if listHeight < 5 {
		listHeight = 5
	}
	list := v.renderList(s.Payload, props, listHeight)

	checks := renderChecks(summary.Checks, props)
	side := lipgloss.JoinVertical(lipgloss.Left,
		st.Card.Render(lipgloss.JoinVertical(lipgloss.Left,
			st.Title.Render(th.Label("TOPOLOGY", "Map")),
			props.MinimapView,
		)),
		st.Card.Render(checks),
	)

	body := lipgloss.JoinHorizontal(lipgloss.Top, st.Card.Render(list), side)

	controls := st.Footer.Render(th.Label(
		"[↑/↓] NAVIGATE • [ENTER] INSPECT • [T] THEME • [C] CONSOLE • [Q] QUIT",
		"↑/↓ navigate • enter inspect • t theme • c console • q quit",
	))

	parts := []string{header, statusLine}
	if banner != "" {
		parts = append(parts, banner)
	}
	parts = append(parts, body, controls)
	return zone.Scan(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (v OverviewView) renderList(p *output.PipelinePayload, props ViewProps, height int) string {
	st := props.Styles

	var lines []string
	focusLine := 0
	row := 0
	for _, sec := range p.Summary.Sections {
		title := fmt.Sprintf("%s (%d)", sec.Title, len(sec.Items))
		lines = append(lines, st.Node(sec.Color).Bold(true).Render("■ "+title))
		for _, it := range sec.Items {
			strength := selection(row, props.AnimCursor)
			popOut := int(strength * 2)

			style := st.Item
			marker := "  "
			if row == props.Cursor {
				style = st.Selected
				marker = "▸ "
				focusLine = len(lines)
			}
			label := fmt.Sprintf("%s%s%s %s", strings.Repeat(" ", popOut), marker,
				st.Node(it.Color).Render("●"), style.Render(it.Label))
			note := st.Copy.Render("  " + it.Note)
			lines = append(lines, zone.Mark(NodeZone(row), label+note))
			row++
		}
	}

	start, end := clampWindow(len(lines), focusLine, height)
	return strings.Join(lines[start:end], "\n")
}

func renderChecks(sec output.Section, props ViewProps) string {
	st := props.Styles
	lines := []string{st.Title.Render(st.Theme.Label("DIAGNOSTICS", "Checks"))}
	for _, it := range sec.Items {
		val := fmt.Sprintf("%.0f", it.Value)
		if it.Unit == "%" {
			val = fmt.Sprintf("%.1f%%", it.Value)
		}
		line := fmt.Sprintf("%-20s %7s %s", it.Label, val, ColorForStatus(st, it.Status).Render(it.Status))
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
