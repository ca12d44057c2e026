// Package console prints datasets, checks and node details without the TUI.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"neron/internal/detail"
	"neron/internal/engine"
	"neron/internal/output"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorDim    = "\033[2m"
)

const labelWidth = 22

// Print renders the dataset summary: one section per node type, then the
// checks.
func Print(w io.Writer, title string, view output.SummaryView) {
	fmt.Fprintf(w, "%s■ %s%s  %s\n", colorCyan, title, colorReset, view.Header())

	for _, sec := range view.Sections {
		fmt.Fprintf(w, "%s─ %s%s %s\n", colorCyan, sec.Title, colorReset, swatch(sec.Color))
		for _, it := range sec.Items {
			fmt.Fprintf(w, "  %s%s %6.0f  %s%s%s\n",
				truncate(it.Label, labelWidth), leader(it.Label), it.Value, colorDim, it.Note, colorReset)
		}
	}
	PrintChecks(w, view.Checks)
}

// PrintChecks renders the checks section with status markers.
func PrintChecks(w io.Writer, checks output.Section) {
	fmt.Fprintf(w, "%s─ %s%s\n", colorCyan, checks.Title, colorReset)
	for _, it := range checks.Items {
		val := fmt.Sprintf("%.0f", it.Value)
		if it.Unit == "%" {
			val = fmt.Sprintf("%.1f%%", it.Value)
		}
		line := fmt.Sprintf("  %s%s %8s %s", truncate(it.Label, labelWidth), leader(it.Label), val, statusMarker(it.Status))
		if it.Note != "" {
			line += fmt.Sprintf("  %s%s%s", colorDim, it.Note, colorReset)
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)
}

// PrintDetail renders one node with its observations and both relation lists.
// Peers that do not resolve are marked with "?".
func PrintDetail(w io.Writer, d detail.Detail) {
	n := d.Node
	fmt.Fprintf(w, "%s■ %s%s %s %s(%s, size %d)%s\n", colorCyan, n.Name, colorReset, swatch(n.Color), colorDim, n.Type, n.Val, colorReset)

	fmt.Fprintf(w, "%s─ Observations (%d)%s\n", colorCyan, len(n.Observations), colorReset)
	if len(n.Observations) == 0 {
		fmt.Fprintf(w, "  %snone%s\n", colorDim, colorReset)
	}
	for _, o := range n.Observations {
		fmt.Fprintf(w, "  • %s\n", o)
	}

	printConnections(w, "Incoming", "←", d.Incoming)
	printConnections(w, "Outgoing", "→", d.Outgoing)
	fmt.Fprintf(w, "%s─ Summary%s: %d connections\n\n", colorCyan, colorReset, d.TotalConnections())
}

func printConnections(w io.Writer, title, arrow string, cs []detail.Connection) {
	fmt.Fprintf(w, "%s─ %s (%d)%s\n", colorCyan, title, len(cs), colorReset)
	if len(cs) == 0 {
		fmt.Fprintf(w, "  %snone%s\n", colorDim, colorReset)
	}
	for _, c := range cs {
		peer := c.PeerName
		if !c.Navigable() {
			peer += " " + colorYellow + "?" + colorReset
		} else if c.Peer.Type != "" {
			peer += fmt.Sprintf(" %s[%s]%s", colorDim, c.Peer.Type, colorReset)
		}
		fmt.Fprintf(w, "  %s %s %s\n", arrow, c.Relation.RelationType, peer)
	}
}

func statusMarker(status string) string {
	color := colorFor(status)
	switch status {
	case engine.StatusHealthy:
		return color + "✓" + colorReset
	case engine.StatusWarning:
		return color + "!" + colorReset
	case engine.StatusCritical:
		return color + "X" + colorReset
	}
	return ""
}

func colorFor(status string) string {
	switch status {
	case engine.StatusWarning:
		return colorYellow
	case engine.StatusCritical:
		return colorRed
	default:
		return colorGreen
	}
}

// swatch renders a colored dot for a hex node color.
func swatch(hex string) string {
	if hex == "" {
		return ""
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render("●")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func leader(label string) string {
	pad := labelWidth - len([]rune(label))
	if pad < 1 {
		pad = 1
	}
	return colorCyan + strings.Repeat("·", pad) + colorReset
}
