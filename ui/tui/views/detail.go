package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"neron/internal/detail"
	"neron/ui/tui/state"
)

// DetailRows is the selectable connection list: incoming, then outgoing.
func DetailRows(d *detail.Detail) []detail.Connection {
	if d == nil {
		return nil
	}
	rows := make([]detail.Connection, 0, d.TotalConnections())
	rows = append(rows, d.Incoming...)
	return append(rows, d.Outgoing...)
}

// ConnectionZone is the mouse zone of connection row i.
func ConnectionZone(i int) string { return fmt.Sprintf("conn_%d", i) }

type DetailView struct{}

func (v DetailView) Render(s state.AppState, props ViewProps) string {
	st := props.Styles
	th := st.Theme
	if s.Detail == nil {
		return st.Copy.Render(th.Label("NO NODE SELECTED", "No node selected"))
	}
	d := s.Detail
	n := d.Node

	title := fmt.Sprintf("%s  %s", n.Name, st.Copy.Render(fmt.Sprintf("%s • size %d", n.Type, n.Val)))
	header := st.Header.Width(props.Width).Render(th.Label("NODE ", "Node: ") + n.Name)

	crumbs := st.Copy.Render(fmt.Sprintf("depth %d • %s", s.Depth, plural(d.TotalConnections(), "connection")))

	obs := []string{st.Title.Render(fmt.Sprintf("%s (%d)", th.Label("OBSERVATIONS", "Observations"), len(n.Observations)))}
	if len(n.Observations) == 0 {
		obs = append(obs, st.Copy.Render(th.Label("NO OBSERVATIONS", "No observations")))
	}
	for _, o := range n.Observations {
		obs = append(obs, st.Item.Render("• "+o))
	}

	row := 0
	connections := func(label, arrow string, cs []detail.Connection) string {
		lines := []string{st.Title.Render(fmt.Sprintf("%s (%d)", label, len(cs)))}
		if len(cs) == 0 {
			lines = append(lines, st.Copy.Render(th.Label("NONE", "None")))
		}
		for _, c := range cs {
			strength := selection(row, props.AnimCursor)
			style := st.Item
			marker := "  "
			if row == props.Cursor {
				style = st.Selected
				marker = "▸ "
			}

			peer := c.PeerName
			if c.Navigable() {
				peer = st.Node(st.Theme.NodeColor(c.Peer.Type)).Render("●") + " " + style.Render(peer) +
					st.Copy.Render(" ["+c.Peer.Type+"]")
			} else {
				peer = st.Warning.Render("?") + " " + style.Render(peer) +
					st.Copy.Render(th.Label(" [NOT IN DATASET]", " (not in dataset)"))
			}
			line := fmt.Sprintf("%s%s%s %s %s", strings.Repeat(" ", int(strength*2)), marker, arrow, st.Copy.Render(c.Relation.RelationType), peer)
			lines = append(lines, zone.Mark(ConnectionZone(row), line))
			row++
		}
		return strings.Join(lines, "\n")
	}

	incoming := connections(th.Label("INCOMING", "Incoming"), "←", d.Incoming)
	outgoing := connections(th.Label("OUTGOING", "Outgoing"), "→", d.Outgoing)

	left := st.Card.Render(lipgloss.JoinVertical(lipgloss.Left,
		st.Node(n.Color).Bold(true).Render("● ")+title,
		crumbs,
		"",
		strings.Join(obs, "\n"),
		"",
		incoming,
		"",
		outgoing,
	))
	right := st.Card.Render(lipgloss.JoinVertical(lipgloss.Left,
		st.Title.Render(th.Label("NEIGHBOURHOOD", "Neighbourhood")),
		props.MinimapView,
	))

	controls := st.Footer.Render(th.Label(
		"[↑/↓] SELECT • [ENTER] FOLLOW • [B] BACK • [T] THEME • [Q] QUIT",
		"↑/↓ select • enter follow • b back • t theme • q quit",
	))

	return zone.Scan(lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		controls,
	))
}
