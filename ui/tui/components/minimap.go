package components

import (
	"math"

	"github.com/NimbleMarkets/ntcharts/canvas"
	"github.com/NimbleMarkets/ntcharts/linechart"
	tea "github.com/charmbracelet/bubbletea"

	"neron/internal/detail"
	"neron/internal/graph"
)

// Plot space of the minimap; positions are laid out in [0, mapSize].
const (
	mapSize   = 100.0
	mapMargin = 8.0
	markSize  = 1.5
)

// Minimap draws a flat braille sketch of a graph: nodes on a circle, links
// as straight lines. The live 3D view belongs to the renderer; this is only
// an orientation aid inside the terminal.
type Minimap struct {
	Chart  linechart.Model
	Width  int
	Height int

	positions map[string]canvas.Float64Point
	links     [][2]string
}

func NewMinimap(width, height int) *Minimap {
	return &Minimap{
		Chart:  linechart.New(width, height, 0, mapSize, 0, mapSize),
		Width:  width,
		Height: height,
	}
}

func (m *Minimap) Init() tea.Cmd {
	return nil
}

func (m *Minimap) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

func (m *Minimap) Resize(w, h int) {
	if w < 4 || h < 2 {
		return
	}
	m.Width = w
	m.Height = h
	m.Chart.Resize(w, h)
}

// SetGraph lays the whole graph out on a circle in dataset order. Links with
// an endpoint outside the node list are not drawn.
func (m *Minimap) SetGraph(data graph.GraphData) {
	m.positions = make(map[string]canvas.Float64Point, len(data.Nodes))
	n := len(data.Nodes)
	radius := mapSize/2 - mapMargin
	for i, node := range data.Nodes {
		if _, dup := m.positions[node.ID]; dup {
			continue
		}
		p := canvas.Float64Point{X: mapSize / 2, Y: mapSize / 2}
		if n > 1 {
			angle := 2 * math.Pi * float64(i) / float64(n)
			p.X += radius * math.Cos(angle)
			p.Y += radius * math.Sin(angle)
		}
		m.positions[node.ID] = p
	}

	m.links = m.links[:0]
	for _, l := range data.Links {
		m.links = append(m.links, [2]string{l.Source, l.Target})
	}
}

// SetDetail lays out the neighbourhood of one node: the node in the middle,
// incoming peers on the left, outgoing peers on the right.
func (m *Minimap) SetDetail(d detail.Detail) {
	center := canvas.Float64Point{X: mapSize / 2, Y: mapSize / 2}
	m.positions = map[string]canvas.Float64Point{d.Node.Name: center}
	m.links = m.links[:0]

	column := func(cs []detail.Connection, x float64, incoming bool) {
		for i, c := range cs {
			y := mapSize / 2
			if len(cs) > 1 {
				y = mapMargin + (mapSize-2*mapMargin)*float64(i)/float64(len(cs)-1)
			}
			if _, placed := m.positions[c.PeerName]; !placed {
				m.positions[c.PeerName] = canvas.Float64Point{X: x, Y: y}
			}
			if incoming {
				m.links = append(m.links, [2]string{c.PeerName, d.Node.Name})
			} else {
				m.links = append(m.links, [2]string{d.Node.Name, c.PeerName})
			}
		}
	}
	column(d.Incoming, mapMargin, true)
	column(d.Outgoing, mapSize-mapMargin, false)
}

// Nodes is the number of positioned nodes.
func (m *Minimap) Nodes() int {
	return len(m.positions)
}

func (m *Minimap) View() string {
	m.Chart.Clear()
	for _, l := range m.links {
		from, okFrom := m.positions[l[0]]
		to, okTo := m.positions[l[1]]
		if !okFrom || !okTo || from == to {
			continue
		}
		m.Chart.DrawBrailleLine(from, to)
	}
	for _, p := range m.positions {
		m.Chart.DrawBrailleLine(
			canvas.Float64Point{X: p.X - markSize, Y: p.Y},
			canvas.Float64Point{X: p.X + markSize, Y: p.Y},
		)
		m.Chart.DrawBrailleLine(
			canvas.Float64Point{X: p.X, Y: p.Y - markSize},
			canvas.Float64Point{X: p.X, Y: p.Y + markSize},
		)
	}
	return m.Chart.View()
}
