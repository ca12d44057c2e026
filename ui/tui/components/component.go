package components

import (
	tea "github.com/charmbracelet/bubbletea"

	"neron/internal/detail"
	"neron/internal/graph"
)

// Component is the interface that all UI components must implement.
type Component interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (tea.Model, tea.Cmd)
	View() string
}

// GraphWidget draws either the whole graph or one node's neighbourhood.
type GraphWidget interface {
	Component
	Resize(w, h int)
	SetGraph(data graph.GraphData)
	SetDetail(d detail.Detail)
	// Nodes reports how many nodes are currently drawn.
	Nodes() int
}

var _ GraphWidget = (*Minimap)(nil)
