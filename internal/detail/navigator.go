package detail

import (
	"neron/internal/graph"
	"neron/internal/theme"
)

// Navigator is the drill-down stack. Every step computes a fresh Detail and
// pushes it; going back pops.
type Navigator struct {
	index *Index
	stack []Detail
}

// NewNavigator returns an empty stack over x.
func NewNavigator(x *Index) *Navigator {
	return &Navigator{index: x}
}

// Index exposes the dataset index the navigator resolves against.
func (n *Navigator) Index() *Index {
	return n.index
}

// Open pushes the detail view for node, as when a node is picked on the
// overview or clicked in the renderer.
func (n *Navigator) Open(node graph.VisualNode) Detail {
	d := Compute(n.index, node)
	n.stack = append(n.stack, d)
	return d
}

// Follow pushes the detail view for the entity called name. It returns false
// and leaves the stack alone when name does not resolve.
func (n *Navigator) Follow(name string, th theme.Theme) (Detail, bool) {
	e, ok := n.index.Lookup(name)
	if !ok {
		return Detail{}, false
	}
	return n.Open(graph.NewVisualNode(e, th)), true
}

// Pop drops the top view. It reports whether anything was removed.
func (n *Navigator) Pop() bool {
	if len(n.stack) == 0 {
		return false
	}
	n.stack = n.stack[:len(n.stack)-1]
	return true
}

// Current returns the top view.
func (n *Navigator) Current() (Detail, bool) {
	if len(n.stack) == 0 {
		return Detail{}, false
	}
	return n.stack[len(n.stack)-1], true
}

// Depth is the number of stacked views.
func (n *Navigator) Depth() int {
	return len(n.stack)
}

// Reset empties the stack.
func (n *Navigator) Reset() {
	n.stack = nil
}

// Recolor re-resolves node colors of every stacked view against th.
func (n *Navigator) Recolor(th theme.Theme) {
	for i := range n.stack {
		n.stack[i].Node.Color = th.NodeColor(n.stack[i].Node.Type)
	}
}
