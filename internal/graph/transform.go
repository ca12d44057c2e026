package graph

import (
	"slices"

	"neron/internal/theme"
)

const (
	baseNodeSize       = 5
	sizePerObservation = 2
	maxNodeSize        = 20
)

// NodeSize maps an observation count to a node size: 2 per observation on a
// base of 5, saturating at 20 (reached at 8 observations).
func NodeSize(observationCount int) int {
	return min(observationCount*sizePerObservation+baseNodeSize, maxNodeSize)
}

// NewVisualNode converts a single entity using the given theme's color table.
func NewVisualNode(e Entity, th theme.Theme) VisualNode {
	return VisualNode{
		ID:           e.Name,
		Name:         e.Name,
		Type:         e.Type,
		Val:          NodeSize(len(e.Observations)),
		Color:        th.NodeColor(e.Type),
		Observations: slices.Clone(e.Observations),
	}
}

// Transform maps a dataset onto renderer nodes and links. It is a straight
// per-element map: output index i always corresponds to input index i, and
// nothing is deduplicated, sorted or validated.
func Transform(ds Dataset, th theme.Theme) GraphData {
	nodes := make([]VisualNode, 0, len(ds.Entities))
	for _, e := range ds.Entities {
		nodes = append(nodes, NewVisualNode(e, th))
	}

	links := make([]VisualLink, 0, len(ds.Relations))
	for _, r := range ds.Relations {
		links = append(links, VisualLink(r))
	}

	return GraphData{Nodes: nodes, Links: links}
}

// Recolor returns a copy of g with node colors resolved against th.
func Recolor(g GraphData, th theme.Theme) GraphData {
	nodes := make([]VisualNode, len(g.Nodes))
	for i, n := range g.Nodes {
		n.Color = th.NodeColor(n.Type)
		nodes[i] = n
	}
	return GraphData{Nodes: nodes, Links: g.Links}
}

// TypeGroup is the set of nodes sharing one type, in first-seen order.
type TypeGroup struct {
	Type  string
	Nodes []VisualNode
}

// NodesByType groups nodes by type. Groups appear in the order their type is
// first seen; nodes keep their relative order inside a group.
func NodesByType(nodes []VisualNode) []TypeGroup {
	var groups []TypeGroup
	pos := make(map[string]int)
	for _, n := range nodes {
		i, ok := pos[n.Type]
		if !ok {
			i = len(groups)
			pos[n.Type] = i
			groups = append(groups, TypeGroup{Type: n.Type})
		}
		groups[i].Nodes = append(groups[i].Nodes, n)
	}
	return groups
}
