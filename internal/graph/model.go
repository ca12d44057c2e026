// Package graph holds the knowledge-graph dataset model and the adapter that
// turns it into the node/link schema the renderer consumes.
package graph

// Entity is a node in the source dataset. Name doubles as its identifier.
type Entity struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Observations []string `json:"observations"`
}

// Relation is a directed, typed edge between two entity names. Endpoints are
// not checked against the entity list.
type Relation struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	RelationType string `json:"relationType"`
}

// Dataset is the immutable input graph.
type Dataset struct {
	Entities  []Entity   `json:"entities"`
	Relations []Relation `json:"relations"`
}

// ImportResult counts what a store accepted from a dataset write. Stores that
// need both endpoints of a relation to exist skip the others and count them.
type ImportResult struct {
	Entities  int `json:"entities"`
	Relations int `json:"relations"`
	Skipped   int `json:"skipped"`
}

// VisualNode is the renderer-facing form of an Entity.
type VisualNode struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Val          int      `json:"val"`
	Color        string   `json:"color,omitempty"`
	Observations []string `json:"observations"`
}

// VisualLink is the renderer-facing form of a Relation. Source and Target stay
// as names; the renderer resolves them to nodes itself.
type VisualLink struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	RelationType string `json:"relationType"`
}

// GraphData is the payload of a loadGraphData message.
type GraphData struct {
	Nodes []VisualNode `json:"nodes"`
	Links []VisualLink `json:"links"`
}

// Dataset rebuilds the source dataset from a transformed graph. Colors and
// sizes are derived values and are dropped.
func (g GraphData) Dataset() Dataset {
	ds := Dataset{
		Entities:  make([]Entity, 0, len(g.Nodes)),
		Relations: make([]Relation, 0, len(g.Links)),
	}
	for _, n := range g.Nodes {
		ds.Entities = append(ds.Entities, Entity{
			Name:         n.Name,
			Type:         n.Type,
			Observations: n.Observations,
		})
	}
	for _, l := range g.Links {
		ds.Relations = append(ds.Relations, Relation(l))
	}
	return ds
}

// Node returns the node with the given id.
func (g GraphData) Node(id string) (VisualNode, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return VisualNode{}, false
}
