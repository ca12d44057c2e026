// Package detail derives the node-detail view: incoming and outgoing
// relations for a selected entity and the entities on their other end.
package detail

import (
	"neron/internal/graph"
)

// Index is a name lookup over one dataset. Build it once per load.
type Index struct {
	dataset graph.Dataset
	byName  map[string]int
}

// NewIndex indexes ds by entity name. With duplicate names the first entity
// wins, matching a linear scan.
func NewIndex(ds graph.Dataset) *Index {
	byName := make(map[string]int, len(ds.Entities))
	for i, e := range ds.Entities {
		if _, dup := byName[e.Name]; !dup {
			byName[e.Name] = i
		}
	}
	return &Index{dataset: ds, byName: byName}
}

// Dataset returns the indexed dataset.
func (x *Index) Dataset() graph.Dataset {
	return x.dataset
}

// Lookup resolves an entity by exact name.
func (x *Index) Lookup(name string) (graph.Entity, bool) {
	i, ok := x.byName[name]
	if !ok {
		return graph.Entity{}, false
	}
	return x.dataset.Entities[i], true
}

// Connection is one relation row in the detail view.
type Connection struct {
	Relation graph.Relation
	// PeerName is the endpoint on the other side of the selected node.
	PeerName string
	// Peer is nil when PeerName does not resolve to an entity.
	Peer *graph.Entity
}

// Navigable reports whether following this connection leads anywhere.
func (c Connection) Navigable() bool {
	return c.Peer != nil
}

// Detail is the computed view for one selected node.
type Detail struct {
	Node     graph.VisualNode
	Incoming []Connection
	Outgoing []Connection
}

// TotalConnections counts incoming plus outgoing rows.
func (d Detail) TotalConnections() int {
	return len(d.Incoming) + len(d.Outgoing)
}

// Compute builds the detail view for node. Incoming holds relations targeting
// node.Name and Outgoing those sourced from it, both in dataset order. A
// self-loop shows up in both lists.
func Compute(x *Index, node graph.VisualNode) Detail {
	d := Detail{Node: node}
	for _, r := range x.dataset.Relations {
		if r.Target == node.Name {
			d.Incoming = append(d.Incoming, x.connection(r, r.Source))
		}
		if r.Source == node.Name {
			d.Outgoing = append(d.Outgoing, x.connection(r, r.Target))
		}
	}
	return d
}

func (x *Index) connection(r graph.Relation, peer string) Connection {
	c := Connection{Relation: r, PeerName: peer}
	if e, ok := x.Lookup(peer); ok {
		c.Peer = &e
	}
	return c
}
