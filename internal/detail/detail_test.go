package detail

import (
	"testing"

	"neron/internal/graph"
	"neron/internal/theme"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func abcDataset() graph.Dataset {
	return graph.Dataset{
		Entities: []graph.Entity{
			{Name: "A", Type: "Project"},
			{Name: "B", Type: "Feature"},
			{Name: "C", Type: "Component"},
		},
		Relations: []graph.Relation{
			{Source: "A", Target: "B", RelationType: "x"},
			{Source: "C", Target: "B", RelationType: "y"},
			{Source: "B", Target: "A", RelationType: "z"},
		},
	}
}

func relations(cs []Connection) []graph.Relation {
	out := make([]graph.Relation, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Relation)
	}
	return out
}

func TestCompute_IncomingAndOutgoing(t *testing.T) {
	ds := abcDataset()
	x := NewIndex(ds)
	th := theme.MustGet(theme.Matrix)

	d := Compute(x, graph.NewVisualNode(ds.Entities[1], th))

	assert.Equal(t, []graph.Relation{
		{Source: "A", Target: "B", RelationType: "x"},
		{Source: "C", Target: "B", RelationType: "y"},
	}, relations(d.Incoming))
	assert.Equal(t, []graph.Relation{
		{Source: "B", Target: "A", RelationType: "z"},
	}, relations(d.Outgoing))
	assert.Equal(t, 3, d.TotalConnections())

	assert.Equal(t, "A", d.Incoming[0].PeerName)
	assert.Equal(t, "C", d.Incoming[1].PeerName)
	assert.Equal(t, "A", d.Outgoing[0].PeerName)
	for _, c := range append(d.Incoming, d.Outgoing...) {
		assert.True(t, c.Navigable())
	}
}

func TestCompute_DanglingEndpoint(t *testing.T) {
	ds := abcDataset()
	ds.Relations = append(ds.Relations, graph.Relation{Source: "B", Target: "ghost", RelationType: "refs"})
	x := NewIndex(ds)

	d := Compute(x, graph.VisualNode{ID: "B", Name: "B"})
	require.Len(t, d.Outgoing, 2)

	dangling := d.Outgoing[1]
	assert.Equal(t, "ghost", dangling.PeerName)
	assert.False(t, dangling.Navigable())
	assert.Nil(t, dangling.Peer)

	_, found := x.Lookup("ghost")
	assert.False(t, found)
}

func TestCompute_SelfLoopAppearsBothWays(t *testing.T) {
	ds := graph.Dataset{
		Entities:  []graph.Entity{{Name: "A"}},
		Relations: []graph.Relation{{Source: "A", Target: "A", RelationType: "self"}},
	}
	d := Compute(NewIndex(ds), graph.VisualNode{Name: "A"})
	assert.Len(t, d.Incoming, 1)
	assert.Len(t, d.Outgoing, 1)
}

func TestIndex_FirstDuplicateWins(t *testing.T) {
	ds := graph.Dataset{Entities: []graph.Entity{
		{Name: "dup", Type: "first"},
		{Name: "dup", Type: "second"},
	}}
	e, ok := NewIndex(ds).Lookup("dup")
	require.True(t, ok)
	assert.Equal(t, "first", e.Type)
}

func TestNavigator_ChainedDrillDown(t *testing.T) {
	ds := abcDataset()
	th := theme.MustGet(theme.Regular)
	nav := NewNavigator(NewIndex(ds))

	nav.Open(graph.NewVisualNode(ds.Entities[1], th))
	require.Equal(t, 1, nav.Depth())

	d, ok := nav.Follow("A", th)
	require.True(t, ok)
	assert.Equal(t, "A", d.Node.Name)
	assert.Equal(t, "#3b82f6", d.Node.Color)
	assert.Equal(t, 5, d.Node.Val)

	_, ok = nav.Follow("B", th)
	require.True(t, ok)
	assert.Equal(t, 3, nav.Depth())

	cur, _ := nav.Current()
	assert.Equal(t, "B", cur.Node.Name)

	assert.True(t, nav.Pop())
	cur, _ = nav.Current()
	assert.Equal(t, "A", cur.Node.Name)
}

func TestNavigator_FollowUnknownIsNoop(t *testing.T) {
	nav := NewNavigator(NewIndex(abcDataset()))
	nav.Open(graph.VisualNode{Name: "B"})

	_, ok := nav.Follow("ghost", theme.MustGet(theme.Matrix))
	assert.False(t, ok)
	assert.Equal(t, 1, nav.Depth())
}

func TestNavigator_PopEmpty(t *testing.T) {
	nav := NewNavigator(NewIndex(graph.Dataset{}))
	assert.False(t, nav.Pop())
	_, ok := nav.Current()
	assert.False(t, ok)
}

func TestNavigator_Recolor(t *testing.T) {
	ds := abcDataset()
	nav := NewNavigator(NewIndex(ds))
	nav.Open(graph.NewVisualNode(ds.Entities[0], theme.MustGet(theme.Matrix)))

	nav.Recolor(theme.MustGet(theme.Regular))
	cur, _ := nav.Current()
	assert.Equal(t, "#3b82f6", cur.Node.Color)
}
