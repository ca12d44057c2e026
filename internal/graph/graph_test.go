package graph

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"neron/internal/theme"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeSize(t *testing.T) {
	tests := []struct {
		observations int
		want         int
	}{
		{0, 5},
		{1, 7},
		{3, 11},
		{7, 19},
		{8, 20},
		{10, 20},
		{100, 20},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NodeSize(tt.observations), "observations=%d", tt.observations)
	}
}

func TestTransform_SizeFormulaHoldsForEveryEntity(t *testing.T) {
	ds := Dataset{}
	for i := 0; i < 12; i++ {
		ds.Entities = append(ds.Entities, Entity{
			Name:         strings.Repeat("n", i+1),
			Observations: make([]string, i),
		})
	}

	g := Transform(ds, theme.MustGet(theme.Matrix))
	for i, n := range g.Nodes {
		assert.Equal(t, min(len(ds.Entities[i].Observations)*2+5, 20), n.Val)
	}
}

func TestTransform_PreservesOrderAndFields(t *testing.T) {
	ds := Dataset{
		Entities: []Entity{
			{Name: "zeta", Type: "Feature", Observations: []string{"a"}},
			{Name: "alpha", Type: "Project"},
			{Name: "alpha", Type: "Project"},
		},
		Relations: []Relation{
			{Source: "zeta", Target: "alpha", RelationType: "uses"},
			{Source: "alpha", Target: "ghost", RelationType: "refs"},
		},
	}

	g := Transform(ds, theme.MustGet(theme.Regular))

	require.Len(t, g.Nodes, 3)
	require.Len(t, g.Links, 2)
	for i, e := range ds.Entities {
		assert.Equal(t, e.Name, g.Nodes[i].ID)
		assert.Equal(t, e.Name, g.Nodes[i].Name)
		assert.Equal(t, e.Type, g.Nodes[i].Type)
	}
	assert.Equal(t, VisualLink{Source: "alpha", Target: "ghost", RelationType: "refs"}, g.Links[1])
	assert.Equal(t, "#10b981", g.Nodes[0].Color)
	assert.Equal(t, "#3b82f6", g.Nodes[1].Color)
}

func TestTransform_Idempotent(t *testing.T) {
	ds := DemoDataset()
	th := theme.MustGet(theme.Matrix)
	assert.Equal(t, Transform(ds, th), Transform(ds, th))
}

func TestTransform_UnknownTypeUsesThemeDefault(t *testing.T) {
	ds := Dataset{Entities: []Entity{{Name: "x", Type: "Mystery"}}}
	for _, th := range theme.All() {
		g := Transform(ds, th)
		assert.Equal(t, th.DefaultNodeColor, g.Nodes[0].Color)
	}
}

func TestTransform_DoesNotAliasObservations(t *testing.T) {
	ds := Dataset{Entities: []Entity{{Name: "x", Observations: []string{"orig"}}}}
	g := Transform(ds, theme.MustGet(theme.Matrix))
	g.Nodes[0].Observations[0] = "changed"
	assert.Equal(t, "orig", ds.Entities[0].Observations[0])
}

func TestTransform_DemoScenario(t *testing.T) {
	g := Transform(DemoDataset(), theme.MustGet(theme.Matrix))

	require.Len(t, g.Nodes, 4)
	require.Len(t, g.Links, 3)
	for i, id := range []string{"node1", "node2", "node3", "node4"} {
		assert.Equal(t, id, g.Nodes[i].ID)
		assert.Equal(t, id, g.Nodes[i].Name)
	}
}

func TestGraphData_DatasetRoundTrip(t *testing.T) {
	ds := DemoDataset()
	got := Transform(ds, theme.MustGet(theme.Regular)).Dataset()
	assert.Equal(t, ds.Relations, got.Relations)
	for i := range ds.Entities {
		assert.Equal(t, ds.Entities[i].Name, got.Entities[i].Name)
		assert.Equal(t, ds.Entities[i].Type, got.Entities[i].Type)
		assert.Equal(t, len(ds.Entities[i].Observations), len(got.Entities[i].Observations))
	}
}

func TestRecolor(t *testing.T) {
	g := Transform(DemoDataset(), theme.MustGet(theme.Matrix))
	r := Recolor(g, theme.MustGet(theme.Regular))
	assert.Equal(t, "#3b82f6", r.Nodes[0].Color)
	assert.Equal(t, "#00FF41", g.Nodes[0].Color)
}

func TestNodesByType(t *testing.T) {
	nodes := []VisualNode{
		{ID: "a", Type: "Feature"},
		{ID: "b", Type: "Project"},
		{ID: "c", Type: "Feature"},
	}
	groups := NodesByType(nodes)
	require.Len(t, groups, 2)
	assert.Equal(t, "Feature", groups[0].Type)
	assert.Equal(t, []string{"a", "c"}, []string{groups[0].Nodes[0].ID, groups[0].Nodes[1].ID})
	assert.Equal(t, "Project", groups[1].Type)
}

func TestDecode(t *testing.T) {
	ds, err := Decode(strings.NewReader(`{
		"entities": [{"name": "A", "type": "Project", "observations": ["x"]}, {"name": "B"}],
		"relations": [{"source": "A", "target": "B", "relationType": "links"}]
	}`))
	require.NoError(t, err)
	require.Len(t, ds.Entities, 2)
	assert.Equal(t, "", ds.Entities[1].Type)
	assert.Nil(t, ds.Entities[1].Observations)
	assert.Equal(t, "links", ds.Relations[0].RelationType)

	g := Transform(ds, theme.MustGet(theme.Matrix))
	assert.Equal(t, 5, g.Nodes[1].Val)
}

func TestDecode_MissingKeys(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"relations": []}`))
	assert.True(t, errors.Is(err, ErrMissingEntities))

	_, err = Decode(strings.NewReader(`{"entities": []}`))
	assert.True(t, errors.Is(err, ErrMissingRelations))

	_, err = Decode(strings.NewReader(`{"entities": [], "relations": []}`))
	assert.NoError(t, err)

	_, err = Decode(strings.NewReader(`not json`))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"entities":[{"name":"solo"}],"relations":[]}`), 0o644))

	ds, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "solo", ds.Entities[0].Name)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
