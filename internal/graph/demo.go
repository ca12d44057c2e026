package graph

// DemoDataset is the small built-in graph used for smoke testing a renderer
// without any data source.
func DemoDataset() Dataset {
	return Dataset{
		Entities: []Entity{
			{Name: "node1", Type: "Project", Observations: []string{"Test project root", "Owns the demo graph"}},
			{Name: "node2", Type: "Bug Fix", Observations: []string{"Fixes a render race"}},
			{Name: "node3", Type: "Feature", Observations: []string{"Theme switching", "Node drill-down", "Renderer console", "Bloom effects", "Queue until ready"}},
			{Name: "node4", Type: "Component", Observations: nil},
		},
		Relations: []Relation{
			{Source: "node1", Target: "node2", RelationType: "contains"},
			{Source: "node1", Target: "node3", RelationType: "contains"},
			{Source: "node2", Target: "node4", RelationType: "modifies"},
		},
	}
}
