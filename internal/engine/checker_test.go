package engine

import (
	"testing"

	"neron/internal/graph"
)

func statusOf(results []CheckResult) map[string]string {
	out := make(map[string]string, len(results))
	for _, r := range results {
		out[r.Name] = r.Status
	}
	return out
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		ds       graph.Dataset
		expected map[string]string // Check Name -> Expected Status
	}{
		{
			name: "Demo Graph Healthy",
			ds:   graph.DemoDataset(),
			expected: map[string]string{
				"Entities":           StatusHealthy,
				"Duplicate Names":    StatusHealthy,
				"Dangling Relations": StatusHealthy,
				"Isolated Entities":  StatusHealthy,
				"Self Loops":         StatusHealthy,
				"Untyped Entities":   StatusHealthy,
			},
		},
		{
			name: "Empty Dataset Critical",
			ds:   graph.Dataset{},
			expected: map[string]string{
				"Entities":           StatusCritical,
				"Dangling Relations": StatusHealthy,
				"Isolated Entities":  StatusHealthy,
			},
		},
		{
			name: "Dangling Relation Critical",
			ds: graph.Dataset{
				Entities:  []graph.Entity{{Name: "A", Type: "X"}, {Name: "B", Type: "X"}},
				Relations: []graph.Relation{{Source: "A", Target: "B"}, {Source: "A", Target: "Ghost"}},
			},
			expected: map[string]string{
				"Dangling Relations": StatusCritical,
			},
		},
		{
			name: "Dangling Relation Warning",
			ds: graph.Dataset{
				Entities: []graph.Entity{{Name: "A", Type: "X"}, {Name: "B", Type: "X"}},
				Relations: []graph.Relation{
					{Source: "A", Target: "B"}, {Source: "B", Target: "A"},
					{Source: "A", Target: "B"}, {Source: "B", Target: "A"},
					{Source: "A", Target: "B"}, {Source: "A", Target: "Ghost"},
				},
			},
			expected: map[string]string{
				"Dangling Relations": StatusWarning,
			},
		},
		{
			name: "Duplicates And Self Loops",
			ds: graph.Dataset{
				Entities:  []graph.Entity{{Name: "A", Type: "X"}, {Name: "A", Type: "Y"}, {Name: "B"}},
				Relations: []graph.Relation{{Source: "A", Target: "A"}, {Source: "A", Target: "B"}},
			},
			expected: map[string]string{
				"Duplicate Names":  StatusWarning,
				"Self Loops":       StatusWarning,
				"Untyped Entities": StatusWarning,
			},
		},
		{
			name: "Mostly Isolated",
			ds: graph.Dataset{
				Entities:  []graph.Entity{{Name: "A", Type: "X"}, {Name: "B", Type: "X"}, {Name: "C", Type: "X"}, {Name: "D", Type: "X"}, {Name: "E", Type: "X"}},
				Relations: []graph.Relation{{Source: "A", Target: "B"}},
			},
			expected: map[string]string{
				"Isolated Entities": StatusCritical,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := statusOf(Evaluate(tt.ds))
			for name, want := range tt.expected {
				if got[name] != want {
					t.Errorf("%s: got %s, want %s", name, got[name], want)
				}
			}
		})
	}
}

func TestEvaluateDetails(t *testing.T) {
	ds := graph.Dataset{
		Entities: []graph.Entity{{Name: "A", Type: "X"}},
		Relations: []graph.Relation{
			{Source: "A", Target: "g1"}, {Source: "A", Target: "g2"},
			{Source: "A", Target: "g3"}, {Source: "A", Target: "g4"},
		},
	}
	for _, r := range Evaluate(ds) {
		if r.Name != "Dangling Relations" {
			continue
		}
		if r.Value != 100 {
			t.Errorf("Value = %v, want 100", r.Value)
		}
		want := "A->g1, A->g2, A->g3 (+1 more)"
		if r.Detail != want {
			t.Errorf("Detail = %q, want %q", r.Detail, want)
		}
		return
	}
	t.Fatal("Dangling Relations check missing")
}

func TestWorst(t *testing.T) {
	if got := Worst(Evaluate(graph.DemoDataset())); got != StatusHealthy {
		t.Errorf("demo graph: got %s", got)
	}
	if got := Worst([]CheckResult{{Status: StatusWarning}, {Status: StatusHealthy}}); got != StatusWarning {
		t.Errorf("got %s, want WARN", got)
	}
	if got := Worst([]CheckResult{{Status: StatusWarning}, {Status: StatusCritical}}); got != StatusCritical {
		t.Errorf("got %s, want CRIT", got)
	}
}
