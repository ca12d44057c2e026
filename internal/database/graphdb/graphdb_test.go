package graphdb

import (
	"errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func TestDatasetFromRows(t *testing.T) {
	entities := []map[string]any{
		{"name": "node1", "type": "Project", "observations": []any{"a", "b"}},
		{"name": "node2", "type": "Bug Fix", "observations": nil},
		{"name": "node3"},
	}
	relations := []map[string]any{
		{"source": "node1", "target": "node2", "relationType": "contains"},
	}

	ds := DatasetFromRows(entities, relations)

	if len(ds.Entities) != 3 {
		t.Fatalf("got %d entities, want 3", len(ds.Entities))
	}
	if got := ds.Entities[0].Observations; len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("observations = %v", got)
	}
	if ds.Entities[1].Observations == nil || len(ds.Entities[1].Observations) != 0 {
		t.Errorf("missing observations should be empty, got %v", ds.Entities[1].Observations)
	}
	if ds.Entities[2].Type != "" {
		t.Errorf("missing type should be empty, got %q", ds.Entities[2].Type)
	}
	if len(ds.Relations) != 1 || ds.Relations[0].RelationType != "contains" {
		t.Errorf("relations = %+v", ds.Relations)
	}
}

func TestConvertValue(t *testing.T) {
	node := neo4j.Node{ElementId: "4:x:1", Labels: []string{"Entity"}, Props: map[string]any{"name": "node1"}}
	rel := neo4j.Relationship{ElementId: "5:x:1", StartElementId: "4:x:1", EndElementId: "4:x:2", Type: "RELATED"}

	got := ConvertValue([]any{node, rel}).([]any)

	n := got[0].(map[string]any)
	if n["id"] != "4:x:1" {
		t.Errorf("node id = %v", n["id"])
	}
	if props := n["properties"].(map[string]any); props["name"] != "node1" {
		t.Errorf("node props = %v", props)
	}
	r := got[1].(map[string]any)
	if r["type"] != "RELATED" || r["startNode"] != "4:x:1" || r["endNode"] != "4:x:2" {
		t.Errorf("relationship = %v", r)
	}
	if ConvertValue(int64(3)) != int64(3) {
		t.Error("scalars should pass through")
	}
}

func TestCheckReadOnly(t *testing.T) {
	tests := []struct {
		query   string
		wantErr bool
	}{
		{"MATCH (e:Entity) RETURN e.name", false},
		{"MATCH (a)-[r:RELATED]->(b) WHERE a.name = 'x' RETURN b", false},
		{"MATCH (e:Entity) RETURN e.settings", false},
		{"CREATE (e:Entity {name: 'x'})", true},
		{"match (e) detach delete e", true},
		{"MATCH (e) SET e.name = 'y'", true},
		{"MERGE (e:Entity {name: 'x'})", true},
	}
	for _, tt := range tests {
		err := CheckReadOnly(tt.query)
		if (err != nil) != tt.wantErr {
			t.Errorf("CheckReadOnly(%q) = %v, wantErr %v", tt.query, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrWriteQuery) {
			t.Errorf("expected ErrWriteQuery, got %v", err)
		}
	}
}
