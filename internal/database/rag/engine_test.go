package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neron/internal/database/graphdb"
	"neron/internal/graph"
)

type fakeGraph struct {
	rows    []map[string]any
	err     error
	queries []string
}

var _ graphdb.GraphClient = (*fakeGraph)(nil)

func (f *fakeGraph) Close(context.Context) error { return nil }
func (f *fakeGraph) Reset(context.Context) error { return nil }
func (f *fakeGraph) ImportDataset(context.Context, graph.Dataset) (graph.ImportResult, error) {
	return graph.ImportResult{}, nil
}
func (f *fakeGraph) LoadDataset(context.Context) (graph.Dataset, error) { return graph.Dataset{}, nil }
func (f *fakeGraph) ExecuteCypher(_ context.Context, q string) ([]map[string]any, error) {
	f.queries = append(f.queries, q)
	return f.rows, f.err
}

// scripted returns canned completions and records prompts.
type scripted struct {
	replies []string
	prompts []string
}

func (s *scripted) generate(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.replies) == 0 {
		return "", errors.New("no reply scripted")
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r, nil
}

func TestQueryWithoutGraphUsesDataset(t *testing.T) {
	gen := &scripted{replies: []string{"node1 contains node3"}}
	e := NewEngineWithGenerator(gen.generate, nil, ResolveModel(""), nil)

	answer, err := e.Query(context.Background(), "what does node1 contain?", graph.DemoDataset())
	require.NoError(t, err)
	assert.Equal(t, "node1 contains node3", answer)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], `"entity": "node3"`)
	assert.Contains(t, gen.prompts[0], `"relation": "modifies"`)
}

func TestQueryUsesCypherRows(t *testing.T) {
	fg := &fakeGraph{rows: []map[string]any{{"name": "node2"}}}
	gen := &scripted{replies: []string{"```cypher\nMATCH (e:Entity) RETURN e.name AS name\n```", "node2"}}
	e := NewEngineWithGenerator(gen.generate, fg, ResolveModel("pro"), nil)

	answer, err := e.Query(context.Background(), "which bug fix?", graph.DemoDataset())
	require.NoError(t, err)
	assert.Equal(t, "node2", answer)
	require.Equal(t, []string{"MATCH (e:Entity) RETURN e.name AS name"}, fg.queries)
	assert.Contains(t, gen.prompts[1], `"name": "node2"`)
	assert.NotContains(t, gen.prompts[1], `"entity": "node1"`)
}

func TestQueryRejectsWriteCypher(t *testing.T) {
	fg := &fakeGraph{}
	gen := &scripted{replies: []string{"MATCH (n) DETACH DELETE n", "fallback"}}
	e := NewEngineWithGenerator(gen.generate, fg, ResolveModel("flash"), nil)

	answer, err := e.Query(context.Background(), "clear it", graph.DemoDataset())
	require.NoError(t, err)
	assert.Equal(t, "fallback", answer)
	assert.Empty(t, fg.queries)
	assert.Contains(t, gen.prompts[1], `"entity": "node1"`)
}

func TestQueryErrors(t *testing.T) {
	e := NewEngineWithGenerator((&scripted{}).generate, nil, ResolveModel(""), nil)

	_, err := e.Query(context.Background(), "  ", graph.DemoDataset())
	assert.Error(t, err)

	_, err = e.Query(context.Background(), "anything", graph.DemoDataset())
	assert.ErrorContains(t, err, "synthesize")
}

func TestEmptyAnswer(t *testing.T) {
	gen := &scripted{replies: []string{"   "}}
	e := NewEngineWithGenerator(gen.generate, nil, ResolveModel(""), nil)
	answer, err := e.Query(context.Background(), "q", graph.Dataset{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(answer, "Unable to generate"))
}

func TestResolveModel(t *testing.T) {
	assert.Equal(t, "gemini-flash-latest", ResolveModel("").Name)
	assert.Equal(t, "gemini-flash-latest", ResolveModel("gpt").Name)
	assert.Equal(t, "gemini-pro-latest", ResolveModel("pro").Name)
}

func TestDatasetRowsCap(t *testing.T) {
	var ds graph.Dataset
	for i := 0; i < maxContextRows+10; i++ {
		ds.Entities = append(ds.Entities, graph.Entity{Name: "e", Type: "T"})
	}
	assert.Len(t, DatasetRows(ds), maxContextRows)
}

func TestCleanCypherQuery(t *testing.T) {
	assert.Equal(t, "MATCH (n) RETURN n", CleanCypherQuery("```cypher\nMATCH (n) RETURN n\n```"))
	assert.Equal(t, "MATCH (n) RETURN n", CleanCypherQuery("  MATCH (n) RETURN n "))
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
