package graphdb

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ErrWriteQuery is returned when a passthrough query tries to modify the graph.
var ErrWriteQuery = errors.New("cypher query must be read-only")

var writeClause = regexp.MustCompile(`(?i)\b(CREATE|MERGE|DELETE|DETACH|SET|REMOVE|DROP|LOAD\s+CSV|FOREACH)\b`)

// CheckReadOnly rejects queries containing write clauses.
func CheckReadOnly(query string) error {
	if m := writeClause.FindString(query); m != "" {
		return fmt.Errorf("%w: found %q", ErrWriteQuery, m)
	}
	return nil
}

// ExecuteCypher runs a read query and returns its rows with driver values
// converted to plain Go maps and slices.
func (c *Neo4jClient) ExecuteCypher(ctx context.Context, query string) ([]map[string]any, error) {
	session := c.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		rows := make([]map[string]any, 0, len(records))
		for _, record := range records {
			row := make(map[string]any, len(record.Keys))
			for i, key := range record.Keys {
				row[key] = ConvertValue(record.Values[i])
			}
			rows = append(rows, row)
		}
		return rows, nil
	})
	if err != nil {
		return nil, fmt.Errorf("cypher execution failed: %w", err)
	}
	return result.([]map[string]any), nil
}

// ConvertValue turns driver graph types into JSON-friendly values.
func ConvertValue(val any) any {
	switch v := val.(type) {
	case neo4j.Node:
		return map[string]any{
			"labels":     v.Labels,
			"properties": ConvertValue(v.Props),
			"id":         v.ElementId,
		}
	case neo4j.Relationship:
		return map[string]any{
			"type":       v.Type,
			"properties": ConvertValue(v.Props),
			"startNode":  v.StartElementId,
			"endNode":    v.EndElementId,
		}
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = ConvertValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = ConvertValue(item)
		}
		return out
	default:
		return v
	}
}
