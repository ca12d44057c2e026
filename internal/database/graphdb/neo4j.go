// Package graphdb stores knowledge-graph datasets in Neo4j: one :Entity node
// per entity and one :RELATED edge per relation.
package graphdb

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"neron/internal/graph"
)

// GraphClient defines the interface for graph database operations.
type GraphClient interface {
	Close(ctx context.Context) error
	Reset(ctx context.Context) error
	ImportDataset(ctx context.Context, ds graph.Dataset) (graph.ImportResult, error)
	LoadDataset(ctx context.Context) (graph.Dataset, error)
	ExecuteCypher(ctx context.Context, query string) ([]map[string]any, error)
}

// Neo4jClient implements GraphClient for Neo4j.
type Neo4jClient struct {
	driver neo4j.DriverWithContext
	dbName string
}

// NewNeo4jClient creates a new Neo4j client.
func NewNeo4jClient(uri, username, password, dbName string) (*Neo4jClient, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to neo4j: %w", err)
	}

	return &Neo4jClient{
		driver: driver,
		dbName: dbName,
	}, nil
}

func (c *Neo4jClient) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func (c *Neo4jClient) session(ctx context.Context) neo4j.SessionWithContext {
	return c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.dbName})
}

// Reset deletes every entity and its relations.
func (c *Neo4jClient) Reset(ctx context.Context) error {
	session := c.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, "MATCH (e:Entity) DETACH DELETE e", nil)
	})
	return err
}

// ImportDataset replaces the stored graph with ds in one transaction.
func (c *Neo4jClient) ImportDataset(ctx context.Context, ds graph.Dataset) (graph.ImportResult, error) {
	session := c.session(ctx)
	defer session.Close(ctx)

	res, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, "MATCH (e:Entity) DETACH DELETE e", nil); err != nil {
			return nil, err
		}

		var result graph.ImportResult
		for i, e := range ds.Entities {
			if err := createEntity(ctx, tx, i, e); err != nil {
				return nil, fmt.Errorf("entity %q: %w", e.Name, err)
			}
			result.Entities++
		}
		for i, r := range ds.Relations {
			created, err := createRelation(ctx, tx, i, r)
			if err != nil {
				return nil, fmt.Errorf("relation %s->%s: %w", r.Source, r.Target, err)
			}
			if created {
				result.Relations++
			} else {
				result.Skipped++
			}
		}
		return result, nil
	})
	if err != nil {
		return graph.ImportResult{}, err
	}
	return res.(graph.ImportResult), nil
}

func createEntity(ctx context.Context, tx neo4j.ManagedTransaction, ord int, e graph.Entity) error {
	query := `
		CREATE (e:Entity {
			name: $name,
			type: $type,
			observations: $observations,
			ord: $ord
		})
	`
	obs := e.Observations
	if obs == nil {
		obs = []string{}
	}
	_, err := tx.Run(ctx, query, map[string]any{
		"name":         e.Name,
		"type":         e.Type,
		"observations": obs,
		"ord":          ord,
	})
	return err
}

// createRelation links the first entities carrying the endpoint names and
// reports whether an edge was created.
func createRelation(ctx context.Context, tx neo4j.ManagedTransaction, ord int, r graph.Relation) (bool, error) {
	query := `
		MATCH (a:Entity {name: $source})
		WITH a ORDER BY a.ord LIMIT 1
		MATCH (b:Entity {name: $target})
		WITH a, b ORDER BY b.ord LIMIT 1
		CREATE (a)-[:RELATED {relationType: $relationType, ord: $ord}]->(b)
		RETURN 1 AS created
	`
	res, err := tx.Run(ctx, query, map[string]any{
		"source":       r.Source,
		"target":       r.Target,
		"relationType": r.RelationType,
		"ord":          ord,
	})
	if err != nil {
		return false, err
	}
	records, err := res.Collect(ctx)
	if err != nil {
		return false, err
	}
	return len(records) > 0, nil
}

// LoadDataset reads the stored graph back in import order.
func (c *Neo4jClient) LoadDataset(ctx context.Context) (graph.Dataset, error) {
	entities, err := c.ExecuteCypher(ctx, `
		MATCH (e:Entity)
		RETURN e.name AS name, e.type AS type, e.observations AS observations
		ORDER BY e.ord
	`)
	if err != nil {
		return graph.Dataset{}, err
	}
	relations, err := c.ExecuteCypher(ctx, `
		MATCH (a:Entity)-[r:RELATED]->(b:Entity)
		RETURN a.name AS source, b.name AS target, r.relationType AS relationType
		ORDER BY r.ord
	`)
	if err != nil {
		return graph.Dataset{}, err
	}
	return DatasetFromRows(entities, relations), nil
}

// DatasetFromRows builds a dataset from the rows returned by the entity and
// relation queries. Missing properties become zero values.
func DatasetFromRows(entityRows, relationRows []map[string]any) graph.Dataset {
	ds := graph.Dataset{
		Entities:  make([]graph.Entity, 0, len(entityRows)),
		Relations: make([]graph.Relation, 0, len(relationRows)),
	}
	for _, row := range entityRows {
		ds.Entities = append(ds.Entities, graph.Entity{
			Name:         asString(row["name"]),
			Type:         asString(row["type"]),
			Observations: asStrings(row["observations"]),
		})
	}
	for _, row := range relationRows {
		ds.Relations = append(ds.Relations, graph.Relation{
			Source:       asString(row["source"]),
			Target:       asString(row["target"]),
			RelationType: asString(row["relationType"]),
		})
	}
	return ds
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func asStrings(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, asString(item))
		}
		return out
	}
	return []string{}
}
