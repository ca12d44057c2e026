package relational

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"neron/internal/graph"
)

// SchemaSQL stores a dataset as two ordered tables. Observations stay a JSON
// array so their order survives the round trip; search_text holds the same
// observations as plain text for SearchEntities, joined by obsSeparator so a
// match never spans two observations.
const SchemaSQL = `
CREATE TABLE IF NOT EXISTS entities (
  ord           INTEGER NOT NULL,
  name          VARCHAR NOT NULL,
  type          VARCHAR NOT NULL,
  observations  VARCHAR NOT NULL,
  search_text   VARCHAR NOT NULL DEFAULT ''
);

ALTER TABLE entities ADD COLUMN IF NOT EXISTS search_text VARCHAR DEFAULT '';

CREATE TABLE IF NOT EXISTS relations (
  ord           INTEGER NOT NULL,
  source        VARCHAR NOT NULL,
  target        VARCHAR NOT NULL,
  relation_type VARCHAR NOT NULL
);
`

const obsSeparator = "\x1f"

// ErrEmptyStore is returned when loading from a store that was never seeded.
var ErrEmptyStore = errors.New("duckdb store holds no entities")

// Repo reads and writes datasets.
type Repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Close() error {
	return r.db.Close()
}

func (r *Repo) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, SchemaSQL)
	return err
}

// ReplaceDataset swaps the stored dataset for ds in a single transaction.
// Nothing is validated; duplicates and dangling relations are stored as is.
func (r *Repo) ReplaceDataset(ctx context.Context, ds graph.Dataset) (graph.ImportResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return graph.ImportResult{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM relations`); err != nil {
		return graph.ImportResult{}, fmt.Errorf("clear relations: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM entities`); err != nil {
		return graph.ImportResult{}, fmt.Errorf("clear entities: %w", err)
	}

	for i, e := range ds.Entities {
		obs := e.Observations
		if obs == nil {
			obs = []string{}
		}
		raw, err := json.Marshal(obs)
		if err != nil {
			return graph.ImportResult{}, fmt.Errorf("encode observations of %q: %w", e.Name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO entities(ord, name, type, observations, search_text) VALUES (?, ?, ?, ?, ?)`,
			i, e.Name, e.Type, string(raw), strings.Join(obs, obsSeparator)); err != nil {
			return graph.ImportResult{}, fmt.Errorf("insert entity %q: %w", e.Name, err)
		}
	}

	for i, rel := range ds.Relations {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO relations(ord, source, target, relation_type) VALUES (?, ?, ?, ?)`,
			i, rel.Source, rel.Target, rel.RelationType); err != nil {
			return graph.ImportResult{}, fmt.Errorf("insert relation %s->%s: %w", rel.Source, rel.Target, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return graph.ImportResult{}, err
	}
	return graph.ImportResult{Entities: len(ds.Entities), Relations: len(ds.Relations)}, nil
}

// LoadDataset reads the stored dataset back in its original order.
func (r *Repo) LoadDataset(ctx context.Context) (graph.Dataset, error) {
	ds := graph.Dataset{Entities: []graph.Entity{}, Relations: []graph.Relation{}}

	rows, err := r.db.QueryContext(ctx, `SELECT name, type, observations FROM entities ORDER BY ord`)
	if err != nil {
		return graph.Dataset{}, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e graph.Entity
		var raw string
		if err := rows.Scan(&e.Name, &e.Type, &raw); err != nil {
			return graph.Dataset{}, err
		}
		if err := json.Unmarshal([]byte(raw), &e.Observations); err != nil {
			return graph.Dataset{}, fmt.Errorf("decode observations of %q: %w", e.Name, err)
		}
		ds.Entities = append(ds.Entities, e)
	}
	if err := rows.Err(); err != nil {
		return graph.Dataset{}, err
	}
	if len(ds.Entities) == 0 {
		return graph.Dataset{}, ErrEmptyStore
	}

	relRows, err := r.db.QueryContext(ctx, `SELECT source, target, relation_type FROM relations ORDER BY ord`)
	if err != nil {
		return graph.Dataset{}, fmt.Errorf("query relations: %w", err)
	}
	defer relRows.Close()
	for relRows.Next() {
		var rel graph.Relation
		if err := relRows.Scan(&rel.Source, &rel.Target, &rel.RelationType); err != nil {
			return graph.Dataset{}, err
		}
		ds.Relations = append(ds.Relations, rel)
	}
	return ds, relRows.Err()
}
