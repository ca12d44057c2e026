// Package database opens the configured dataset source and keeps a loaded
// dataset in sync with it.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"neron/assets"
	"neron/internal/config"
	"neron/internal/database/graphdb"
	"neron/internal/database/relational"
	"neron/internal/graph"
)

// Loader produces a dataset. It satisfies output.DatasetLoader.
type Loader interface {
	Load(ctx context.Context) (graph.Dataset, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) (graph.Dataset, error)

func (f LoaderFunc) Load(ctx context.Context) (graph.Dataset, error) { return f(ctx) }

// FileLoader reads a JSON dataset. An empty Path loads the bundled graph.
type FileLoader struct {
	Path string
}

func (l FileLoader) Load(ctx context.Context) (graph.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return graph.Dataset{}, err
	}
	if l.Path == "" {
		return assets.Dataset()
	}
	return graph.LoadFile(l.Path)
}

// DemoLoader returns the built-in demo graph.
type DemoLoader struct{}

func (DemoLoader) Load(context.Context) (graph.Dataset, error) {
	return graph.DemoDataset(), nil
}

// Importer writes a dataset into a store.
type Importer interface {
	Import(ctx context.Context, ds graph.Dataset) (graph.ImportResult, error)
}

// GraphStore reads and writes datasets in Neo4j.
type GraphStore struct {
	Client graphdb.GraphClient
}

func (s GraphStore) Load(ctx context.Context) (graph.Dataset, error) {
	ds, err := s.Client.LoadDataset(ctx)
	if err != nil {
		return graph.Dataset{}, fmt.Errorf("neo4j: %w", err)
	}
	if len(ds.Entities) == 0 {
		return graph.Dataset{}, fmt.Errorf("neo4j: %w", ErrEmptySource)
	}
	return ds, nil
}

func (s GraphStore) Import(ctx context.Context, ds graph.Dataset) (graph.ImportResult, error) {
	res, err := s.Client.ImportDataset(ctx, ds)
	if err != nil {
		return graph.ImportResult{}, fmt.Errorf("neo4j import: %w", err)
	}
	return res, nil
}

// TableStore reads and writes datasets in DuckDB.
type TableStore struct {
	Repo *relational.Repo
}

func (s TableStore) Load(ctx context.Context) (graph.Dataset, error) {
	ds, err := s.Repo.LoadDataset(ctx)
	if errors.Is(err, relational.ErrEmptyStore) {
		return graph.Dataset{}, fmt.Errorf("duckdb: %w", ErrEmptySource)
	}
	if err != nil {
		return graph.Dataset{}, fmt.Errorf("duckdb: %w", err)
	}
	return ds, nil
}

func (s TableStore) Import(ctx context.Context, ds graph.Dataset) (graph.ImportResult, error) {
	res, err := s.Repo.ReplaceDataset(ctx, ds)
	if err != nil {
		return graph.ImportResult{}, fmt.Errorf("duckdb import: %w", err)
	}
	return res, nil
}

// ErrEmptySource means a store is reachable but was never seeded.
var ErrEmptySource = errors.New("source holds no entities; run neron seed first")

// Source is an opened dataset source plus the resources backing it.
type Source struct {
	Name   string
	Loader Loader
	// Importer is nil for read-only sources.
	Importer Importer
	// Graph is set when the source is Neo4j; it enables Cypher passthrough.
	Graph graphdb.GraphClient
	// Tables is set when the source is DuckDB.
	Tables *relational.Repo
	closers []func() error
}

// Close releases database connections.
func (s *Source) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// Open connects the source selected by cfg.Source.
func Open(ctx context.Context, cfg config.Config) (*Source, error) {
	switch cfg.Source {
	case config.SourceFile:
		return &Source{Name: describeFile(cfg.DatasetPath), Loader: FileLoader{Path: cfg.DatasetPath}}, nil
	case config.SourceDemo:
		return &Source{Name: "demo", Loader: DemoLoader{}}, nil
	case config.SourceNeo4j:
		return OpenNeo4j(cfg)
	case config.SourceDuckDB:
		return OpenDuckDB(ctx, cfg.DuckDBPath)
	}
	return nil, fmt.Errorf("unknown source %q", cfg.Source)
}

func describeFile(path string) string {
	if path == "" {
		return "bundled graph"
	}
	return path
}

// OpenNeo4j connects to the configured Neo4j database.
func OpenNeo4j(cfg config.Config) (*Source, error) {
	client, err := graphdb.NewNeo4jClient(cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.Neo4jDatabase)
	if err != nil {
		return nil, err
	}
	store := GraphStore{Client: client}
	return &Source{
		Name:     "neo4j " + cfg.Neo4jURI,
		Loader:   store,
		Importer: store,
		Graph:    client,
		closers: []func() error{func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return client.Close(ctx)
		}},
	}, nil
}

// OpenDuckDB opens (and migrates) a DuckDB dataset store.
func OpenDuckDB(ctx context.Context, path string) (*Source, error) {
	client, err := relational.NewDuckDBClient(path)
	if err != nil {
		return nil, err
	}
	repo := relational.NewRepo(client.DB())
	if err := repo.Migrate(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("migrate duckdb: %w", err)
	}
	store := TableStore{Repo: repo}
	return &Source{
		Name:     "duckdb " + path,
		Loader:   store,
		Importer: store,
		Tables:   repo,
		closers:  []func() error{client.Close},
	}, nil
}

// Seed copies the dataset read by from into the store behind to.
func Seed(ctx context.Context, from Loader, to Importer) (graph.ImportResult, error) {
	ds, err := from.Load(ctx)
	if err != nil {
		return graph.ImportResult{}, fmt.Errorf("read seed dataset: %w", err)
	}
	return to.Import(ctx, ds)
}
