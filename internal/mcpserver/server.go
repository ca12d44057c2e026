// Package mcpserver exposes the loaded knowledge graph to MCP clients: entity
// listing, node details, the renderer transform, dataset checks, search,
// Cypher passthrough and Gemini-backed questions.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"neron/internal/database"
	"neron/internal/database/graphdb"
	"neron/internal/database/relational"
	"neron/internal/detail"
	"neron/internal/engine"
	"neron/internal/graph"
	"neron/internal/logger"
	"neron/internal/output"
	"neron/internal/theme"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 100
	refreshInterval    = 30 * time.Second
)

var (
	errNoGraphDB = errors.New("query_graph needs the neo4j source")
	errNoGemini  = errors.New("ask_graph needs GEMINI_API_KEY")
)

// Asker answers questions about a dataset.
type Asker interface {
	Query(ctx context.Context, question string, ds graph.Dataset) (string, error)
}

// Server wraps the MCP server with neron capabilities.
type Server struct {
	mcpServer *mcp.Server
	loader    database.Loader
	themes    *theme.Store
	graphDB   graphdb.GraphClient
	tables    *relational.Repo
	asker     Asker
	worker    *database.DataWorker
	log       *logger.Logger

	mu      sync.RWMutex
	payload *output.PipelinePayload
	index   *detail.Index
}

// Config holds configuration for the MCP server.
type Config struct {
	ServerName    string
	ServerVersion string
	Theme         theme.Name
}

// Deps are the collaborators a server reads from. Loader is required; the
// rest enable optional tools.
type Deps struct {
	Loader  database.Loader
	GraphDB graphdb.GraphClient
	Tables  *relational.Repo
	Asker   Asker
	Logger  *logger.Logger
}

// NewServer creates a new MCP server instance.
func NewServer(cfg Config, deps Deps) (*Server, error) {
	if deps.Loader == nil {
		return nil, errors.New("mcpserver: loader is required")
	}
	if cfg.Theme == "" {
		cfg.Theme = theme.Default
	}

	impl := &mcp.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}
	s := &Server{
		mcpServer: mcp.NewServer(impl, nil),
		loader:    deps.Loader,
		themes:    theme.NewStore(cfg.Theme),
		graphDB:   deps.GraphDB,
		tables:    deps.Tables,
		asker:     deps.Asker,
		log:       deps.Logger.With("component", "mcp"),
	}

	worker, err := database.NewDataWorker(s.loader, s.themes, s.setPayload,
		database.WithInterval(refreshInterval), database.WithLogger(deps.Logger))
	if err != nil {
		return nil, err
	}
	s.worker = worker

	s.registerTools()
	return s, nil
}

func (s *Server) setPayload(p *output.PipelinePayload) {
	idx := detail.NewIndex(p.Dataset)
	s.mu.Lock()
	s.payload = p
	s.index = idx
	s.mu.Unlock()
}

// current returns the latest payload, loading it on first use.
func (s *Server) current(ctx context.Context) (*output.PipelinePayload, *detail.Index, error) {
	s.mu.RLock()
	p, idx := s.payload, s.index
	s.mu.RUnlock()
	if p != nil {
		return p, idx, nil
	}
	if _, err := s.worker.PullOnce(ctx); err != nil {
		return nil, nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.payload, s.index, nil
}

// ListEntitiesArgs defines the input for list_entities.
type ListEntitiesArgs struct {
	Type string `json:"type,omitempty" jsonschema:"only list entities of this type"`
}

// EntityGroup is one type and its entities.
type EntityGroup struct {
	Type     string   `json:"type"`
	Entities []string `json:"entities"`
}

// ListEntitiesResult groups entity names by type.
type ListEntitiesResult struct {
	Entities  int           `json:"entities"`
	Relations int           `json:"relations"`
	Groups    []EntityGroup `json:"groups"`
}

// NodeDetailsArgs defines the input for get_node_details.
type NodeDetailsArgs struct {
	Name string `json:"name" jsonschema:"entity name"`
}

// ConnectionRow is one relation of the selected entity.
type ConnectionRow struct {
	Relation  string `json:"relation"`
	Peer      string `json:"peer"`
	PeerType  string `json:"peer_type,omitempty"`
	Navigable bool   `json:"navigable"`
}

// NodeDetailsResult is the detail view of one entity.
type NodeDetailsResult struct {
	Node     graph.VisualNode `json:"node"`
	Incoming []ConnectionRow  `json:"incoming"`
	Outgoing []ConnectionRow  `json:"outgoing"`
}

// TransformArgs defines the input for transform_graph.
type TransformArgs struct {
	Theme string `json:"theme,omitempty" jsonschema:"matrix or regular"`
}

// TransformResult is the renderer payload.
type TransformResult struct {
	Theme theme.Name      `json:"theme"`
	Data  graph.GraphData `json:"data"`
}

// CheckArgs defines the (empty) input for check_dataset.
type CheckArgs struct{}

// CheckResult lists the dataset checks.
type CheckResult struct {
	Status string               `json:"status"`
	Checks []engine.CheckResult `json:"checks"`
}

// SearchArgs defines the input for search_entities.
type SearchArgs struct {
	Text  string `json:"text" jsonschema:"text to look for in names, types and observations"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of matches"`
}

// SearchResult wraps search matches.
type SearchResult struct {
	Matches []relational.EntityMatch `json:"matches"`
}

// QueryGraphArgs defines the input for query_graph tool.
type QueryGraphArgs struct {
	Cypher string `json:"cypher" jsonschema:"read-only Cypher query to execute"`
}

// QueryGraphResult wraps graph query results.
type QueryGraphResult struct {
	Data []map[string]any `json:"data" jsonschema:"query results"`
}

// AskGraphArgs defines the input for ask_graph tool.
type AskGraphArgs struct {
	Question string `json:"question" jsonschema:"the question to ask about the knowledge graph"`
}

// AskGraphResult defines the output for ask_graph tool.
type AskGraphResult struct {
	Answer string `json:"answer" jsonschema:"AI-generated answer"`
}

// registerTools registers all available MCP tools.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_entities",
		Description: "List the entities of the knowledge graph grouped by type, in dataset order.",
	}, s.handleListEntities)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_node_details",
		Description: "Show one entity with its observations, incoming relations and outgoing relations. Peers that do not resolve to an entity are marked as not navigable.",
	}, s.handleNodeDetails)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "transform_graph",
		Description: "Return the renderer payload (nodes with size and theme color, links) for the matrix or regular theme.",
	}, s.handleTransform)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "check_dataset",
		Description: "Run structural checks over the dataset: dangling relations, duplicate names, isolated entities, self loops and untyped entities.",
	}, s.handleCheck)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "search_entities",
		Description: "Find entities whose name, type or observations contain the given text.",
	}, s.handleSearch)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "query_graph",
		Description: "Execute a read-only Cypher query on Neo4j. Nodes are (:Entity {name, type, observations}) joined by [:RELATED {relationType}].",
	}, s.handleQueryGraph)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "ask_graph",
		Description: "Ask a natural-language question about the knowledge graph. The answer is generated by Gemini from the graph data.",
	}, s.handleAskGraph)
}

func (s *Server) handleListEntities(ctx context.Context, _ *mcp.CallToolRequest, args ListEntitiesArgs) (*mcp.CallToolResult, ListEntitiesResult, error) {
	p, _, err := s.current(ctx)
	if err != nil {
		return nil, ListEntitiesResult{}, err
	}

	res := ListEntitiesResult{Entities: len(p.Dataset.Entities), Relations: len(p.Dataset.Relations), Groups: []EntityGroup{}}
	for _, g := range graph.NodesByType(p.Graph.Nodes) {
		if args.Type != "" && !strings.EqualFold(args.Type, g.Type) {
			continue
		}
		group := EntityGroup{Type: g.Type, Entities: make([]string, 0, len(g.Nodes))}
		for _, n := range g.Nodes {
			group.Entities = append(group.Entities, n.Name)
		}
		res.Groups = append(res.Groups, group)
	}
	return nil, res, nil
}

func (s *Server) handleNodeDetails(ctx context.Context, _ *mcp.CallToolRequest, args NodeDetailsArgs) (*mcp.CallToolResult, NodeDetailsResult, error) {
	_, idx, err := s.current(ctx)
	if err != nil {
		return nil, NodeDetailsResult{}, err
	}
	ent, ok := idx.Lookup(args.Name)
	if !ok {
		return nil, NodeDetailsResult{}, fmt.Errorf("entity %q not found", args.Name)
	}

	d := detail.Compute(idx, graph.NewVisualNode(ent, s.themes.Current()))
	return nil, NodeDetailsResult{
		Node:     d.Node,
		Incoming: connectionRows(d.Incoming),
		Outgoing: connectionRows(d.Outgoing),
	}, nil
}

func connectionRows(cs []detail.Connection) []ConnectionRow {
	rows := make([]ConnectionRow, 0, len(cs))
	for _, c := range cs {
		row := ConnectionRow{Relation: c.Relation.RelationType, Peer: c.PeerName, Navigable: c.Navigable()}
		if c.Peer != nil {
			row.PeerType = c.Peer.Type
		}
		rows = append(rows, row)
	}
	return rows
}

func (s *Server) handleTransform(ctx context.Context, _ *mcp.CallToolRequest, args TransformArgs) (*mcp.CallToolResult, TransformResult, error) {
	p, _, err := s.current(ctx)
	if err != nil {
		return nil, TransformResult{}, err
	}
	th := s.themes.Current()
	if args.Theme != "" {
		name, err := theme.Parse(args.Theme)
		if err != nil {
			return nil, TransformResult{}, err
		}
		th = theme.MustGet(name)
	}
	return nil, TransformResult{Theme: th.Name, Data: graph.Transform(p.Dataset, th)}, nil
}

func (s *Server) handleCheck(ctx context.Context, _ *mcp.CallToolRequest, _ CheckArgs) (*mcp.CallToolResult, CheckResult, error) {
	p, _, err := s.current(ctx)
	if err != nil {
		return nil, CheckResult{}, err
	}
	return nil, CheckResult{Status: engine.Worst(p.Checks), Checks: p.Checks}, nil
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, SearchResult, error) {
	if strings.TrimSpace(args.Text) == "" {
		return nil, SearchResult{}, errors.New("search text is empty")
	}
	limit := args.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	if s.tables != nil {
		matches, err := s.tables.SearchEntities(ctx, args.Text, limit)
		if err != nil {
			return nil, SearchResult{}, fmt.Errorf("failed to search entities: %w", err)
		}
		return nil, SearchResult{Matches: matches}, nil
	}

	p, _, err := s.current(ctx)
	if err != nil {
		return nil, SearchResult{}, err
	}
	return nil, SearchResult{Matches: searchDataset(p.Dataset, args.Text, limit)}, nil
}

// searchDataset mirrors SearchEntities for sources without a table store.
func searchDataset(ds graph.Dataset, text string, limit int) []relational.EntityMatch {
	needle := strings.ToLower(text)
	matches := []relational.EntityMatch{}
	for _, e := range ds.Entities {
		if len(matches) == limit {
			break
		}
		hit := strings.Contains(strings.ToLower(e.Name), needle) || strings.Contains(strings.ToLower(e.Type), needle)
		for _, o := range e.Observations {
			if hit {
				break
			}
			hit = strings.Contains(strings.ToLower(o), needle)
		}
		if hit {
			matches = append(matches, relational.EntityMatch{Name: e.Name, Type: e.Type, Observations: e.Observations})
		}
	}
	return matches
}

// handleQueryGraph executes Cypher queries.
func (s *Server) handleQueryGraph(ctx context.Context, _ *mcp.CallToolRequest, args QueryGraphArgs) (*mcp.CallToolResult, QueryGraphResult, error) {
	if s.graphDB == nil {
		return nil, QueryGraphResult{}, errNoGraphDB
	}
	if err := graphdb.CheckReadOnly(args.Cypher); err != nil {
		return nil, QueryGraphResult{}, err
	}
	result, err := s.graphDB.ExecuteCypher(ctx, args.Cypher)
	if err != nil {
		return nil, QueryGraphResult{}, fmt.Errorf("cypher query failed: %w", err)
	}
	return nil, QueryGraphResult{Data: result}, nil
}

func (s *Server) handleAskGraph(ctx context.Context, _ *mcp.CallToolRequest, args AskGraphArgs) (*mcp.CallToolResult, AskGraphResult, error) {
	if s.asker == nil {
		return nil, AskGraphResult{}, errNoGemini
	}
	p, _, err := s.current(ctx)
	if err != nil {
		return nil, AskGraphResult{}, err
	}
	answer, err := s.asker.Query(ctx, args.Question, p.Dataset)
	if err != nil {
		return nil, AskGraphResult{}, fmt.Errorf("RAG query failed: %w", err)
	}
	return nil, AskGraphResult{Answer: answer}, nil
}

// Start loads the dataset, starts the refresh worker and serves MCP on stdio
// until ctx is done or the client disconnects.
func (s *Server) Start(ctx context.Context) error {
	if _, err := s.worker.PullOnce(ctx); err != nil {
		s.log.Warn("initial dataset load failed", "err", err)
	}
	if err := s.worker.Start(ctx); err != nil {
		return err
	}
	defer s.worker.Stop()

	s.log.Info("serving MCP on stdio")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// MCP exposes the underlying server, e.g. for in-memory transports.
func (s *Server) MCP() *mcp.Server { return s.mcpServer }
