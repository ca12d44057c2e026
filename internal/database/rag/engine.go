// Package rag answers natural-language questions about a knowledge graph with
// Gemini, grounding the answer either in Cypher results or in the loaded
// dataset itself.
package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"neron/internal/database/graphdb"
	"neron/internal/graph"
	"neron/internal/logger"
)

// ModelConfig defines configuration for a Gemini model.
type ModelConfig struct {
	Name        string
	Temperature float32
	TopP        float32
	TopK        int32
}

// AvailableModels defines the available Gemini models and their configurations.
var AvailableModels = map[string]ModelConfig{
	"flash": {
		Name:        "gemini-flash-latest",
		Temperature: 0.4,
		TopP:        0.95,
		TopK:        40,
	},
	"pro": {
		Name:        "gemini-pro-latest",
		Temperature: 0.4,
		TopP:        0.95,
		TopK:        40,
	},
	"flash-8b": {
		Name:        "gemini-1.5-flash-8b",
		Temperature: 0.4,
		TopP:        0.95,
		TopK:        40,
	},
	"experimental": {
		Name:        "gemini-2.0-flash-exp",
		Temperature: 0.7,
		TopP:        0.95,
		TopK:        40,
	},
}

// DefaultModel is used when the configured key is empty or unknown.
const DefaultModel = "flash"

// maxContextRows bounds the rows handed to the model as context.
const maxContextRows = 200

// ErrNoAPIKey is returned by NewClient when no key is configured.
var ErrNoAPIKey = errors.New("GEMINI_API_KEY is not set")

// GenerateFunc produces a completion for a prompt.
type GenerateFunc func(ctx context.Context, prompt string) (string, error)

// Engine handles retrieval augmented generation over a knowledge graph.
type Engine struct {
	graph    graphdb.GraphClient
	generate GenerateFunc
	model    ModelConfig
	log      *logger.Logger
}

// NewClient opens a Gemini client for apiKey.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return genai.NewClient(ctx, option.WithAPIKey(apiKey))
}

// ResolveModel maps a model key to its configuration, falling back to
// DefaultModel.
func ResolveModel(key string) ModelConfig {
	if cfg, ok := AvailableModels[key]; ok {
		return cfg
	}
	return AvailableModels[DefaultModel]
}

// NewEngine builds an engine on a Gemini client. gc may be nil, in which case
// answers are grounded in the dataset passed to Query.
func NewEngine(client *genai.Client, gc graphdb.GraphClient, modelKey string, log *logger.Logger) *Engine {
	cfg := ResolveModel(modelKey)
	return NewEngineWithGenerator(geminiGenerator(client, cfg), gc, cfg, log)
}

// NewEngineWithGenerator builds an engine on an arbitrary completion function.
func NewEngineWithGenerator(generate GenerateFunc, gc graphdb.GraphClient, cfg ModelConfig, log *logger.Logger) *Engine {
	return &Engine{
		graph:    gc,
		generate: generate,
		model:    cfg,
		log:      log.With("component", "rag"),
	}
}

// Model reports the Gemini model name in use.
func (e *Engine) Model() string { return e.model.Name }

func geminiGenerator(client *genai.Client, cfg ModelConfig) GenerateFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		model := client.GenerativeModel(cfg.Name)
		model.SetTemperature(cfg.Temperature)
		model.SetTopP(cfg.TopP)
		model.SetTopK(cfg.TopK)

		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return "", err
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
			return "", errors.New("no response from Gemini")
		}
		var b strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		return b.String(), nil
	}
}

// Query answers question. With a graph database attached it first asks the
// model for a read-only Cypher query and uses its rows as context; otherwise,
// or when that query fails or returns nothing, the dataset is the context.
func (e *Engine) Query(ctx context.Context, question string, ds graph.Dataset) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", errors.New("question is empty")
	}

	var rows []map[string]any
	if e.graph != nil {
		var err error
		rows, err = e.queryGraph(ctx, question)
		if err != nil {
			e.log.Warn("cypher retrieval failed, using dataset", "err", err)
		}
	}
	if len(rows) == 0 {
		rows = DatasetRows(ds)
	}

	answer, err := e.synthesizeAnswer(ctx, question, rows)
	if err != nil {
		return "", fmt.Errorf("failed to synthesize answer: %w", err)
	}
	return answer, nil
}

func (e *Engine) queryGraph(ctx context.Context, question string) ([]map[string]any, error) {
	cypher, err := e.generateCypher(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to generate cypher: %w", err)
	}
	e.log.Debug("generated cypher", "query", cypher)
	if err := graphdb.CheckReadOnly(cypher); err != nil {
		return nil, err
	}
	return e.graph.ExecuteCypher(ctx, cypher)
}

func (e *Engine) generateCypher(ctx context.Context, question string) (string, error) {
	prompt := fmt.Sprintf(`You are a Neo4j Cypher query expert. Convert the following question into a read-only Cypher query for a knowledge graph.

Graph Schema:
- Nodes: (:Entity {name, type, observations, ord})
- Relationships: (:Entity)-[:RELATED {relationType, ord}]->(:Entity)

Question: %s

Return ONLY the Cypher query, no explanation. Never modify the graph. Limit results to 25.`, question)

	out, err := e.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	cypher := CleanCypherQuery(out)
	if cypher == "" {
		return "", errors.New("model returned an empty query")
	}
	return cypher, nil
}

func (e *Engine) synthesizeAnswer(ctx context.Context, question string, rows []map[string]any) (string, error) {
	graphJSON, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(`You are a knowledge graph assistant. Answer the following question based on the graph data.

Question: %s

Graph Data:
%s

Answer concisely. Name the entities and relations you rely on.
If the graph data is empty or insufficient, say so clearly.`, question, string(graphJSON))

	answer, err := e.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(answer) == "" {
		return "Unable to generate response from the available data.", nil
	}
	return strings.TrimSpace(answer), nil
}

// DatasetRows flattens a dataset into context rows: one per entity, then one
// per relation, capped at maxContextRows.
func DatasetRows(ds graph.Dataset) []map[string]any {
	rows := make([]map[string]any, 0, min(len(ds.Entities)+len(ds.Relations), maxContextRows))
	for _, ent := range ds.Entities {
		if len(rows) == maxContextRows {
			return rows
		}
		rows = append(rows, map[string]any{
			"entity":       ent.Name,
			"type":         ent.Type,
			"observations": ent.Observations,
		})
	}
	for _, rel := range ds.Relations {
		if len(rows) == maxContextRows {
			return rows
		}
		rows = append(rows, map[string]any{
			"from":     rel.Source,
			"relation": rel.RelationType,
			"to":       rel.Target,
		})
	}
	return rows
}

// CleanCypherQuery removes markdown code fences from a generated query.
func CleanCypherQuery(query string) string {
	query = strings.TrimSpace(query)
	query = strings.TrimPrefix(query, "```cypher")
	query = strings.TrimPrefix(query, "```")
	query = strings.TrimSuffix(query, "```")
	return strings.TrimSpace(query)
}
