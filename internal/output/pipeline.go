package output

import (
	"context"
	"fmt"

	"neron/internal/engine"
	"neron/internal/graph"
	"neron/internal/theme"
)

// PipelinePayload is everything a screen needs to show one dataset.
type PipelinePayload struct {
	Dataset graph.Dataset
	Graph   graph.GraphData
	Checks  []engine.CheckResult
	Summary SummaryView
	Theme   theme.Name
}

// DatasetLoader produces a dataset from some source.
type DatasetLoader interface {
	Load(ctx context.Context) (graph.Dataset, error)
}

// RunPipeline executes the full data pipeline: Load -> Transform -> Check -> Summarize.
func RunPipeline(ctx context.Context, loader DatasetLoader, th theme.Theme) (*PipelinePayload, error) {
	ds, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	return Build(ds, th), nil
}

// Build runs the pipeline on an already loaded dataset.
func Build(ds graph.Dataset, th theme.Theme) *PipelinePayload {
	data := graph.Transform(ds, th)
	checks := engine.Evaluate(ds)
	return &PipelinePayload{
		Dataset: ds,
		Graph:   data,
		Checks:  checks,
		Summary: BuildSummary(checks, data),
		Theme:   th.Name,
	}
}
