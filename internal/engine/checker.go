// Package engine runs health checks over a dataset. The checks never block
// loading; they only describe what the graph adapter will pass through as is.
package engine

import (
	"fmt"
	"strings"

	"neron/internal/graph"
)

const (
	StatusHealthy  = "OK"
	StatusWarning  = "WARN"
	StatusCritical = "CRIT"

	DanglingWarningThreshold  = 0.0  // % of relations
	DanglingCriticalThreshold = 25.0 // % of relations
	IsolatedWarningThreshold  = 25.0 // % of entities
	IsolatedCriticalThreshold = 50.0 // % of entities

	// examples listed per finding
	maxExamples = 3
)

type CheckResult struct {
	Name   string
	Value  float64
	Status string
	Detail string
}

func getStatus(value, warning, critical float64) string {
	if value > critical {
		return StatusCritical
	}
	if value > warning {
		return StatusWarning
	}
	return StatusHealthy
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func examples(names []string) string {
	if len(names) <= maxExamples {
		return strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s (+%d more)", strings.Join(names[:maxExamples], ", "), len(names)-maxExamples)
}

// Evaluate checks a dataset for the structural problems the adapter and the
// detail view tolerate silently.
func Evaluate(ds graph.Dataset) []CheckResult {
	var result []CheckResult

	// Size
	sizeStatus := StatusHealthy
	if len(ds.Entities) == 0 {
		sizeStatus = StatusCritical
	}
	result = append(result, CheckResult{
		Name:   "Entities",
		Value:  float64(len(ds.Entities)),
		Status: sizeStatus,
		Detail: fmt.Sprintf("%d entities, %d relations", len(ds.Entities), len(ds.Relations)),
	})

	names := make(map[string]int, len(ds.Entities))
	var duplicates, untyped []string
	for _, e := range ds.Entities {
		names[e.Name]++
		if names[e.Name] == 2 {
			duplicates = append(duplicates, e.Name)
		}
		if strings.TrimSpace(e.Type) == "" {
			untyped = append(untyped, e.Name)
		}
	}

	// Duplicate names: only the first entity is reachable from the detail view
	dupStatus := StatusHealthy
	if len(duplicates) > 0 {
		dupStatus = StatusWarning
	}
	result = append(result, CheckResult{
		Name:   "Duplicate Names",
		Value:  float64(len(duplicates)),
		Status: dupStatus,
		Detail: examples(duplicates),
	})

	// Dangling endpoints
	var dangling, selfLoops []string
	connected := make(map[string]bool, len(ds.Entities))
	for _, r := range ds.Relations {
		_, srcOK := names[r.Source]
		_, dstOK := names[r.Target]
		if !srcOK || !dstOK {
			dangling = append(dangling, fmt.Sprintf("%s->%s", r.Source, r.Target))
		}
		if r.Source == r.Target {
			selfLoops = append(selfLoops, r.Source)
		}
		connected[r.Source] = true
		connected[r.Target] = true
	}
	danglingPct := percent(len(dangling), len(ds.Relations))
	result = append(result, CheckResult{
		Name:   "Dangling Relations",
		Value:  danglingPct,
		Status: getStatus(danglingPct, DanglingWarningThreshold, DanglingCriticalThreshold),
		Detail: examples(dangling),
	})

	// Isolated entities
	var isolated []string
	for _, e := range ds.Entities {
		if !connected[e.Name] {
			isolated = append(isolated, e.Name)
		}
	}
	isolatedPct := percent(len(isolated), len(ds.Entities))
	result = append(result, CheckResult{
		Name:   "Isolated Entities",
		Value:  isolatedPct,
		Status: getStatus(isolatedPct, IsolatedWarningThreshold, IsolatedCriticalThreshold),
		Detail: examples(isolated),
	})

	// Self loops show up in both lists of the detail view
	loopStatus := StatusHealthy
	if len(selfLoops) > 0 {
		loopStatus = StatusWarning
	}
	result = append(result, CheckResult{
		Name:   "Self Loops",
		Value:  float64(len(selfLoops)),
		Status: loopStatus,
		Detail: examples(selfLoops),
	})

	// Untyped entities fall back to the default color
	untypedStatus := StatusHealthy
	if len(untyped) > 0 {
		untypedStatus = StatusWarning
	}
	result = append(result, CheckResult{
		Name:   "Untyped Entities",
		Value:  float64(len(untyped)),
		Status: untypedStatus,
		Detail: examples(untyped),
	})

	return result
}

// Worst returns the most severe status among results.
func Worst(results []CheckResult) string {
	worst := StatusHealthy
	for _, r := range results {
		switch r.Status {
		case StatusCritical:
			return StatusCritical
		case StatusWarning:
			worst = StatusWarning
		}
	}
	return worst
}
