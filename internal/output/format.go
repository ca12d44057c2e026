package output

import (
	"fmt"
	"strings"

	"neron/internal/engine"
	"neron/internal/graph"
)

// SectionChecks is the ID of the dataset checks section.
const SectionChecks = "checks"

// UI/view-model types (no printing here)
type Item struct {
	Key    string
	Label  string
	Value  float64
	Unit   string
	Status string
	Note   string
	Color  string
}

type Section struct {
	ID    string // node type, or "checks"
	Title string
	Color string
	Items []Item
}

type SummaryView struct {
	// Sections holds one section per node type, in first-seen order.
	Sections  []Section
	Checks    Section
	Entities  int
	Relations int
	Status    string
}

func itemKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "_")
}

// BuildSummary groups the transformed nodes by type and attaches the check
// results.
func BuildSummary(results []engine.CheckResult, data graph.GraphData) SummaryView {
	view := SummaryView{
		Entities:  len(data.Nodes),
		Relations: len(data.Links),
		Status:    engine.Worst(results),
		Checks:    Section{ID: SectionChecks, Title: "Checks"},
	}

	for _, g := range graph.NodesByType(data.Nodes) {
		sec := Section{ID: g.Type, Title: g.Type}
		if sec.Title == "" {
			sec.Title = "(untyped)"
		}
		for _, n := range g.Nodes {
			sec.Color = n.Color
			sec.Items = append(sec.Items, Item{
				Key:   n.ID,
				Label: n.Name,
				Value: float64(n.Val),
				Unit:  "size",
				Note:  fmt.Sprintf("%d observations", len(n.Observations)),
				Color: n.Color,
			})
		}
		view.Sections = append(view.Sections, sec)
	}

	for _, r := range results {
		unit := ""
		if strings.Contains(r.Name, "Relations") || strings.Contains(r.Name, "Isolated") {
			unit = "%"
		}
		view.Checks.Items = append(view.Checks.Items, Item{
			Key:    itemKey(r.Name),
			Label:  r.Name,
			Value:  r.Value,
			Unit:   unit,
			Status: r.Status,
			Note:   r.Detail,
		})
	}
	return view
}

// Header is the one-line dataset summary.
func (v SummaryView) Header() string {
	return fmt.Sprintf("%d entities • %d relations", v.Entities, v.Relations)
}

func (v SummaryView) SectionByID(id string) *Section {
	if id == SectionChecks {
		return &v.Checks
	}
	for i := range v.Sections {
		if v.Sections[i].ID == id {
			return &v.Sections[i]
		}
	}
	return nil
}

func (s Section) ItemByKey(key string) *Item {
	for i := range s.Items {
		if s.Items[i].Key == key {
			return &s.Items[i]
		}
	}
	return nil
}
