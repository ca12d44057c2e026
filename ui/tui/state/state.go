package state

import (
	"time"

	"neron/internal/bridge"
	"neron/internal/detail"
	"neron/internal/output"
)

type Page int

const (
	PageOverview Page = iota
	PageDetail
	PageConsole
)

// AppState holds everything the views render from.
type AppState struct {
	CurrentPage Page

	// Dataset
	Loading    bool
	LoadErr    error
	Payload    *output.PipelinePayload
	LastUpdate time.Time
	Source     string

	// Render surface
	Bridge    bridge.State
	BridgeErr error
	RenderErr string

	// Detail drill-down
	Detail *detail.Detail
	Depth  int

	ConsoleLogs []string
}

// HasData reports whether a dataset is loaded.
func (s AppState) HasData() bool {
	return s.Payload != nil
}
