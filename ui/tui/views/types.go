package views

import (
	"neron/ui/tui/state"
	"neron/ui/tui/styles"
)

// ViewProps contains UI-specific properties provided by the Controller.
type ViewProps struct {
	Width, Height  int
	MouseX, MouseY int
	Styles         styles.Styles

	// Component States
	Cursor      int
	AnimCursor  float64
	SpinnerView string
	MinimapView string
	ScrollY     int
}

// View defines the contract for any renderable page in the TUI.
type View interface {
	Render(s state.AppState, props ViewProps) string
}
