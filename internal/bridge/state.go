package bridge

// State is the host-side lifecycle of the render surface.
type State int

const (
	Uninitialized State = iota
	AssetResolving
	Loading
	Ready
	Error
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case AssetResolving:
		return "AssetResolving"
	case Loading:
		return "Loading"
	case Ready:
		return "Ready"
	case Error:
		return "Error"
	}
	return "State(?)"
}

// Busy reports whether the surface is still coming up.
func (s State) Busy() bool {
	return s == AssetResolving || s == Loading
}
