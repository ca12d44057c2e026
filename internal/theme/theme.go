// Package theme defines the two built-in color themes and the node-type color
// tables the graph adapter resolves against.
package theme

import (
	"fmt"
	"strings"
)

// Name identifies a built-in theme.
type Name string

const (
	Matrix  Name = "matrix"
	Regular Name = "regular"
)

// Default is the theme selected when nothing else is configured.
const Default = Matrix

// Palette holds the UI chrome colors for a theme.
type Palette struct {
	Background    string
	Primary       string
	Secondary     string
	Accent        string
	Text          string
	TextSecondary string
	Border        string
	Success       string
	Error         string
	Warning       string
	Link          string
	ConsoleText   string
}

// RenderParams are the settings the renderer applies to the 3D scene.
type RenderParams struct {
	Background     string  `json:"background"`
	LinkColor      string  `json:"linkColor"`
	BloomStrength  float64 `json:"bloomStrength"`
	BloomRadius    float64 `json:"bloomRadius"`
	BloomThreshold float64 `json:"bloomThreshold"`
}

// Theme is an immutable named color configuration.
type Theme struct {
	Name             Name
	Colors           Palette
	Render           RenderParams
	NodeColors       map[string]string
	DefaultNodeColor string
}

// NodeColor resolves the color for a node type. Matching is exact and
// case-sensitive; anything not in the table gets DefaultNodeColor.
func (t Theme) NodeColor(nodeType string) string {
	if c, ok := t.NodeColors[nodeType]; ok {
		return c
	}
	return t.DefaultNodeColor
}

// Label picks between the matrix-styled and the regular wording of a UI string.
func (t Theme) Label(matrix, regular string) string {
	if t.Name == Matrix {
		return matrix
	}
	return regular
}

var matrixTheme = Theme{
	Name: Matrix,
	Colors: Palette{
		Background:    "#000003",
		Primary:       "#00FF41",
		Secondary:     "#00DD35",
		Accent:        "#00BB29",
		Text:          "#00FF41",
		TextSecondary: "#00DD35",
		Border:        "#00FF41",
		Success:       "#00FF41",
		Error:         "#FF0041",
		Warning:       "#FFFF00",
		Link:          "#004d1a",
		ConsoleText:   "#00FF41",
	},
	Render: RenderParams{
		Background:     "#000000",
		LinkColor:      "#004d1a",
		BloomStrength:  1.5,
		BloomRadius:    0.8,
		BloomThreshold: 0.1,
	},
	NodeColors: map[string]string{
		"Project":                "#00FF41",
		"Bug Fix":                "#FF4444",
		"Feature":                "#00DD35",
		"Component":              "#00BB29",
		"Architecture":           "#44FF44",
		"Infrastructure":         "#00AA22",
		"Strategy":               "#FFAA00",
		"Problem Analysis":       "#FF6666",
		"Feature Implementation": "#00CC30",
		"Architecture Strategy":  "#44CCFF",
	},
	DefaultNodeColor: "#00FF41",
}

var regularTheme = Theme{
	Name: Regular,
	Colors: Palette{
		Background:    "#000003",
		Primary:       "#74B9FF",
		Secondary:     "#81ECEC",
		Accent:        "#A29BFE",
		Text:          "#FFFFFF",
		TextSecondary: "#74B9FF",
		Border:        "#2D3436",
		Success:       "#00B894",
		Error:         "#FF6B6B",
		Warning:       "#FDCB6E",
		Link:          "#64748b",
		ConsoleText:   "#74B9FF",
	},
	Render: RenderParams{
		Background:     "#1e293b",
		LinkColor:      "#64748b",
		BloomStrength:  1.0,
		BloomRadius:    0.6,
		BloomThreshold: 0.2,
	},
	NodeColors: map[string]string{
		"Project":                "#3b82f6",
		"Bug Fix":                "#ef4444",
		"Feature":                "#10b981",
		"Component":              "#8b5cf6",
		"Architecture":           "#06b6d4",
		"Infrastructure":         "#64748b",
		"Strategy":               "#f59e0b",
		"Problem Analysis":       "#f87171",
		"Feature Implementation": "#14b8a6",
		"Architecture Strategy":  "#0ea5e9",
	},
	DefaultNodeColor: "#6b7280",
}

// Get returns the built-in theme with the given name.
func Get(name Name) (Theme, bool) {
	switch name {
	case Matrix:
		return matrixTheme, true
	case Regular:
		return regularTheme, true
	}
	return Theme{}, false
}

// MustGet is Get for names known at compile time. Unknown names fall back to
// the regular theme, the same way the renderer treats them.
func MustGet(name Name) Theme {
	if t, ok := Get(name); ok {
		return t
	}
	return regularTheme
}

// Parse validates a theme name coming from config or the wire.
func Parse(s string) (Name, error) {
	n := Name(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := Get(n); !ok {
		return "", fmt.Errorf("unknown theme %q (want %q or %q)", s, Matrix, Regular)
	}
	return n, nil
}

// Toggle returns the other built-in theme.
func (n Name) Toggle() Name {
	if n == Matrix {
		return Regular
	}
	return Matrix
}

// All lists the built-in themes in display order.
func All() []Theme {
	return []Theme{matrixTheme, regularTheme}
}
