// Package assets bundles the static resources shipped with the binaries.
package assets

import (
	"bytes"
	_ "embed"

	"neron/internal/graph"
)

// Viewer is the force-graph page served by the renderer.
//
//go:embed viewer.html
var Viewer []byte

//go:embed graph.json
var datasetJSON []byte

// Dataset decodes the bundled knowledge graph.
func Dataset() (graph.Dataset, error) {
	return graph.Decode(bytes.NewReader(datasetJSON))
}
