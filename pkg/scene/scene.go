// Package scene assembles formula graphs into renderable scenes.
//
// A scene is the single interface between this core and whatever rendering
// surface displays it: a list of line-segment primitives (edges), a list of
// point-marker primitives (nodes, with rich hover text), and a legend. The
// assembler is a pure, stateless transform from (records, filter parameters)
// to a scene; every invocation is independent and idempotent.
//
// Two views feed the same assembly path: the formula view (one node per
// formula, metric = edge degree) and the replicated-nodes view (one node per
// principle/domain pair, metric = domain count). Both reduce to placeable
// items with a group key before layout and assembly.
package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// =============================================================================
// Rendering Constants - Single Source of Truth
// =============================================================================

const (
	// MinMarkerSize and MaxMarkerSize bound node marker sizes. Sizes scale
	// linearly with metric/maxMetric between the two.
	MinMarkerSize = 12.0
	MaxMarkerSize = 40.0

	// EdgeWidthFactor scales edge weight into line width before clamping.
	EdgeWidthFactor = 1.5

	// MinEdgeWidth and MaxEdgeWidth clamp the scaled line width.
	MinEdgeWidth = 1.0
	MaxEdgeWidth = 6.0

	// EdgeOpacity is the fixed opacity for edge lines.
	EdgeOpacity = 0.4

	// WrapWidth is the column at which hover text is word-wrapped.
	WrapWidth = 60

	// NoDataAnnotation is the placeholder for scenes with no surviving nodes.
	NoDataAnnotation = "No formulas to display"
)

// =============================================================================
// Scene - Renderable Output
// =============================================================================

// Scene is the renderable output of assembly. Lines are ordered before
// markers so node markers are never obscured by edges.
type Scene struct {
	Lines      []Line        `json:"lines"`
	Markers    []Marker      `json:"markers"`
	Legend     []LegendEntry `json:"legend"`
	Annotation string        `json:"annotation,omitempty"`
}

// Line is a single edge segment. Lines carry no hover content.
type Line struct {
	X0      float64 `json:"x0"`
	Y0      float64 `json:"y0"`
	X1      float64 `json:"x1"`
	Y1      float64 `json:"y1"`
	Width   float64 `json:"width"`
	Color   string  `json:"color"`
	Opacity float64 `json:"opacity"`
}

// Marker is a single node marker with hover text.
type Marker struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Size  float64 `json:"size"`
	Color string  `json:"color"`
	Hover string  `json:"hover"`
}

// LegendEntry is one legend swatch: a domain color and its label.
type LegendEntry struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// Empty reports whether the scene carries no drawable primitives.
func (s *Scene) Empty() bool {
	return len(s.Lines) == 0 && len(s.Markers) == 0
}

// noData returns the explicit placeholder scene produced when filtering
// eliminates every node.
func noData() *Scene {
	return &Scene{Annotation: NoDataAnnotation}
}

// =============================================================================
// JSON Sink
// =============================================================================

// Marshal converts a scene to indented JSON bytes.
func Marshal(s *Scene) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSON(s, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON writes a scene as JSON to an io.Writer.
func WriteJSON(s *Scene, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode scene: %w", err)
	}
	return nil
}
