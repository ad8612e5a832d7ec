// Package nodelink renders formula graphs as traditional node-link diagrams.
//
// # Overview
//
// This package produces an alternative, static visualization of the formula
// graph using Graphviz: formulas appear as colored ellipses connected by
// weighted edges. It complements the interactive scene produced by
// [github.com/matzehuels/formulagraph/pkg/scene], which remains the primary
// rendering surface.
//
// # Usage
//
// Convert records to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(formulas, domains, edges, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//
// # DOT Format
//
// [ToDOT] produces Graphviz DOT source that can be:
//
//   - Rendered in-process via [RenderSVG]
//   - Saved and processed with external Graphviz tools
//   - Customized before rendering
//
// The graph is undirected ("graph" with "--" edges) and uses the neato
// engine, which suits the clustered, non-hierarchical shape of formula
// graphs.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering; no external Graphviz installation is required.
package nodelink
