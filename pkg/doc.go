// Package pkg provides the core libraries for FormulaGraph visualization.
//
// # Overview
//
// FormulaGraph renders a corpus of first-principle formulas as an
// interactive graph, clustering formulas by the knowledge domains that tag
// them. The pkg directory is organized into a handful of focused areas:
//
//  1. [graph] - Domain model (formulas, domains, edges, palette, datasets)
//  2. [layout] - Radial domain-clustered coordinate computation
//  3. [scene] - Plot-ready scene assembly (markers, lines, legend)
//  4. [render/nodelink] - Graphviz DOT/SVG export
//  5. [cache] - Record and scene caches (memory, Redis)
//  6. [errors] - Structured error codes shared across layers
//  7. [observability] - Optional instrumentation hooks
//
// # Architecture
//
// The typical data flow:
//
//	Store (memory / SQLite / MongoDB)
//	         ↓
//	    [graph] package (records, derived edges, colors)
//	         ↓
//	    [layout] package (radial group + node positions)
//	         ↓
//	    [scene] package (markers, lines, legend, annotation)
//	         ↓
//	    JSON scene / DOT / SVG output
//
// # Quick Start
//
// Assemble a scene from a dataset file:
//
//	ds, _ := graph.ReadDatasetFile("dataset.json")
//	sc := scene.AssembleFormulas(ds.Formulas, ds.Domains, ds.Edges, scene.Params{})
//	data, _ := scene.Marshal(sc)
//
// Export the same dataset as a Graphviz diagram:
//
//	dot := nodelink.ToDOT(ds.Formulas, ds.Domains, ds.Edges, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//
// # Main Packages
//
// [graph] - Formula and domain records, the fixed 15-color domain palette
// with positional assignment, shared-domain edge derivation, replica-row
// grouping, and the JSON dataset format used by the CLI.
//
// [layout] - Deterministic radial layout: domain groups on a circle of
// radius 3, members in concentric rings of eight around their group center.
//
// [scene] - Turns records plus layout positions into a serializable scene:
// edge lines drawn beneath sized and colored markers, a per-domain legend,
// and an empty-state annotation.
//
// [render/nodelink] - Graphviz node-link export via go-graphviz.
//
// [cache] - A byte cache interface with memory, Redis, and null
// implementations, plus a short-TTL get-or-fetch record cache.
//
// [errors] - Coded errors ([errors.New], [errors.Wrap]) and the input
// validators shared by every store backend.
//
// [observability] - Hook registry for cache and request instrumentation.
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/formulagraph/pkg/graph
// [layout]: https://pkg.go.dev/github.com/matzehuels/formulagraph/pkg/layout
// [scene]: https://pkg.go.dev/github.com/matzehuels/formulagraph/pkg/scene
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/formulagraph/pkg/render/nodelink
// [cache]: https://pkg.go.dev/github.com/matzehuels/formulagraph/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/formulagraph/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/formulagraph/pkg/observability
package pkg
