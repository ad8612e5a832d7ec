// Package render provides graph export rendering.
//
// The [nodelink] subpackage renders the formula graph as a traditional
// node-link diagram using Graphviz: formulas appear as colored nodes
// connected by undirected edges weighted by shared-domain count.
//
//	dot := nodelink.ToDOT(ds.Formulas, ds.Domains, ds.Edges, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//
// The interactive scene format lives in the scene package; this package
// covers static file export only.
//
// [nodelink]: github.com/matzehuels/formulagraph/pkg/render/nodelink
package render
