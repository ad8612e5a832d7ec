package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/formulagraph/pkg/graph"
)

// Options configures node-link diagram generation.
type Options struct {
	// Detailed includes reference text and domain names in node labels.
	// When false, only the wrapped principle is shown.
	Detailed bool

	// LabelWidth is the column at which principle text wraps inside node
	// labels. Zero means the default of 24.
	LabelWidth int
}

const defaultLabelWidth = 24

// ToDOT converts formulas, domains and edges to Graphviz DOT format.
// The formula graph is undirected, so edges use "--" inside "graph G".
//
// Nodes are filled with their primary domain's palette color (neutral gray
// for untagged formulas); edge pen width follows the shared-domain weight.
// Colors derive from the supplied domain sequence, so a DOT export and a
// scene assembled from the same records agree on every color.
func ToDOT(formulas []graph.Formula, domains []graph.Domain, edges []graph.Edge, opts Options) string {
	lookup := graph.BuildLookup(domains)
	width := opts.LabelWidth
	if width <= 0 {
		width = defaultLabelWidth
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=ellipse, style=filled, fontsize=12];\n")
	buf.WriteString("\n")

	known := make(map[string]bool, len(formulas))
	for i := range formulas {
		f := &formulas[i]
		known[f.ID] = true
		fill := graph.NeutralColor
		if info, ok := lookup[f.PrimaryDomain()]; ok {
			fill = info.Color
		}
		fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=%q];\n",
			f.ID, fmtLabel(f, lookup, opts.Detailed, width), fill)
	}

	buf.WriteString("\n")
	for _, e := range edges {
		if !known[e.FormulaA] || !known[e.FormulaB] {
			continue
		}
		fmt.Fprintf(&buf, "  %q -- %q [penwidth=%.1f];\n", e.FormulaA, e.FormulaB, float64(e.Weight))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(f *graph.Formula, lookup graph.Lookup, detailed bool, width int) string {
	label := wrap(f.Principle, width)
	if !detailed {
		return label
	}

	var names []string
	for _, info := range graph.ResolveDomains(f, lookup) {
		names = append(names, info.Name)
	}
	if len(names) > 0 {
		label += "\n[" + strings.Join(names, ", ") + "]"
	}
	if f.Reference != "" {
		label += "\n" + wrap(f.Reference, width)
	}
	return label
}

func wrap(text string, width int) string {
	words := strings.Fields(text)
	var lines []string
	var cur string
	for _, w := range words {
		switch {
		case cur == "":
			cur = w
		case len(cur)+1+len(w) > width:
			lines = append(lines, cur)
			cur = w
		default:
			cur += " " + w
		}
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return strings.Join(lines, "\n")
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
