package scene

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/formulagraph/pkg/graph"
	"github.com/matzehuels/formulagraph/pkg/layout"
)

// =============================================================================
// Filter Parameters
// =============================================================================

// Params are the filter parameters for one assembly pass. Zero values mean
// "no filtering". Free-text search is applied upstream by the caller; the
// assembler never sees the query.
type Params struct {
	// SelectedDomains keeps items tagged with ANY of the listed domain IDs.
	// Empty means no domain filter.
	SelectedDomains []string

	// MinCount drops items whose metric (edge degree or domain count,
	// depending on view) is below the threshold.
	MinCount int

	// CrossDomainOnly drops edges whose endpoints share the same primary
	// domain.
	CrossDomainOnly bool
}

func (p *Params) domainFilterActive() bool { return len(p.SelectedDomains) > 0 }

func (p *Params) domainSelected(ids []string) bool {
	if !p.domainFilterActive() {
		return true
	}
	for _, id := range ids {
		if slices.Contains(p.SelectedDomains, id) {
			return true
		}
	}
	return false
}

// =============================================================================
// Placeable Items - shared by both views
// =============================================================================

// item is the unified placeable: something with a group key, a metric, and
// hover content. Formulas and replica nodes both reduce to this before
// layout and assembly.
type item struct {
	id        string
	principle string
	reference string
	groupKey  string   // primary domain ID, or "" for ungrouped
	domainIDs []string // for domain filter, hover, and legend visibility
	metric    int
}

// =============================================================================
// Formula View
// =============================================================================

// AssembleFormulas builds the scene for the formula view: one node per
// formula, sized by edge degree, clustered by primary domain.
//
// Degree is computed over the domain-filtered set, counting every edge
// endpoint that survives the domain filter; externally supplied edge lists
// are not deduplicated, so an (A,B)/(B,A) duplicate counts twice.
func AssembleFormulas(formulas []graph.Formula, domains []graph.Domain, edges []graph.Edge, p Params) *Scene {
	lookup := graph.BuildLookup(domains)

	// Domain-membership filter.
	kept := make([]graph.Formula, 0, len(formulas))
	for _, f := range formulas {
		if p.domainSelected(f.DomainIDs) {
			kept = append(kept, f)
		}
	}

	// Degree over the filtered set.
	degree := make(map[string]int, len(kept))
	for _, f := range kept {
		degree[f.ID] = 0
	}
	for _, e := range edges {
		if _, ok := degree[e.FormulaA]; ok {
			degree[e.FormulaA]++
		}
		if _, ok := degree[e.FormulaB]; ok {
			degree[e.FormulaB]++
		}
	}

	items := make([]item, 0, len(kept))
	for _, f := range kept {
		if degree[f.ID] < p.MinCount {
			continue
		}
		items = append(items, item{
			id:        f.ID,
			principle: f.Principle,
			reference: f.Reference,
			groupKey:  f.PrimaryDomain(),
			domainIDs: f.DomainIDs,
			metric:    degree[f.ID],
		})
	}

	return assemble(items, edges, domains, lookup, p, "Connections")
}

// =============================================================================
// Replicated-Nodes View
// =============================================================================

// AssembleReplicas builds the scene for the replicated-nodes view. Each
// principle is expanded into one replica node per domain it belongs to; the
// pair rows become edges between replicas of the same principle. The metric
// is the principle's distinct domain count.
func AssembleReplicas(rows []graph.ReplicaRow, domains []graph.Domain, p Params) *Scene {
	lookup := graph.BuildLookup(domains)

	// Reconstruct per-principle domain sets, keeping row order.
	type principle struct {
		id        string
		principle string
		reference string
		domainIDs []string
	}
	var order []string
	byID := make(map[string]*principle)
	for _, r := range rows {
		pr, ok := byID[r.ID]
		if !ok {
			pr = &principle{id: r.ID, principle: r.Principle, reference: r.Reference}
			byID[r.ID] = pr
			order = append(order, r.ID)
		}
		for _, d := range []string{r.FromDomain, r.ToDomain} {
			if !slices.Contains(pr.domainIDs, d) {
				pr.domainIDs = append(pr.domainIDs, d)
			}
		}
	}

	var items []item
	var edges []graph.Edge
	for _, id := range order {
		pr := byID[id]
		if !p.domainSelected(pr.domainIDs) {
			continue
		}
		metric := len(pr.domainIDs)
		if metric < p.MinCount {
			continue
		}
		for _, d := range pr.domainIDs {
			items = append(items, item{
				id:        replicaID(pr.id, d),
				principle: pr.principle,
				reference: pr.reference,
				groupKey:  d,
				domainIDs: pr.domainIDs,
				metric:    metric,
			})
		}
	}
	for _, r := range rows {
		edges = append(edges, graph.Edge{
			FormulaA:        replicaID(r.ID, r.FromDomain),
			FormulaB:        replicaID(r.ID, r.ToDomain),
			Weight:          1,
			SharedDomainIDs: []string{r.FromDomain},
		})
	}

	return assemble(items, edges, domains, lookup, p, "Domains")
}

func replicaID(principleID, domainID string) string {
	return principleID + "/" + domainID
}

// =============================================================================
// Core Assembly
// =============================================================================

// assemble turns filtered items plus edges into a scene. Items arriving here
// have already passed the domain and min-count filters; edge filtering,
// layout, sizing, hover text, and the legend happen here.
func assemble(items []item, edges []graph.Edge, domains []graph.Domain, lookup graph.Lookup, p Params, metricLabel string) *Scene {
	if len(items) == 0 {
		return noData()
	}

	index := make(map[string]int, len(items))
	groupKeys := make([]string, len(items))
	maxMetric := 0
	for i, it := range items {
		index[it.id] = i
		groupKeys[i] = it.groupKey
		if it.metric > maxMetric {
			maxMetric = it.metric
		}
	}

	positions := layout.Positions(groupKeys)

	s := &Scene{}

	// Edges first so markers draw on top.
	for _, e := range edges {
		ai, ok := index[e.FormulaA]
		if !ok {
			continue
		}
		bi, ok := index[e.FormulaB]
		if !ok {
			continue
		}
		if p.CrossDomainOnly && items[ai].groupKey == items[bi].groupKey {
			continue
		}

		color := graph.NeutralColor
		if len(e.SharedDomainIDs) > 0 {
			if info, ok := lookup[e.SharedDomainIDs[0]]; ok {
				color = info.Color
			}
		}

		width := float64(e.Weight) * EdgeWidthFactor
		if width < MinEdgeWidth {
			width = MinEdgeWidth
		}
		if width > MaxEdgeWidth {
			width = MaxEdgeWidth
		}

		s.Lines = append(s.Lines, Line{
			X0: positions[ai].X, Y0: positions[ai].Y,
			X1: positions[bi].X, Y1: positions[bi].Y,
			Width:   width,
			Color:   color,
			Opacity: EdgeOpacity,
		})
	}

	for i, it := range items {
		color := graph.NeutralColor
		if info, ok := lookup[it.groupKey]; ok {
			color = info.Color
		}

		size := MinMarkerSize
		if maxMetric > 0 {
			size = MinMarkerSize + float64(it.metric)/float64(maxMetric)*(MaxMarkerSize-MinMarkerSize)
		}

		s.Markers = append(s.Markers, Marker{
			ID:    it.id,
			X:     positions[i].X,
			Y:     positions[i].Y,
			Size:  size,
			Color: color,
			Hover: hoverText(it, lookup, metricLabel),
		})
	}

	// Legend: domains with at least one surviving node, or every domain when
	// no domain filter is active. Iterate in input domain order.
	for _, d := range domains {
		info, ok := lookup[d.ID]
		if !ok {
			continue
		}
		hasNodes := false
		for _, it := range items {
			if slices.Contains(it.domainIDs, d.ID) {
				hasNodes = true
				break
			}
		}
		if hasNodes || !p.domainFilterActive() {
			s.Legend = append(s.Legend, LegendEntry{Label: info.Name, Color: info.Color})
		}
	}

	return s
}

// hoverText formats the marker hover block: wrapped principle, resolved
// domain names, reference (or the "N/A" sentinel), and the metric count.
func hoverText(it item, lookup graph.Lookup, metricLabel string) string {
	f := graph.Formula{DomainIDs: it.domainIDs}
	names := make([]string, 0, len(it.domainIDs))
	for _, info := range graph.ResolveDomains(&f, lookup) {
		names = append(names, info.Name)
	}
	domainsLine := "None"
	if len(names) > 0 {
		domainsLine = strings.Join(names, ", ")
	}
	reference := "N/A"
	if it.reference != "" {
		reference = wordWrap(it.reference, WrapWidth)
	}

	return fmt.Sprintf("Principle:\n%s\n\nDomains: %s\n\nReference: %s\n\n%s: %d",
		wordWrap(it.principle, WrapWidth), domainsLine, reference, metricLabel, it.metric)
}
