package graph

import "slices"

// =============================================================================
// Edge Derivation
// =============================================================================

// BuildEdges recomputes the shared-domain edge set from a formula collection.
// It emits one edge per unordered formula pair that shares at least one
// domain, with FormulaA < FormulaB, Weight = number of shared domains, and
// SharedDomainIDs in the first formula's domain order.
//
// Output order is deterministic: pairs follow the input formula order.
// An empty or single-formula input yields an empty edge set.
func BuildEdges(formulas []Formula) []Edge {
	var edges []Edge
	for i := range formulas {
		for j := i + 1; j < len(formulas); j++ {
			shared := sharedDomains(&formulas[i], &formulas[j])
			if len(shared) == 0 {
				continue
			}
			e := Edge{
				FormulaA:        formulas[i].ID,
				FormulaB:        formulas[j].ID,
				Weight:          len(shared),
				SharedDomainIDs: shared,
			}
			if e.FormulaB < e.FormulaA {
				e.FormulaA, e.FormulaB = e.FormulaB, e.FormulaA
			}
			edges = append(edges, e)
		}
	}
	return edges
}

// BuildReplicaRows expands formulas into the replicated-nodes view: one row
// per (principle, ordered pair of its domains). Formulas with fewer than two
// domains produce no rows.
func BuildReplicaRows(formulas []Formula) []ReplicaRow {
	var rows []ReplicaRow
	for i := range formulas {
		f := &formulas[i]
		for a := 0; a < len(f.DomainIDs); a++ {
			for b := a + 1; b < len(f.DomainIDs); b++ {
				rows = append(rows, ReplicaRow{
					ID:         f.ID,
					Principle:  f.Principle,
					Reference:  f.Reference,
					FromDomain: f.DomainIDs[a],
					ToDomain:   f.DomainIDs[b],
				})
			}
		}
	}
	return rows
}

// sharedDomains returns the domain IDs present in both formulas, in a's order.
func sharedDomains(a, b *Formula) []string {
	var shared []string
	for _, id := range a.DomainIDs {
		if slices.Contains(b.DomainIDs, id) {
			shared = append(shared, id)
		}
	}
	return shared
}
