package graph

import "testing"

func TestBuildEdges(t *testing.T) {
	formulas := []Formula{
		{ID: "f2", DomainIDs: []string{"a", "b"}},
		{ID: "f1", DomainIDs: []string{"b", "c", "a"}},
		{ID: "f3", DomainIDs: []string{"z"}},
	}

	edges := BuildEdges(formulas)
	if len(edges) != 1 {
		t.Fatalf("got %d edges, want 1", len(edges))
	}

	e := edges[0]
	if e.FormulaA != "f1" || e.FormulaB != "f2" {
		t.Errorf("endpoints = (%s,%s), want normalized (f1,f2)", e.FormulaA, e.FormulaB)
	}
	if e.Weight != 2 {
		t.Errorf("weight = %d, want 2", e.Weight)
	}
	// Shared IDs follow the first formula's domain order
	if len(e.SharedDomainIDs) != 2 || e.SharedDomainIDs[0] != "a" || e.SharedDomainIDs[1] != "b" {
		t.Errorf("shared = %v, want [a b]", e.SharedDomainIDs)
	}
}

func TestBuildEdgesEmpty(t *testing.T) {
	if edges := BuildEdges(nil); len(edges) != 0 {
		t.Errorf("nil input should yield no edges, got %d", len(edges))
	}
	if edges := BuildEdges([]Formula{{ID: "solo", DomainIDs: []string{"a"}}}); len(edges) != 0 {
		t.Errorf("single formula should yield no edges, got %d", len(edges))
	}
}

func TestBuildEdgesNoSelfPairs(t *testing.T) {
	formulas := []Formula{
		{ID: "f1", DomainIDs: []string{"a"}},
		{ID: "f2", DomainIDs: []string{"a"}},
		{ID: "f3", DomainIDs: []string{"a"}},
	}

	edges := BuildEdges(formulas)
	if len(edges) != 3 {
		t.Fatalf("got %d edges, want 3 (each pair once)", len(edges))
	}
	seen := map[[2]string]bool{}
	for _, e := range edges {
		a, b := e.Pair()
		if a == b {
			t.Errorf("self edge %s", a)
		}
		key := [2]string{a, b}
		if seen[key] {
			t.Errorf("duplicate pair %v", key)
		}
		seen[key] = true
	}
}

func TestEdgePair(t *testing.T) {
	e := Edge{FormulaA: "zz", FormulaB: "aa"}
	a, b := e.Pair()
	if a != "aa" || b != "zz" {
		t.Errorf("Pair() = (%s,%s), want (aa,zz)", a, b)
	}
}

func TestBuildReplicaRows(t *testing.T) {
	formulas := []Formula{
		{ID: "f1", Principle: "p1", DomainIDs: []string{"a", "b", "c"}},
		{ID: "f2", Principle: "p2", DomainIDs: []string{"x"}},
	}

	rows := BuildReplicaRows(formulas)
	// 3 domains → C(3,2) = 3 pairs; single-domain formulas produce none.
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	for _, r := range rows {
		if r.ID != "f1" {
			t.Errorf("row id = %s, want f1", r.ID)
		}
		if r.FromDomain == r.ToDomain {
			t.Errorf("degenerate pair %s", r.FromDomain)
		}
	}
}
