package graph

import (
	"slices"
	"time"
)

// =============================================================================
// Records - Canonical Wire Format
// =============================================================================

// Domain is a named category of knowledge a formula can belong to.
// IDs are opaque; names are expected unique (enforced by the store, not here).
type Domain struct {
	ID        string    `json:"id" bson:"id"`
	Name      string    `json:"name" bson:"name"`
	CreatedAt time.Time `json:"created_at,omitempty" bson:"created_at,omitempty"`
}

// Formula is a textual principle associated with zero or more domains.
// The first entry of DomainIDs is the primary domain, used for default
// grouping and coloring.
type Formula struct {
	ID        string    `json:"id" bson:"id"`
	Principle string    `json:"principle" bson:"principle"`
	Reference string    `json:"reference,omitempty" bson:"reference,omitempty"`
	DomainIDs []string  `json:"domain_ids" bson:"domain_ids"`
	CreatedAt time.Time `json:"created_at,omitempty" bson:"created_at,omitempty"`
}

// PrimaryDomain returns the first domain ID, or "" when the formula has none.
func (f *Formula) PrimaryDomain() string {
	if len(f.DomainIDs) == 0 {
		return ""
	}
	return f.DomainIDs[0]
}

// HasDomain reports whether the formula is tagged with the given domain ID.
func (f *Formula) HasDomain(domainID string) bool {
	return slices.Contains(f.DomainIDs, domainID)
}

// Edge is a precomputed association between two formulas that share at least
// one domain. Weight is the number of shared domains (≥1).
type Edge struct {
	FormulaA        string   `json:"formula_a_id" bson:"formula_a_id"`
	FormulaB        string   `json:"formula_b_id" bson:"formula_b_id"`
	Weight          int      `json:"edge_weight" bson:"edge_weight"`
	SharedDomainIDs []string `json:"shared_domain_ids,omitempty" bson:"shared_domain_ids,omitempty"`
}

// Pair returns the unordered endpoint pair in lexicographic order.
// Edges are undirected; keying by Pair makes (A,B) and (B,A) collide.
func (e *Edge) Pair() (string, string) {
	if e.FormulaB < e.FormulaA {
		return e.FormulaB, e.FormulaA
	}
	return e.FormulaA, e.FormulaB
}

// ReplicaRow is one row of the replicated-nodes view: a principle paired with
// one of its domain pairs. The view materializes one node per
// (principle, domain) and connects replicas of the same principle.
type ReplicaRow struct {
	ID         string `json:"id" bson:"id"`
	Principle  string `json:"principle" bson:"principle"`
	Reference  string `json:"reference,omitempty" bson:"reference,omitempty"`
	FromDomain string `json:"from_domain" bson:"from_domain"`
	ToDomain   string `json:"to_domain" bson:"to_domain"`
}

// Dataset bundles the three record collections for import/export and caching.
type Dataset struct {
	Domains  []Domain  `json:"domains" bson:"domains"`
	Formulas []Formula `json:"formulas" bson:"formulas"`
	Edges    []Edge    `json:"edges" bson:"edges"`
}

// Empty reports whether the dataset holds no domains and no formulas.
func (d *Dataset) Empty() bool {
	return len(d.Domains) == 0 && len(d.Formulas) == 0
}
