// Package graph defines the record types and derivations for formula graphs.
//
// This package is the canonical wire format for FormulaGraph's data, used for
// JSON files, API responses, storage, and caching.
//
// # Core Types
//
//   - [Domain]: a named category of knowledge
//   - [Formula]: a textual principle tagged with an ordered list of domain IDs
//   - [Edge]: a precomputed association between two formulas sharing a domain
//   - [ReplicaRow]: one (principle, domain-pair) row of the replicated view
//   - [Dataset]: the three record collections bundled for import/export
//
// # Derivations
//
//   - [BuildLookup]: domain ID → {name, color, index} with palette colors
//   - [ResolveDomains]: expand a formula's domain IDs into resolved records
//   - [BuildEdges]: recompute the shared-domain edge set from formulas
//
// # Color Stability
//
// Colors are assigned by a domain's position in the input sequence, cycling
// through a fixed 15-entry palette. The same domain can therefore receive a
// different color across calls when the input order changes. Consumers must
// derive legend colors and node colors from the same call's lookup.
//
// # Edge Direction
//
// Edges are undirected. [BuildEdges] emits each unordered pair exactly once
// with FormulaA < FormulaB; use [Edge.Pair] when keying externally supplied
// edges that may not be normalized.
//
// # Concurrency
//
// All functions are pure and safe for concurrent use.
package graph
