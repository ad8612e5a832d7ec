// Package store persists domains and formulas behind a single Store
// interface with memory, SQLite, and MongoDB backends.
//
// All backends share the same semantics: domain names are unique
// (case-insensitive), formula domain tags keep their insertion order,
// and deleting a domain either cascades into its formulas or fails
// while formulas still reference it.
package store

import (
	"context"

	"github.com/matzehuels/formulagraph/pkg/graph"
)

// ============================================================================
// Interface
// ============================================================================

// Store is the persistence boundary for domains and formulas.
//
// Implementations must be safe for concurrent use. All methods return
// structured errors from pkg/errors so callers can branch on error codes.
type Store interface {
	// CreateDomain inserts a new domain with the given name.
	// Returns ErrCodeDuplicateName if a domain with the same name
	// (case-insensitive) already exists.
	CreateDomain(ctx context.Context, name string) (*graph.Domain, error)

	// GetDomain fetches a domain by ID.
	GetDomain(ctx context.Context, id string) (*graph.Domain, error)

	// ListDomains returns all domains ordered by creation time.
	ListDomains(ctx context.Context) ([]graph.Domain, error)

	// RenameDomain changes a domain's name, enforcing uniqueness.
	RenameDomain(ctx context.Context, id, name string) (*graph.Domain, error)

	// DeleteDomain removes a domain. With cascade, formulas tagged only
	// with this domain are deleted and the tag is stripped from the rest.
	// Without cascade the call fails with ErrCodeInvalidInput while any
	// formula still references the domain.
	DeleteDomain(ctx context.Context, id string, cascade bool) error

	// CreateFormula inserts a new formula. Unknown domain IDs are
	// rejected with ErrCodeDomainNotFound.
	CreateFormula(ctx context.Context, principle, reference string, domainIDs []string) (*graph.Formula, error)

	// GetFormula fetches a formula by ID.
	GetFormula(ctx context.Context, id string) (*graph.Formula, error)

	// ListFormulas returns all formulas ordered by creation time.
	ListFormulas(ctx context.Context) ([]graph.Formula, error)

	// UpdateFormula replaces a formula's principle, reference, and
	// domain tags.
	UpdateFormula(ctx context.Context, id, principle, reference string, domainIDs []string) (*graph.Formula, error)

	// DeleteFormula removes a formula by ID.
	DeleteFormula(ctx context.Context, id string) error

	// Dataset loads the full dataset with derived edges, ready for
	// assembly or export.
	Dataset(ctx context.Context) (*graph.Dataset, error)

	// Close releases backend resources.
	Close() error
}
