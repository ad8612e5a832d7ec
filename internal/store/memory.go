package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/matzehuels/formulagraph/pkg/errors"
	"github.com/matzehuels/formulagraph/pkg/graph"
)

// ============================================================================
// In-memory backend
// ============================================================================

// MemoryStore is a thread-safe in-memory Store. It backs tests and the
// default development setup where no database is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	domains  map[string]graph.Domain
	formulas map[string]graph.Formula
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		domains:  make(map[string]graph.Domain),
		formulas: make(map[string]graph.Formula),
	}
}

// ============================================================================
// Domains
// ============================================================================

// CreateDomain inserts a new domain with the given name.
func (s *MemoryStore) CreateDomain(_ context.Context, name string) (*graph.Domain, error) {
	name = strings.TrimSpace(name)
	if err := apperrors.ValidateDomainName(name); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.domains {
		if strings.EqualFold(d.Name, name) {
			return nil, apperrors.New(apperrors.ErrCodeDuplicateName, "domain %q already exists", name)
		}
	}

	d := graph.Domain{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	s.domains[d.ID] = d
	return &d, nil
}

// GetDomain fetches a domain by ID.
func (s *MemoryStore) GetDomain(_ context.Context, id string) (*graph.Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.domains[id]
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeDomainNotFound, "domain %s not found", id)
	}
	return &d, nil
}

// ListDomains returns all domains ordered by creation time.
func (s *MemoryStore) ListDomains(_ context.Context) ([]graph.Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedDomains(), nil
}

// RenameDomain changes a domain's name, enforcing uniqueness.
func (s *MemoryStore) RenameDomain(_ context.Context, id, name string) (*graph.Domain, error) {
	name = strings.TrimSpace(name)
	if err := apperrors.ValidateDomainName(name); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.domains[id]
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeDomainNotFound, "domain %s not found", id)
	}
	for _, other := range s.domains {
		if other.ID != id && strings.EqualFold(other.Name, name) {
			return nil, apperrors.New(apperrors.ErrCodeDuplicateName, "domain %q already exists", name)
		}
	}

	d.Name = name
	s.domains[id] = d
	return &d, nil
}

// DeleteDomain removes a domain, optionally cascading into formulas.
func (s *MemoryStore) DeleteDomain(_ context.Context, id string, cascade bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.domains[id]; !ok {
		return apperrors.New(apperrors.ErrCodeDomainNotFound, "domain %s not found", id)
	}

	var tagged []string
	for fid, f := range s.formulas {
		if f.HasDomain(id) {
			tagged = append(tagged, fid)
		}
	}

	if len(tagged) > 0 && !cascade {
		return apperrors.New(apperrors.ErrCodeInvalidInput,
			"domain %s is referenced by %d formula(s); pass cascade to delete", id, len(tagged))
	}

	for _, fid := range tagged {
		f := s.formulas[fid]
		remaining := removeID(f.DomainIDs, id)
		if len(remaining) == 0 {
			delete(s.formulas, fid)
			continue
		}
		f.DomainIDs = remaining
		s.formulas[fid] = f
	}

	delete(s.domains, id)
	return nil
}

// ============================================================================
// Formulas
// ============================================================================

// CreateFormula inserts a new formula.
func (s *MemoryStore) CreateFormula(_ context.Context, principle, reference string, domainIDs []string) (*graph.Formula, error) {
	if err := validateFormulaInput(principle, reference); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.checkDomainIDs(domainIDs)
	if err != nil {
		return nil, err
	}

	f := graph.Formula{
		ID:        uuid.NewString(),
		Principle: strings.TrimSpace(principle),
		Reference: strings.TrimSpace(reference),
		DomainIDs: ids,
		CreatedAt: time.Now().UTC(),
	}
	s.formulas[f.ID] = f
	return &f, nil
}

// GetFormula fetches a formula by ID.
func (s *MemoryStore) GetFormula(_ context.Context, id string) (*graph.Formula, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.formulas[id]
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeFormulaNotFound, "formula %s not found", id)
	}
	return &f, nil
}

// ListFormulas returns all formulas ordered by creation time.
func (s *MemoryStore) ListFormulas(_ context.Context) ([]graph.Formula, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedFormulas(), nil
}

// UpdateFormula replaces a formula's fields and domain tags.
func (s *MemoryStore) UpdateFormula(_ context.Context, id, principle, reference string, domainIDs []string) (*graph.Formula, error) {
	if err := validateFormulaInput(principle, reference); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.formulas[id]
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeFormulaNotFound, "formula %s not found", id)
	}
	ids, err := s.checkDomainIDs(domainIDs)
	if err != nil {
		return nil, err
	}

	f.Principle = strings.TrimSpace(principle)
	f.Reference = strings.TrimSpace(reference)
	f.DomainIDs = ids
	s.formulas[id] = f
	return &f, nil
}

// DeleteFormula removes a formula by ID.
func (s *MemoryStore) DeleteFormula(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.formulas[id]; !ok {
		return apperrors.New(apperrors.ErrCodeFormulaNotFound, "formula %s not found", id)
	}
	delete(s.formulas, id)
	return nil
}

// ============================================================================
// Dataset
// ============================================================================

// Dataset loads the full dataset with derived edges.
func (s *MemoryStore) Dataset(_ context.Context) (*graph.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	formulas := s.sortedFormulas()
	return &graph.Dataset{
		Domains:  s.sortedDomains(),
		Formulas: formulas,
		Edges:    graph.BuildEdges(formulas),
	}, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

// ============================================================================
// Internals
// ============================================================================

// sortedDomains returns domains by creation time, then name for stability.
// Caller must hold at least a read lock.
func (s *MemoryStore) sortedDomains() []graph.Domain {
	out := make([]graph.Domain, 0, len(s.domains))
	for _, d := range s.domains {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// sortedFormulas returns formulas by creation time, then ID for stability.
// Caller must hold at least a read lock.
func (s *MemoryStore) sortedFormulas() []graph.Formula {
	out := make([]graph.Formula, 0, len(s.formulas))
	for _, f := range s.formulas {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// checkDomainIDs dedupes the given IDs preserving order and verifies each
// one exists. Caller must hold the lock.
func (s *MemoryStore) checkDomainIDs(ids []string) ([]string, error) {
	out := dedupeIDs(ids)
	for _, id := range out {
		if _, ok := s.domains[id]; !ok {
			return nil, apperrors.New(apperrors.ErrCodeDomainNotFound, "domain %s not found", id)
		}
	}
	return out, nil
}

// validateFormulaInput applies the shared field validation rules.
func validateFormulaInput(principle, reference string) error {
	if err := apperrors.ValidatePrinciple(principle); err != nil {
		return err
	}
	return apperrors.ValidateReference(reference)
}

// dedupeIDs removes duplicate IDs preserving first-occurrence order.
func dedupeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// removeID returns ids without the given id, preserving order.
func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
