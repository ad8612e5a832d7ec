package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/matzehuels/formulagraph/pkg/errors"
)

// newBackends returns one fresh instance of each backend that can run
// without external services.
func newBackends(t *testing.T) map[string]Store {
	t.Helper()

	sqlitePath := filepath.Join(t.TempDir(), "records.db")
	sqliteStore, err := OpenSQLite(sqlitePath)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { sqliteStore.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqliteStore,
	}
}

func TestDomainCRUD(t *testing.T) {
	ctx := context.Background()
	for name, s := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			d, err := s.CreateDomain(ctx, "Physics")
			if err != nil {
				t.Fatalf("CreateDomain: %v", err)
			}
			if d.ID == "" || d.Name != "Physics" {
				t.Errorf("unexpected domain: %+v", d)
			}

			got, err := s.GetDomain(ctx, d.ID)
			if err != nil {
				t.Fatalf("GetDomain: %v", err)
			}
			if got.Name != "Physics" {
				t.Errorf("Name = %q", got.Name)
			}

			renamed, err := s.RenameDomain(ctx, d.ID, "Mechanics")
			if err != nil {
				t.Fatalf("RenameDomain: %v", err)
			}
			if renamed.Name != "Mechanics" {
				t.Errorf("renamed Name = %q", renamed.Name)
			}

			if err := s.DeleteDomain(ctx, d.ID, false); err != nil {
				t.Fatalf("DeleteDomain: %v", err)
			}
			if _, err := s.GetDomain(ctx, d.ID); !apperrors.Is(err, apperrors.ErrCodeDomainNotFound) {
				t.Errorf("after delete err = %v, want DOMAIN_NOT_FOUND", err)
			}
		})
	}
}

func TestDuplicateDomainName(t *testing.T) {
	ctx := context.Background()
	for name, s := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.CreateDomain(ctx, "Chemistry"); err != nil {
				t.Fatalf("CreateDomain: %v", err)
			}
			_, err := s.CreateDomain(ctx, "chemistry")
			if !apperrors.Is(err, apperrors.ErrCodeDuplicateName) {
				t.Errorf("case-insensitive duplicate err = %v, want DUPLICATE_NAME", err)
			}
		})
	}
}

func TestInvalidDomainName(t *testing.T) {
	ctx := context.Background()
	for name, s := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.CreateDomain(ctx, "   "); !apperrors.Is(err, apperrors.ErrCodeInvalidDomain) {
				t.Errorf("blank name err = %v, want INVALID_DOMAIN", err)
			}
		})
	}
}

func TestFormulaCRUD(t *testing.T) {
	ctx := context.Background()
	for name, s := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			d1, _ := s.CreateDomain(ctx, "Physics")
			d2, _ := s.CreateDomain(ctx, "Math")

			f, err := s.CreateFormula(ctx, "E = mc^2", "Einstein 1905", []string{d1.ID, d2.ID})
			if err != nil {
				t.Fatalf("CreateFormula: %v", err)
			}
			if len(f.DomainIDs) != 2 || f.DomainIDs[0] != d1.ID {
				t.Errorf("DomainIDs = %v, want ordered [%s %s]", f.DomainIDs, d1.ID, d2.ID)
			}

			got, err := s.GetFormula(ctx, f.ID)
			if err != nil {
				t.Fatalf("GetFormula: %v", err)
			}
			if got.Principle != "E = mc^2" || got.Reference != "Einstein 1905" {
				t.Errorf("unexpected formula: %+v", got)
			}
			if len(got.DomainIDs) != 2 || got.DomainIDs[0] != d1.ID || got.DomainIDs[1] != d2.ID {
				t.Errorf("tag order not preserved: %v", got.DomainIDs)
			}

			upd, err := s.UpdateFormula(ctx, f.ID, "E = mc²", "", []string{d2.ID})
			if err != nil {
				t.Fatalf("UpdateFormula: %v", err)
			}
			if upd.Principle != "E = mc²" || len(upd.DomainIDs) != 1 || upd.DomainIDs[0] != d2.ID {
				t.Errorf("update not applied: %+v", upd)
			}

			if err := s.DeleteFormula(ctx, f.ID); err != nil {
				t.Fatalf("DeleteFormula: %v", err)
			}
			if _, err := s.GetFormula(ctx, f.ID); !apperrors.Is(err, apperrors.ErrCodeFormulaNotFound) {
				t.Errorf("after delete err = %v, want FORMULA_NOT_FOUND", err)
			}
		})
	}
}

func TestCreateFormulaUnknownDomain(t *testing.T) {
	ctx := context.Background()
	for name, s := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.CreateFormula(ctx, "F = ma", "", []string{"no-such-domain"})
			if !apperrors.Is(err, apperrors.ErrCodeDomainNotFound) {
				t.Errorf("err = %v, want DOMAIN_NOT_FOUND", err)
			}
		})
	}
}

func TestCreateFormulaEmptyPrinciple(t *testing.T) {
	ctx := context.Background()
	for name, s := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.CreateFormula(ctx, "  ", "", nil)
			if !apperrors.Is(err, apperrors.ErrCodeInvalidFormula) {
				t.Errorf("err = %v, want INVALID_FORMULA", err)
			}
		})
	}
}

func TestDeleteDomainBlockedWithoutCascade(t *testing.T) {
	ctx := context.Background()
	for name, s := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			d, _ := s.CreateDomain(ctx, "Physics")
			if _, err := s.CreateFormula(ctx, "F = ma", "", []string{d.ID}); err != nil {
				t.Fatalf("CreateFormula: %v", err)
			}

			err := s.DeleteDomain(ctx, d.ID, false)
			if !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
				t.Errorf("err = %v, want INVALID_INPUT", err)
			}
			if _, err := s.GetDomain(ctx, d.ID); err != nil {
				t.Errorf("domain should survive a blocked delete: %v", err)
			}
		})
	}
}

func TestDeleteDomainCascade(t *testing.T) {
	ctx := context.Background()
	for name, s := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			d1, _ := s.CreateDomain(ctx, "Physics")
			d2, _ := s.CreateDomain(ctx, "Math")

			only, _ := s.CreateFormula(ctx, "only physics", "", []string{d1.ID})
			both, _ := s.CreateFormula(ctx, "physics and math", "", []string{d1.ID, d2.ID})

			if err := s.DeleteDomain(ctx, d1.ID, true); err != nil {
				t.Fatalf("DeleteDomain cascade: %v", err)
			}

			// Formula tagged only with the deleted domain disappears.
			if _, err := s.GetFormula(ctx, only.ID); !apperrors.Is(err, apperrors.ErrCodeFormulaNotFound) {
				t.Errorf("single-domain formula should be gone, err = %v", err)
			}
			// Formula with another domain survives with the tag stripped.
			kept, err := s.GetFormula(ctx, both.ID)
			if err != nil {
				t.Fatalf("GetFormula: %v", err)
			}
			if len(kept.DomainIDs) != 1 || kept.DomainIDs[0] != d2.ID {
				t.Errorf("DomainIDs = %v, want [%s]", kept.DomainIDs, d2.ID)
			}
		})
	}
}

func TestDatasetDerivesEdges(t *testing.T) {
	ctx := context.Background()
	for name, s := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			d, _ := s.CreateDomain(ctx, "Physics")
			f1, _ := s.CreateFormula(ctx, "first", "", []string{d.ID})
			f2, _ := s.CreateFormula(ctx, "second", "", []string{d.ID})

			ds, err := s.Dataset(ctx)
			if err != nil {
				t.Fatalf("Dataset: %v", err)
			}
			if len(ds.Domains) != 1 || len(ds.Formulas) != 2 {
				t.Fatalf("dataset = %d domains, %d formulas", len(ds.Domains), len(ds.Formulas))
			}
			if len(ds.Edges) != 1 {
				t.Fatalf("edges = %d, want 1", len(ds.Edges))
			}
			a, b := ds.Edges[0].Pair()
			wantA, wantB := f1.ID, f2.ID
			if wantB < wantA {
				wantA, wantB = wantB, wantA
			}
			if a != wantA || b != wantB {
				t.Errorf("edge = (%s, %s), want (%s, %s)", a, b, wantA, wantB)
			}
		})
	}
}

func TestListOrdering(t *testing.T) {
	ctx := context.Background()
	for name, s := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			for _, n := range []string{"Alpha", "Beta", "Gamma"} {
				if _, err := s.CreateDomain(ctx, n); err != nil {
					t.Fatalf("CreateDomain %s: %v", n, err)
				}
			}
			domains, err := s.ListDomains(ctx)
			if err != nil {
				t.Fatalf("ListDomains: %v", err)
			}
			if len(domains) != 3 {
				t.Fatalf("len = %d", len(domains))
			}
			for i, want := range []string{"Alpha", "Beta", "Gamma"} {
				if domains[i].Name != want {
					t.Errorf("domains[%d] = %q, want %q", i, domains[i].Name, want)
				}
			}
		})
	}
}

func TestDedupeDomainTags(t *testing.T) {
	ctx := context.Background()
	for name, s := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			d, _ := s.CreateDomain(ctx, "Physics")
			f, err := s.CreateFormula(ctx, "dup tags", "", []string{d.ID, d.ID, ""})
			if err != nil {
				t.Fatalf("CreateFormula: %v", err)
			}
			if len(f.DomainIDs) != 1 {
				t.Errorf("DomainIDs = %v, want single entry", f.DomainIDs)
			}
		})
	}
}

func TestSQLiteConnectionPragmas(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()

	var mode string
	if err := s.db.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if !strings.EqualFold(mode, "wal") {
		t.Errorf("journal_mode = %q, want wal", mode)
	}

	var fk int
	if err := s.db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}
