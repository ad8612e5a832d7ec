package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	apperrors "github.com/matzehuels/formulagraph/pkg/errors"
	"github.com/matzehuels/formulagraph/pkg/graph"
)

// ============================================================================
// SQLite backend
// ============================================================================

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS domains (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL COLLATE NOCASE UNIQUE,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS formulas (
	id         TEXT PRIMARY KEY,
	principle  TEXT NOT NULL,
	reference  TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS formula_domains (
	formula_id TEXT NOT NULL REFERENCES formulas(id) ON DELETE CASCADE,
	domain_id  TEXT NOT NULL REFERENCES domains(id) ON DELETE CASCADE,
	position   INTEGER NOT NULL,
	PRIMARY KEY (formula_id, domain_id)
);

CREATE INDEX IF NOT EXISTS idx_formula_domains_domain
	ON formula_domains(domain_id);
`

// SQLiteStore persists records in a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) a SQLite store at path and applies the
// schema. The connection uses WAL mode with foreign keys enforced.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "sqlite path is required")
	}

	// modernc.org/sqlite applies _pragma options on every new connection.
	dsn := filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "open sqlite db")
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "ping sqlite db")
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "apply sqlite schema")
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Timestamps are stored as UTC millisecond integers so string collation
// never enters ordering comparisons.
func toMillis(t time.Time) int64    { return t.UTC().UnixMilli() }
func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

// ============================================================================
// Domains
// ============================================================================

// CreateDomain inserts a new domain with the given name.
func (s *SQLiteStore) CreateDomain(ctx context.Context, name string) (*graph.Domain, error) {
	name = strings.TrimSpace(name)
	if err := apperrors.ValidateDomainName(name); err != nil {
		return nil, err
	}

	d := graph.Domain{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO domains (id, name, created_at) VALUES (?, ?, ?)`,
		d.ID, d.Name, toMillis(d.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.New(apperrors.ErrCodeDuplicateName, "domain %q already exists", name)
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "insert domain")
	}
	return &d, nil
}

// GetDomain fetches a domain by ID.
func (s *SQLiteStore) GetDomain(ctx context.Context, id string) (*graph.Domain, error) {
	var d graph.Domain
	var ms int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM domains WHERE id = ?`, id).
		Scan(&d.ID, &d.Name, &ms)
	if err == sql.ErrNoRows {
		return nil, apperrors.New(apperrors.ErrCodeDomainNotFound, "domain %s not found", id)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "query domain")
	}
	d.CreatedAt = fromMillis(ms)
	return &d, nil
}

// ListDomains returns all domains ordered by creation time.
func (s *SQLiteStore) ListDomains(ctx context.Context) ([]graph.Domain, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM domains ORDER BY created_at, name`)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "query domains")
	}
	defer rows.Close()

	var out []graph.Domain
	for rows.Next() {
		var d graph.Domain
		var ms int64
		if err := rows.Scan(&d.ID, &d.Name, &ms); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "scan domain")
		}
		d.CreatedAt = fromMillis(ms)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "iterate domains")
	}
	return out, nil
}

// RenameDomain changes a domain's name, enforcing uniqueness.
func (s *SQLiteStore) RenameDomain(ctx context.Context, id, name string) (*graph.Domain, error) {
	name = strings.TrimSpace(name)
	if err := apperrors.ValidateDomainName(name); err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE domains SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.New(apperrors.ErrCodeDuplicateName, "domain %q already exists", name)
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "rename domain")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperrors.New(apperrors.ErrCodeDomainNotFound, "domain %s not found", id)
	}
	return s.GetDomain(ctx, id)
}

// DeleteDomain removes a domain, optionally cascading into formulas.
func (s *SQLiteStore) DeleteDomain(ctx context.Context, id string, cascade bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "begin tx")
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM domains WHERE id = ?`, id).Scan(&exists); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "query domain")
	}
	if exists == 0 {
		return apperrors.New(apperrors.ErrCodeDomainNotFound, "domain %s not found", id)
	}

	var tagged int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM formula_domains WHERE domain_id = ?`, id).Scan(&tagged); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "count references")
	}
	if tagged > 0 && !cascade {
		return apperrors.New(apperrors.ErrCodeInvalidInput,
			"domain %s is referenced by %d formula(s); pass cascade to delete", id, tagged)
	}

	// Formulas left without any other domain disappear with the domain.
	_, err = tx.ExecContext(ctx, `
		DELETE FROM formulas WHERE id IN (
			SELECT formula_id FROM formula_domains WHERE domain_id = ?
		) AND id NOT IN (
			SELECT formula_id FROM formula_domains WHERE domain_id != ?
		)`, id, id)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "cascade delete formulas")
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM formula_domains WHERE domain_id = ?
			OR formula_id NOT IN (SELECT id FROM formulas)`, id); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "strip tags")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM domains WHERE id = ?`, id); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "delete domain")
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "commit tx")
	}
	return nil
}

// ============================================================================
// Formulas
// ============================================================================

// CreateFormula inserts a new formula with ordered domain tags.
func (s *SQLiteStore) CreateFormula(ctx context.Context, principle, reference string, domainIDs []string) (*graph.Formula, error) {
	if err := validateFormulaInput(principle, reference); err != nil {
		return nil, err
	}

	f := graph.Formula{
		ID:        uuid.NewString(),
		Principle: strings.TrimSpace(principle),
		Reference: strings.TrimSpace(reference),
		DomainIDs: dedupeIDs(domainIDs),
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "begin tx")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO formulas (id, principle, reference, created_at) VALUES (?, ?, ?, ?)`,
		f.ID, f.Principle, f.Reference, toMillis(f.CreatedAt))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "insert formula")
	}
	if err := insertTags(ctx, tx, f.ID, f.DomainIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "commit tx")
	}
	return &f, nil
}

// GetFormula fetches a formula by ID.
func (s *SQLiteStore) GetFormula(ctx context.Context, id string) (*graph.Formula, error) {
	var f graph.Formula
	var ms int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, principle, reference, created_at FROM formulas WHERE id = ?`, id).
		Scan(&f.ID, &f.Principle, &f.Reference, &ms)
	if err == sql.ErrNoRows {
		return nil, apperrors.New(apperrors.ErrCodeFormulaNotFound, "formula %s not found", id)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "query formula")
	}
	f.CreatedAt = fromMillis(ms)

	tags, err := s.tagsFor(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	f.DomainIDs = tags[id]
	return &f, nil
}

// ListFormulas returns all formulas ordered by creation time.
func (s *SQLiteStore) ListFormulas(ctx context.Context) ([]graph.Formula, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, principle, reference, created_at FROM formulas ORDER BY created_at, id`)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "query formulas")
	}
	defer rows.Close()

	var out []graph.Formula
	var ids []string
	for rows.Next() {
		var f graph.Formula
		var ms int64
		if err := rows.Scan(&f.ID, &f.Principle, &f.Reference, &ms); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "scan formula")
		}
		f.CreatedAt = fromMillis(ms)
		out = append(out, f)
		ids = append(ids, f.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "iterate formulas")
	}

	tags, err := s.tagsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].DomainIDs = tags[out[i].ID]
	}
	return out, nil
}

// UpdateFormula replaces a formula's fields and domain tags.
func (s *SQLiteStore) UpdateFormula(ctx context.Context, id, principle, reference string, domainIDs []string) (*graph.Formula, error) {
	if err := validateFormulaInput(principle, reference); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "begin tx")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE formulas SET principle = ?, reference = ? WHERE id = ?`,
		strings.TrimSpace(principle), strings.TrimSpace(reference), id)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "update formula")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperrors.New(apperrors.ErrCodeFormulaNotFound, "formula %s not found", id)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM formula_domains WHERE formula_id = ?`, id); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "clear tags")
	}
	if err := insertTags(ctx, tx, id, dedupeIDs(domainIDs)); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "commit tx")
	}
	return s.GetFormula(ctx, id)
}

// DeleteFormula removes a formula by ID.
func (s *SQLiteStore) DeleteFormula(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM formulas WHERE id = ?`, id)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "delete formula")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.New(apperrors.ErrCodeFormulaNotFound, "formula %s not found", id)
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM formula_domains WHERE formula_id = ?`, id); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "strip tags")
	}
	return nil
}

// ============================================================================
// Dataset
// ============================================================================

// Dataset loads the full dataset with derived edges.
func (s *SQLiteStore) Dataset(ctx context.Context) (*graph.Dataset, error) {
	domains, err := s.ListDomains(ctx)
	if err != nil {
		return nil, err
	}
	formulas, err := s.ListFormulas(ctx)
	if err != nil {
		return nil, err
	}
	return &graph.Dataset{
		Domains:  domains,
		Formulas: formulas,
		Edges:    graph.BuildEdges(formulas),
	}, nil
}

// ============================================================================
// Internals
// ============================================================================

// insertTags writes ordered domain tags for a formula.
func insertTags(ctx context.Context, tx *sql.Tx, formulaID string, ids []string) error {
	for pos, did := range ids {
		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM domains WHERE id = ?`, did).Scan(&exists); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInternal, err, "check domain")
		}
		if exists == 0 {
			return apperrors.New(apperrors.ErrCodeDomainNotFound, "domain %s not found", did)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO formula_domains (formula_id, domain_id, position) VALUES (?, ?, ?)`,
			formulaID, did, pos)
		if err != nil {
			if isForeignKeyViolation(err) {
				return apperrors.New(apperrors.ErrCodeDomainNotFound, "domain %s not found", did)
			}
			return apperrors.Wrap(apperrors.ErrCodeInternal, err, "insert tag")
		}
	}
	return nil
}

// tagsFor loads ordered domain IDs for the given formula IDs.
func (s *SQLiteStore) tagsFor(ctx context.Context, formulaIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(formulaIDs))
	if len(formulaIDs) == 0 {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT formula_id, domain_id FROM formula_domains ORDER BY formula_id, position`)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "query tags")
	}
	defer rows.Close()

	want := make(map[string]bool, len(formulaIDs))
	for _, id := range formulaIDs {
		want[id] = true
	}
	for rows.Next() {
		var fid, did string
		if err := rows.Scan(&fid, &did); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "scan tag")
		}
		if want[fid] {
			out[fid] = append(out[fid], did)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "iterate tags")
	}
	return out, nil
}

// isUniqueViolation detects SQLite unique constraint failures.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isForeignKeyViolation detects SQLite foreign key failures.
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
