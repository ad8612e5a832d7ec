package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	apperrors "github.com/matzehuels/formulagraph/pkg/errors"
	"github.com/matzehuels/formulagraph/pkg/graph"
)

// ============================================================================
// MongoDB backend
// ============================================================================

// MongoStore persists records in two MongoDB collections, one per record
// type. Formula domain tags live as an ordered array on the formula
// document, so no join collection is needed.
type MongoStore struct {
	client   *mongo.Client
	domains  *mongo.Collection
	formulas *mongo.Collection
}

var _ Store = (*MongoStore)(nil)

// NewMongoStore connects to MongoDB and prepares the collections.
// A case-insensitive unique index backs the domain name constraint.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "connect mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "ping mongodb")
	}

	db := client.Database(database)
	s := &MongoStore{
		client:   client,
		domains:  db.Collection("domains"),
		formulas: db.Collection("formulas"),
	}

	_, err = s.domains.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "name", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetCollation(&options.Collation{Locale: "en", Strength: 2}),
		},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "create domain indexes")
	}
	_, err = s.formulas.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "create formula index")
	}
	return s, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// ============================================================================
// Domains
// ============================================================================

// CreateDomain inserts a new domain with the given name.
func (s *MongoStore) CreateDomain(ctx context.Context, name string) (*graph.Domain, error) {
	name = strings.TrimSpace(name)
	if err := apperrors.ValidateDomainName(name); err != nil {
		return nil, err
	}

	d := graph.Domain{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.domains.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperrors.New(apperrors.ErrCodeDuplicateName, "domain %q already exists", name)
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "insert domain")
	}
	return &d, nil
}

// GetDomain fetches a domain by ID.
func (s *MongoStore) GetDomain(ctx context.Context, id string) (*graph.Domain, error) {
	var d graph.Domain
	err := s.domains.FindOne(ctx, bson.M{"id": id}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.New(apperrors.ErrCodeDomainNotFound, "domain %s not found", id)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "query domain")
	}
	return &d, nil
}

// ListDomains returns all domains ordered by creation time.
func (s *MongoStore) ListDomains(ctx context.Context) ([]graph.Domain, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "name", Value: 1}})
	cur, err := s.domains.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "query domains")
	}
	var out []graph.Domain
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "decode domains")
	}
	return out, nil
}

// RenameDomain changes a domain's name, enforcing uniqueness.
func (s *MongoStore) RenameDomain(ctx context.Context, id, name string) (*graph.Domain, error) {
	name = strings.TrimSpace(name)
	if err := apperrors.ValidateDomainName(name); err != nil {
		return nil, err
	}

	res, err := s.domains.UpdateOne(ctx, bson.M{"id": id},
		bson.M{"$set": bson.M{"name": name}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperrors.New(apperrors.ErrCodeDuplicateName, "domain %q already exists", name)
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "rename domain")
	}
	if res.MatchedCount == 0 {
		return nil, apperrors.New(apperrors.ErrCodeDomainNotFound, "domain %s not found", id)
	}
	return s.GetDomain(ctx, id)
}

// DeleteDomain removes a domain, optionally cascading into formulas.
func (s *MongoStore) DeleteDomain(ctx context.Context, id string, cascade bool) error {
	if _, err := s.GetDomain(ctx, id); err != nil {
		return err
	}

	tagged, err := s.formulas.CountDocuments(ctx, bson.M{"domain_ids": id})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "count references")
	}
	if tagged > 0 && !cascade {
		return apperrors.New(apperrors.ErrCodeInvalidInput,
			"domain %s is referenced by %d formula(s); pass cascade to delete", id, tagged)
	}

	// Formulas tagged only with this domain go with it; the rest just
	// lose the tag.
	_, err = s.formulas.DeleteMany(ctx, bson.M{"domain_ids": bson.M{"$eq": []string{id}}})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "cascade delete formulas")
	}
	_, err = s.formulas.UpdateMany(ctx, bson.M{"domain_ids": id},
		bson.M{"$pull": bson.M{"domain_ids": id}})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "strip domain tags")
	}

	if _, err := s.domains.DeleteOne(ctx, bson.M{"id": id}); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "delete domain")
	}
	return nil
}

// ============================================================================
// Formulas
// ============================================================================

// CreateFormula inserts a new formula with ordered domain tags.
func (s *MongoStore) CreateFormula(ctx context.Context, principle, reference string, domainIDs []string) (*graph.Formula, error) {
	if err := validateFormulaInput(principle, reference); err != nil {
		return nil, err
	}
	ids, err := s.checkDomainIDs(ctx, domainIDs)
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
	if _, err := s.formulas.InsertOne(ctx, f); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "insert formula")
	}
	return &f, nil
}

// GetFormula fetches a formula by ID.
func (s *MongoStore) GetFormula(ctx context.Context, id string) (*graph.Formula, error) {
	var f graph.Formula
	err := s.formulas.FindOne(ctx, bson.M{"id": id}).Decode(&f)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.New(apperrors.ErrCodeFormulaNotFound, "formula %s not found", id)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "query formula")
	}
	return &f, nil
}

// ListFormulas returns all formulas ordered by creation time.
func (s *MongoStore) ListFormulas(ctx context.Context) ([]graph.Formula, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "id", Value: 1}})
	cur, err := s.formulas.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "query formulas")
	}
	var out []graph.Formula
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "decode formulas")
	}
	return out, nil
}

// UpdateFormula replaces a formula's fields and domain tags.
func (s *MongoStore) UpdateFormula(ctx context.Context, id, principle, reference string, domainIDs []string) (*graph.Formula, error) {
	if err := validateFormulaInput(principle, reference); err != nil {
		return nil, err
	}
	ids, err := s.checkDomainIDs(ctx, domainIDs)
	if err != nil {
		return nil, err
	}

	res, err := s.formulas.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{
		"principle":  strings.TrimSpace(principle),
		"reference":  strings.TrimSpace(reference),
		"domain_ids": ids,
	}})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "update formula")
	}
	if res.MatchedCount == 0 {
		return nil, apperrors.New(apperrors.ErrCodeFormulaNotFound, "formula %s not found", id)
	}
	return s.GetFormula(ctx, id)
}

// DeleteFormula removes a formula by ID.
func (s *MongoStore) DeleteFormula(ctx context.Context, id string) error {
	res, err := s.formulas.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "delete formula")
	}
	if res.DeletedCount == 0 {
		return apperrors.New(apperrors.ErrCodeFormulaNotFound, "formula %s not found", id)
	}
	return nil
}

// ============================================================================
// Dataset
// ============================================================================

// Dataset loads the full dataset with derived edges.
func (s *MongoStore) Dataset(ctx context.Context) (*graph.Dataset, error) {
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

// checkDomainIDs dedupes the given IDs preserving order and verifies each
// one exists.
func (s *MongoStore) checkDomainIDs(ctx context.Context, ids []string) ([]string, error) {
	out := dedupeIDs(ids)
	for _, id := range out {
		if _, err := s.GetDomain(ctx, id); err != nil {
			return nil, err
		}
	}
	return out, nil
}
