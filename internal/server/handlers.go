package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/matzehuels/formulagraph/pkg/cache"
	apperrors "github.com/matzehuels/formulagraph/pkg/errors"
	"github.com/matzehuels/formulagraph/pkg/graph"
	"github.com/matzehuels/formulagraph/pkg/observability"
	"github.com/matzehuels/formulagraph/pkg/scene"
)

// ============================================================================
// Query parsing
// ============================================================================

// graphQuery holds the parsed /api/graph parameters.
type graphQuery struct {
	Domains []string
	Search  string
	Min     int
	Cross   bool
	View    string
}

// parseGraphQuery validates the scene view parameters.
func parseGraphQuery(r *http.Request) (graphQuery, error) {
	q := graphQuery{
		Search: strings.TrimSpace(r.URL.Query().Get("q")),
		View:   r.URL.Query().Get("view"),
	}

	if raw := r.URL.Query().Get("domains"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				q.Domains = append(q.Domains, id)
			}
		}
	}

	if raw := r.URL.Query().Get("min"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return q, apperrors.New(apperrors.ErrCodeInvalidFilter, "min must be a non-negative integer, got %q", raw)
		}
		q.Min = n
	}

	if raw := r.URL.Query().Get("cross"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return q, apperrors.New(apperrors.ErrCodeInvalidFilter, "cross must be a boolean, got %q", raw)
		}
		q.Cross = b
	}

	switch q.View {
	case "", "formulas":
		q.View = "formulas"
	case "replicas":
	default:
		return q, apperrors.New(apperrors.ErrCodeInvalidFilter, "view must be formulas or replicas, got %q", q.View)
	}
	return q, nil
}

// cacheKey addresses a serialized scene for this exact query. The
// generation counter keeps post-write reads from seeing stale scenes.
func (s *Server) cacheKey(q graphQuery) string {
	raw := fmt.Sprintf("%s|%s|%d|%t|%s", strings.Join(q.Domains, ","), q.Search, q.Min, q.Cross, q.View)
	return fmt.Sprintf("scene:%d:%s", s.sceneGen.Load(), cache.Hash([]byte(raw)))
}

// ============================================================================
// Read handlers
// ============================================================================

// handleGraph assembles and serves the scene for the requested view.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	q, err := parseGraphQuery(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	key := s.cacheKey(q)
	if data, ok, err := s.scenes.Get(r.Context(), key); err == nil && ok {
		observability.Cache().OnCacheHit(r.Context(), "scene")
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
		return
	}
	observability.Cache().OnCacheMiss(r.Context(), "scene")

	ds, err := s.records.Get(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	formulas := filterSearch(ds.Formulas, q.Search)
	params := scene.Params{
		SelectedDomains: q.Domains,
		MinCount:        q.Min,
		CrossDomainOnly: q.Cross,
	}

	var sc *scene.Scene
	if q.View == "replicas" {
		rows := graph.BuildReplicaRows(formulas)
		sc = scene.AssembleReplicas(rows, ds.Domains, params)
	} else {
		edges := ds.Edges
		if q.Search != "" {
			// Edges must reflect the searched subset, not the full set.
			edges = graph.BuildEdges(formulas)
		}
		sc = scene.AssembleFormulas(formulas, ds.Domains, edges, params)
	}

	data, err := scene.Marshal(sc)
	if err != nil {
		s.writeError(w, apperrors.Wrap(apperrors.ErrCodeInternal, err, "marshal scene"))
		return
	}
	if err := s.scenes.Set(r.Context(), key, data, cache.DefaultRecordTTL); err != nil {
		s.logger.Debug("scene cache set failed", "err", err)
	} else {
		observability.Cache().OnCacheSet(r.Context(), "scene", len(data))
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// formulaView is a formula with its domains resolved for list display.
type formulaView struct {
	graph.Formula
	Domains []graph.DomainInfo `json:"domains"`
}

// handleListFormulas serves the resolved formula list.
func (s *Server) handleListFormulas(w http.ResponseWriter, r *http.Request) {
	q, err := parseGraphQuery(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	ds, err := s.records.Get(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	lookup := graph.BuildLookup(ds.Domains)
	formulas := filterSearch(ds.Formulas, q.Search)

	out := make([]formulaView, 0, len(formulas))
	for i := range formulas {
		f := formulas[i]
		if len(q.Domains) > 0 && !hasAnyDomain(f, q.Domains) {
			continue
		}
		out = append(out, formulaView{
			Formula: f,
			Domains: graph.ResolveDomains(&f, lookup),
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// domainView is a domain with its assigned palette color.
type domainView struct {
	graph.Domain
	Color string `json:"color"`
}

// handleListDomains serves all domains with their colors.
func (s *Server) handleListDomains(w http.ResponseWriter, r *http.Request) {
	ds, err := s.records.Get(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]domainView, 0, len(ds.Domains))
	for i, d := range ds.Domains {
		out = append(out, domainView{
			Domain: d,
			Color:  graph.DomainColor(i),
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// ============================================================================
// Filters
// ============================================================================

// filterSearch keeps formulas whose principle contains the query,
// case-insensitively. An empty query keeps everything.
func filterSearch(formulas []graph.Formula, query string) []graph.Formula {
	if query == "" {
		return formulas
	}
	needle := strings.ToLower(query)
	out := make([]graph.Formula, 0, len(formulas))
	for _, f := range formulas {
		if strings.Contains(strings.ToLower(f.Principle), needle) {
			out = append(out, f)
		}
	}
	return out
}

// hasAnyDomain reports whether the formula carries at least one of the
// given domain IDs.
func hasAnyDomain(f graph.Formula, ids []string) bool {
	for _, id := range ids {
		if f.HasDomain(id) {
			return true
		}
	}
	return false
}
