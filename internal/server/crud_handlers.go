package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// ============================================================================
// Domain writes
// ============================================================================

type domainRequest struct {
	Name string `json:"name"`
}

// handleCreateDomain creates a domain.
func (s *Server) handleCreateDomain(w http.ResponseWriter, r *http.Request) {
	var body domainRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}

	d, err := s.store.CreateDomain(r.Context(), body.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.invalidate()
	s.writeJSON(w, http.StatusCreated, d)
}

// handleRenameDomain renames a domain.
func (s *Server) handleRenameDomain(w http.ResponseWriter, r *http.Request) {
	var body domainRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}

	d, err := s.store.RenameDomain(r.Context(), chi.URLParam(r, "id"), body.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.invalidate()
	s.writeJSON(w, http.StatusOK, d)
}

// handleDeleteDomain deletes a domain. ?cascade=true also removes
// formulas left without any other domain.
func (s *Server) handleDeleteDomain(w http.ResponseWriter, r *http.Request) {
	cascade, _ := strconv.ParseBool(r.URL.Query().Get("cascade"))

	if err := s.store.DeleteDomain(r.Context(), chi.URLParam(r, "id"), cascade); err != nil {
		s.writeError(w, err)
		return
	}
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// ============================================================================
// Formula writes
// ============================================================================

type formulaRequest struct {
	Principle string   `json:"principle"`
	Reference string   `json:"reference"`
	DomainIDs []string `json:"domain_ids"`
}

// handleCreateFormula creates a formula.
func (s *Server) handleCreateFormula(w http.ResponseWriter, r *http.Request) {
	var body formulaRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}

	f, err := s.store.CreateFormula(r.Context(), body.Principle, body.Reference, body.DomainIDs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.invalidate()
	s.writeJSON(w, http.StatusCreated, f)
}

// handleUpdateFormula replaces a formula's fields and domain tags.
func (s *Server) handleUpdateFormula(w http.ResponseWriter, r *http.Request) {
	var body formulaRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}

	f, err := s.store.UpdateFormula(r.Context(), chi.URLParam(r, "id"), body.Principle, body.Reference, body.DomainIDs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.invalidate()
	s.writeJSON(w, http.StatusOK, f)
}

// handleDeleteFormula deletes a formula.
func (s *Server) handleDeleteFormula(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteFormula(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}
