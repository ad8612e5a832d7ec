package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/formulagraph/internal/auth"
	"github.com/matzehuels/formulagraph/internal/store"
	"github.com/matzehuels/formulagraph/pkg/scene"
)

// newTestServer wires a server over a fresh in-memory store with auth
// enabled for admin@example.com.
func newTestServer(t *testing.T) (*Server, store.Store, *auth.Manager) {
	t.Helper()

	st := store.NewMemoryStore()
	logger := log.New(io.Discard)
	tokens := auth.NewManager("test-secret", []string{"admin@example.com"})
	srv := New(st, logger,
		WithAuth(tokens, auth.NewMemorySessionStore(), auth.NewLogMailer(logger)),
	)
	return srv, st, tokens
}

// signIn redeems a freshly minted token and returns the session ID.
func signIn(t *testing.T, srv *Server, tokens *auth.Manager) string {
	t.Helper()

	token, err := tokens.MintToken("admin@example.com")
	if err != nil {
		t.Fatalf("MintToken: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"token": token})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/verify", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var sess auth.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return sess.ID
}

// do runs a request against the server, optionally authenticated.
func do(srv *Server, method, target, sessionID string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if sessionID != "" {
		req.Header.Set("Authorization", "Bearer "+sessionID)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestWriteRequiresAuth(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := do(srv, http.MethodPost, "/api/domains", "", map[string]string{"name": "Physics"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Error.Code != "UNAUTHORIZED" {
		t.Errorf("code = %q", envelope.Error.Code)
	}
}

func TestDomainCRUDOverHTTP(t *testing.T) {
	srv, _, tokens := newTestServer(t)
	sid := signIn(t, srv, tokens)

	rec := do(srv, http.MethodPost, "/api/domains", sid, map[string]string{"name": "Physics"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	json.Unmarshal(rec.Body.Bytes(), &created)

	// Duplicate names conflict.
	rec = do(srv, http.MethodPost, "/api/domains", sid, map[string]string{"name": "physics"})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", rec.Code)
	}

	rec = do(srv, http.MethodPut, "/api/domains/"+created.ID, sid, map[string]string{"name": "Mechanics"})
	if rec.Code != http.StatusOK {
		t.Errorf("rename status = %d", rec.Code)
	}

	rec = do(srv, http.MethodGet, "/api/domains", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var domains []struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	json.Unmarshal(rec.Body.Bytes(), &domains)
	if len(domains) != 1 || domains[0].Name != "Mechanics" {
		t.Errorf("domains = %+v", domains)
	}
	if domains[0].Color == "" {
		t.Error("domain color missing")
	}

	rec = do(srv, http.MethodDelete, "/api/domains/"+created.ID, sid, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
}

func TestGraphEndpoint(t *testing.T) {
	srv, st, tokens := newTestServer(t)
	sid := signIn(t, srv, tokens)
	ctx := context.Background()

	d, _ := st.CreateDomain(ctx, "Physics")
	st.CreateFormula(ctx, "E = mc^2", "", []string{d.ID})
	st.CreateFormula(ctx, "F = ma", "", []string{d.ID})

	rec := do(srv, http.MethodGet, "/api/graph", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var sc scene.Scene
	if err := json.Unmarshal(rec.Body.Bytes(), &sc); err != nil {
		t.Fatalf("decode scene: %v", err)
	}
	if len(sc.Markers) != 2 {
		t.Errorf("markers = %d, want 2", len(sc.Markers))
	}
	if len(sc.Lines) != 1 {
		t.Errorf("lines = %d, want 1", len(sc.Lines))
	}

	// Writes invalidate the cached scene.
	rec = do(srv, http.MethodPost, "/api/formulas", sid, map[string]any{
		"principle":  "PV = nRT",
		"domain_ids": []string{d.ID},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create formula status = %d", rec.Code)
	}

	rec = do(srv, http.MethodGet, "/api/graph", "", nil)
	json.Unmarshal(rec.Body.Bytes(), &sc)
	if len(sc.Markers) != 3 {
		t.Errorf("markers after write = %d, want 3", len(sc.Markers))
	}
}

func TestGraphSearchFilter(t *testing.T) {
	srv, st, _ := newTestServer(t)
	ctx := context.Background()

	d, _ := st.CreateDomain(ctx, "Physics")
	st.CreateFormula(ctx, "Energy conservation", "", []string{d.ID})
	st.CreateFormula(ctx, "Momentum conservation", "", []string{d.ID})
	st.CreateFormula(ctx, "Ideal gas law", "", []string{d.ID})

	rec := do(srv, http.MethodGet, "/api/graph?q=conservation", "", nil)
	var sc scene.Scene
	json.Unmarshal(rec.Body.Bytes(), &sc)
	if len(sc.Markers) != 2 {
		t.Errorf("markers = %d, want 2", len(sc.Markers))
	}
	// The edge set is rebuilt over the searched subset.
	if len(sc.Lines) != 1 {
		t.Errorf("lines = %d, want 1", len(sc.Lines))
	}
}

func TestGraphReplicaView(t *testing.T) {
	srv, st, _ := newTestServer(t)
	ctx := context.Background()

	d1, _ := st.CreateDomain(ctx, "Physics")
	d2, _ := st.CreateDomain(ctx, "Math")
	st.CreateFormula(ctx, "shared principle", "", []string{d1.ID, d2.ID})

	rec := do(srv, http.MethodGet, "/api/graph?view=replicas", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var sc scene.Scene
	json.Unmarshal(rec.Body.Bytes(), &sc)
	if len(sc.Markers) != 2 {
		t.Errorf("replica markers = %d, want 2", len(sc.Markers))
	}
	if len(sc.Lines) != 1 {
		t.Errorf("replica lines = %d, want 1", len(sc.Lines))
	}
}

func TestGraphInvalidParams(t *testing.T) {
	srv, _, _ := newTestServer(t)

	for _, target := range []string{
		"/api/graph?min=abc",
		"/api/graph?min=-1",
		"/api/graph?cross=maybe",
		"/api/graph?view=towers",
	} {
		rec := do(srv, http.MethodGet, target, "", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", target, rec.Code)
		}
	}
}

func TestListFormulas(t *testing.T) {
	srv, st, _ := newTestServer(t)
	ctx := context.Background()

	d1, _ := st.CreateDomain(ctx, "Physics")
	d2, _ := st.CreateDomain(ctx, "Math")
	st.CreateFormula(ctx, "physics only", "", []string{d1.ID})
	st.CreateFormula(ctx, "math only", "", []string{d2.ID})

	rec := do(srv, http.MethodGet, "/api/formulas?domains="+d2.ID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out []struct {
		Principle string `json:"principle"`
		Domains   []struct {
			Name  string `json:"name"`
			Color string `json:"color"`
		} `json:"domains"`
	}
	json.Unmarshal(rec.Body.Bytes(), &out)
	if len(out) != 1 || out[0].Principle != "math only" {
		t.Fatalf("formulas = %+v", out)
	}
	if len(out[0].Domains) != 1 || out[0].Domains[0].Name != "Math" {
		t.Errorf("resolved domains = %+v", out[0].Domains)
	}
}

func TestDeleteDomainCascadeParam(t *testing.T) {
	srv, st, tokens := newTestServer(t)
	sid := signIn(t, srv, tokens)
	ctx := context.Background()

	d, _ := st.CreateDomain(ctx, "Physics")
	st.CreateFormula(ctx, "F = ma", "", []string{d.ID})

	rec := do(srv, http.MethodDelete, "/api/domains/"+d.ID, sid, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("without cascade status = %d, want 400", rec.Code)
	}

	rec = do(srv, http.MethodDelete, fmt.Sprintf("/api/domains/%s?cascade=true", d.ID), sid, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("with cascade status = %d, want 204", rec.Code)
	}

	formulas, _ := st.ListFormulas(ctx)
	if len(formulas) != 0 {
		t.Errorf("formulas after cascade = %d, want 0", len(formulas))
	}
}

func TestLogout(t *testing.T) {
	srv, _, tokens := newTestServer(t)
	sid := signIn(t, srv, tokens)

	rec := do(srv, http.MethodPost, "/api/auth/logout", sid, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d", rec.Code)
	}

	rec = do(srv, http.MethodPost, "/api/domains", sid, map[string]string{"name": "Physics"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("post-logout status = %d, want 401", rec.Code)
	}
}

func TestLoginDoesNotLeakAdmins(t *testing.T) {
	srv, _, _ := newTestServer(t)

	for _, email := range []string{"admin@example.com", "stranger@example.com"} {
		rec := do(srv, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email})
		if rec.Code != http.StatusNoContent {
			t.Errorf("login %s status = %d, want 204", email, rec.Code)
		}
	}
}
