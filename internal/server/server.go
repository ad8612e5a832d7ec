// Package server exposes the formula graph over HTTP.
//
// Read endpoints serve assembled scenes and raw records; write endpoints
// mutate the store behind magic-link authentication. Scenes are cached at
// two levels: a short-TTL record cache in front of the store, and a byte
// cache for serialized scene JSON keyed by the request parameters.
package server

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/formulagraph/internal/auth"
	"github.com/matzehuels/formulagraph/internal/store"
	"github.com/matzehuels/formulagraph/pkg/cache"
	"github.com/matzehuels/formulagraph/pkg/observability"
)

// ============================================================================
// Server
// ============================================================================

// Server holds the HTTP handler state.
type Server struct {
	store      store.Store
	records    *cache.RecordCache
	scenes     cache.Cache
	sessions   auth.SessionStore
	tokens     *auth.Manager
	mailer     auth.Mailer
	logger     *log.Logger
	baseURL    string
	sessionTTL time.Duration

	// sceneGen is bumped on every write so stale scene cache entries
	// stop being addressable and age out via their TTL.
	sceneGen atomic.Uint64
}

// Option configures a Server.
type Option func(*Server)

// WithSceneCache sets the byte cache for serialized scenes.
func WithSceneCache(c cache.Cache) Option {
	return func(s *Server) {
		s.scenes = c
	}
}

// WithRecordTTL sets how long fetched records stay fresh.
func WithRecordTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.records = cache.NewRecordCache(s.store.Dataset, ttl)
	}
}

// WithAuth enables the write API with the given token manager, session
// store, and mailer.
func WithAuth(tokens *auth.Manager, sessions auth.SessionStore, mailer auth.Mailer) Option {
	return func(s *Server) {
		s.tokens = tokens
		s.sessions = sessions
		s.mailer = mailer
	}
}

// WithBaseURL sets the public base URL used in magic links.
func WithBaseURL(u string) Option {
	return func(s *Server) {
		s.baseURL = u
	}
}

// WithSessionTTL sets how long verified sessions stay valid.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Server) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// New creates a Server over the given store. Without WithAuth, all write
// endpoints answer 401.
func New(st store.Store, logger *log.Logger, opts ...Option) *Server {
	s := &Server{
		store:   st,
		records: cache.NewRecordCache(st.Dataset, cache.DefaultRecordTTL),
		scenes:  cache.NewNullCache(),
		logger:  logger,
		baseURL: "http://localhost:8080",

		sessionTTL: auth.DefaultSessionTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi handler for the API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/graph", s.handleGraph)
		r.Get("/formulas", s.handleListFormulas)
		r.Get("/domains", s.handleListDomains)

		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/verify", s.handleVerify)
		r.Post("/auth/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/domains", s.handleCreateDomain)
			r.Put("/domains/{id}", s.handleRenameDomain)
			r.Delete("/domains/{id}", s.handleDeleteDomain)
			r.Post("/formulas", s.handleCreateFormula)
			r.Put("/formulas/{id}", s.handleUpdateFormula)
			r.Delete("/formulas/{id}", s.handleDeleteFormula)
		})
	})

	return r
}

// invalidate drops both cache layers after a successful write.
func (s *Server) invalidate() {
	s.records.Invalidate()
	s.sceneGen.Add(1)
}

// logRequests emits one structured log line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		elapsed := time.Since(start)
		observability.Request().OnRequest(r.Context(), r.Method, r.URL.Path, ww.Status(), elapsed)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", elapsed.Round(time.Millisecond))
	})
}
