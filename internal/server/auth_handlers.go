package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/matzehuels/formulagraph/internal/auth"
	apperrors "github.com/matzehuels/formulagraph/pkg/errors"
)

// sessionCookie is the cookie carrying the session ID.
const sessionCookie = "formulagraph_session"

// ctxKey is the type for context keys used in this package.
type ctxKey int

// sessionKey is the context key for the authenticated session.
const sessionKey ctxKey = 0

// ============================================================================
// Handlers
// ============================================================================

// handleLogin issues a magic link for an admin email. The response is
// always 204 so callers cannot probe which emails are admins.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.tokens == nil {
		s.writeError(w, apperrors.New(apperrors.ErrCodeUnauthorized, "authentication is not configured"))
		return
	}

	var body struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	if strings.TrimSpace(body.Email) == "" {
		s.writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "email is required"))
		return
	}

	token, err := s.tokens.MintToken(body.Email)
	if err != nil {
		// Unknown emails get the same answer as known ones.
		s.logger.Debug("login rejected", "email", body.Email, "err", err)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	link := fmt.Sprintf("%s/auth#access_token=%s&token_type=bearer", strings.TrimRight(s.baseURL, "/"), token)
	if err := s.mailer.SendMagicLink(r.Context(), body.Email, link); err != nil {
		s.writeError(w, apperrors.Wrap(apperrors.ErrCodeInternal, err, "send magic link"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleVerify redeems a magic-link token for a session. The token may be
// the raw JWT, the URL fragment, or the whole pasted redirect URL.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if s.tokens == nil || s.sessions == nil {
		s.writeError(w, apperrors.New(apperrors.ErrCodeUnauthorized, "authentication is not configured"))
		return
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}

	token, err := auth.ParseToken(body.Token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	email, err := s.tokens.VerifyToken(token)
	if err != nil {
		s.writeError(w, err)
		return
	}

	sess, err := auth.NewSession(email, s.sessionTTL)
	if err != nil {
		s.writeError(w, apperrors.Wrap(apperrors.ErrCodeInternal, err, "create session"))
		return
	}
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		s.writeError(w, apperrors.Wrap(apperrors.ErrCodeInternal, err, "store session"))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.writeJSON(w, http.StatusOK, sess)
}

// handleLogout deletes the current session, if any.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if id := sessionIDFrom(r); id != "" && s.sessions != nil {
		if err := s.sessions.Delete(r.Context(), id); err != nil {
			s.writeError(w, apperrors.Wrap(apperrors.ErrCodeInternal, err, "delete session"))
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

// ============================================================================
// Middleware
// ============================================================================

// requireAuth rejects requests without a live session.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.sessions == nil {
			s.writeError(w, apperrors.New(apperrors.ErrCodeUnauthorized, "authentication is not configured"))
			return
		}

		id := sessionIDFrom(r)
		if id == "" {
			s.writeError(w, apperrors.New(apperrors.ErrCodeUnauthorized, "authentication required"))
			return
		}

		sess, err := s.sessions.Get(r.Context(), id)
		if err != nil {
			s.writeError(w, apperrors.Wrap(apperrors.ErrCodeInternal, err, "load session"))
			return
		}
		if sess == nil {
			s.writeError(w, apperrors.New(apperrors.ErrCodeSessionExpired, "session expired or unknown"))
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
	})
}

// sessionIDFrom extracts the session ID from the cookie or a bearer
// Authorization header.
func sessionIDFrom(r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
