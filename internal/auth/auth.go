// Package auth implements passwordless magic-link authentication.
//
// Admins request a sign-in link for their email address; the link carries
// a short-lived signed token. Redeeming the token creates a server-side
// session identified by a random opaque ID, which the browser holds in a
// cookie. Only allowlisted admin emails can sign in.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"
)

// Default durations.
const (
	// DefaultSessionTTL is the default session duration.
	DefaultSessionTTL = 24 * time.Hour

	// DefaultTokenTTL is the default magic-link token duration. Links are
	// meant to be clicked within minutes of arriving.
	DefaultTokenTTL = 15 * time.Minute
)

// Session stores an authenticated admin's session data.
type Session struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// SessionStore is the interface for session storage backends.
type SessionStore interface {
	// Get retrieves a session by ID. Returns nil, nil if the session
	// doesn't exist.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, session *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error

	// Cleanup removes expired sessions.
	Cleanup(ctx context.Context) error
}

// GenerateID creates a cryptographically secure random session ID.
func GenerateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// NewSession creates a new session for the given email.
func NewSession(email string, ttl time.Duration) (*Session, error) {
	id, err := GenerateID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Session{
		ID:        id,
		Email:     email,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}, nil
}
