package auth

import (
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/matzehuels/formulagraph/pkg/errors"
)

// tokenIssuer identifies tokens minted by this service.
const tokenIssuer = "formulagraph"

// Manager mints and verifies magic-link tokens.
type Manager struct {
	secret    []byte
	allowlist map[string]bool
	tokenTTL  time.Duration
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithTokenTTL overrides the magic-link token lifetime.
func WithTokenTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		m.tokenTTL = ttl
	}
}

// NewManager creates a token manager. Only emails in adminEmails may be
// issued tokens; comparison is case-insensitive.
func NewManager(secret string, adminEmails []string, opts ...ManagerOption) *Manager {
	allowlist := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			allowlist[e] = true
		}
	}

	m := &Manager{
		secret:    []byte(secret),
		allowlist: allowlist,
		tokenTTL:  DefaultTokenTTL,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Allowed reports whether the email may sign in.
func (m *Manager) Allowed(email string) bool {
	return m.allowlist[strings.ToLower(strings.TrimSpace(email))]
}

// MintToken creates a signed magic-link token for the given email.
// Returns ErrCodeForbidden if the email is not on the admin allowlist.
func (m *Manager) MintToken(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !m.allowlist[email] {
		return "", apperrors.New(apperrors.ErrCodeForbidden, "email %s is not an admin", email)
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeInternal, err, "sign token")
	}
	return signed, nil
}

// VerifyToken validates a magic-link token and returns the email it was
// minted for. The email must still be on the allowlist at redemption time.
func (m *Manager) VerifyToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.New(apperrors.ErrCodeInvalidToken, "unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeInvalidToken, err, "parse token")
	}
	if !token.Valid {
		return "", apperrors.New(apperrors.ErrCodeInvalidToken, "token is not valid")
	}

	email := claims.Subject
	if !m.allowlist[email] {
		return "", apperrors.New(apperrors.ErrCodeForbidden, "email %s is not an admin", email)
	}
	return email, nil
}

// ParseToken extracts a magic-link token from user input. Users often
// paste the entire redirect URL rather than the bare token, so this
// accepts, in order of preference:
//
//   - a full URL whose fragment carries access_token=...
//   - a bare fragment string like "access_token=...&token_type=bearer"
//   - the raw token itself
func ParseToken(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", apperrors.New(apperrors.ErrCodeInvalidToken, "empty token")
	}

	fragment := input
	if u, err := url.Parse(input); err == nil && u.Fragment != "" {
		fragment = u.Fragment
	}
	fragment = strings.TrimPrefix(fragment, "#")

	if strings.Contains(fragment, "access_token=") {
		values, err := url.ParseQuery(fragment)
		if err != nil {
			return "", apperrors.Wrap(apperrors.ErrCodeInvalidToken, err, "parse token fragment")
		}
		token := values.Get("access_token")
		if token == "" {
			return "", apperrors.New(apperrors.ErrCodeInvalidToken, "fragment has no access_token value")
		}
		return token, nil
	}

	return fragment, nil
}
