// Package csrf issues and verifies per-session CSRF tokens for the
// contact form.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"

	"gitea.com/go-chi/session"
)

// sessionKey is the session store key holding the token
const sessionKey = "csrf_token"

// tokenBytes is the token entropy: 256 bits
const tokenBytes = 32

// Token returns the session's CSRF token, generating and storing a fresh
// one on first access. The token is reused for the session's lifetime.
// Requires the session middleware to be mounted on the route.
func Token(r *http.Request) (string, error) {
	sess := session.GetSession(r)
	if sess == nil {
		return "", fmt.Errorf("no session on request")
	}

	if existing, ok := sess.Get(sessionKey).(string); ok && existing != "" {
		return existing, nil
	}

	token, err := generate()
	if err != nil {
		return "", err
	}
	if err := sess.Set(sessionKey, token); err != nil {
		return "", fmt.Errorf("failed to store csrf token: %w", err)
	}
	return token, nil
}

// SessionToken returns the token already stored for the request's session,
// or the empty string when none exists
func SessionToken(r *http.Request) string {
	sess := session.GetSession(r)
	if sess == nil {
		return ""
	}
	if token, ok := sess.Get(sessionKey).(string); ok {
		return token
	}
	return ""
}

// Match compares a submitted token against the session token in constant
// time. Both must be non-empty.
func Match(submitted, stored string) bool {
	if submitted == "" || stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(stored)) == 1
}

// generate produces a cryptographically random hex token
func generate() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate csrf token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
