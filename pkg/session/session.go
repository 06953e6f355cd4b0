// Package session loads the stored session token and exposes the identity
// claims the client needs for display and request bodies. Verifying the
// token is the backend's job; the client only decodes it.
package session

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the authenticated inspector's session
type Session struct {
	Token       string
	InspectorID string
	ExpiresAt   time.Time
}

// Load reads the session token from path and decodes its claims
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session token: %w", err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return nil, fmt.Errorf("session token file %s is empty", path)
	}

	return FromToken(token)
}

// FromToken builds a session from a raw token string. Tokens that are not
// JWTs are still usable; their claims just stay empty.
func FromToken(token string) (*Session, error) {
	s := &Session{Token: token}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		// Opaque (non-JWT) tokens are accepted as-is
		return s, nil
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return s, nil
	}

	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		s.InspectorID = sub
	} else if id, ok := claims["user_id"].(string); ok {
		s.InspectorID = id
	} else if id, ok := claims["user_id"].(float64); ok {
		s.InspectorID = fmt.Sprintf("%.0f", id)
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.ExpiresAt = exp.Time
	}

	return s, nil
}

// Expired reports whether the token carries an expiry in the past. Tokens
// without an exp claim never report expired; the backend rejects them if
// they are stale.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
