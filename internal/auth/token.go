package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what the terminal can learn from its injected bearer token
// without holding the signing key. The backend still verifies the signature
// on every request; this is only for startup diagnostics.
type TokenInfo struct {
	Subject   string
	ExpiresAt *time.Time
}

// Inspect parses the bearer token without verifying it.
func Inspect(token string) (TokenInfo, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, fmt.Errorf("parsing bearer token: %w", err)
	}

	info := TokenInfo{}
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		info.ExpiresAt = &t
	}
	return info, nil
}

// ExpiresWithin reports whether the token expires inside the window. Tokens
// without an exp claim never report as expiring.
func (t TokenInfo) ExpiresWithin(window time.Duration) bool {
	if t.ExpiresAt == nil {
		return false
	}
	return time.Until(*t.ExpiresAt) < window
}
