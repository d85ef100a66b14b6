package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestInspectReadsClaims(t *testing.T) {
	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	raw := signedToken(t, jwt.MapClaims{
		"sub": "pos-terminal",
		"exp": exp.Unix(),
	})

	info, err := Inspect(raw)
	require.NoError(t, err)
	assert.Equal(t, "pos-terminal", info.Subject)
	require.NotNil(t, info.ExpiresAt)
	assert.True(t, info.ExpiresAt.Equal(exp))
}

func TestInspectRejectsGarbage(t *testing.T) {
	_, err := Inspect("not-a-jwt")
	assert.Error(t, err)
}

func TestExpiresWithin(t *testing.T) {
	soon := time.Now().Add(10 * time.Minute)
	info := TokenInfo{ExpiresAt: &soon}
	assert.True(t, info.ExpiresWithin(time.Hour))
	assert.False(t, info.ExpiresWithin(time.Minute))

	assert.False(t, TokenInfo{}.ExpiresWithin(time.Hour), "no exp claim never expires")
}
