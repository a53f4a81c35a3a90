package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWT() *JWTManager {
	return NewJWTManager(JWTConfig{
		Issuer:         "storefront",
		AccessSecret:   "access-secret",
		RefreshSecret:  "refresh-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 30,
	})
}

func TestSignAndParseAccess(t *testing.T) {
	m := testJWT()
	tok, exp, err := m.SignAccess(7, "admin")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, 5*time.Second)

	claims, err := m.ParseAccess(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "7", claims.Subject)
}

func TestAccessAndRefreshSecretsDoNotMix(t *testing.T) {
	m := testJWT()
	refresh, _, err := m.SignRefresh(7, "admin")
	require.NoError(t, err)

	_, err = m.ParseAccess(refresh)
	assert.Error(t, err)
	_, err = m.ParseRefresh(refresh)
	assert.NoError(t, err)
}

func TestRefreshTokensAreUnique(t *testing.T) {
	m := testJWT()
	a, _, _ := m.SignRefresh(1, "admin")
	b, _, _ := m.SignRefresh(1, "admin")
	assert.NotEqual(t, HashToken(a), HashToken(b))
}

func TestExpiredTokenRejected(t *testing.T) {
	m := testJWT()
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }
	tok, _, err := m.SignAccess(1, "admin")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ParseAccess(tok)
	assert.Error(t, err)
}

func TestWrongIssuerRejected(t *testing.T) {
	other := NewJWTManager(JWTConfig{Issuer: "elsewhere", AccessSecret: "access-secret", RefreshSecret: "x"})
	tok, _, err := other.SignAccess(1, "admin")
	require.NoError(t, err)

	_, err = testJWT().ParseAccess(tok)
	assert.Error(t, err)
}

func TestHashPassword(t *testing.T) {
	_, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	h, err := HashPassword("argan-oil-42")
	require.NoError(t, err)
	assert.True(t, CheckPassword(h, "argan-oil-42"))
	assert.False(t, CheckPassword(h, "argan-oil-43"))
}

func TestGeneratePassword(t *testing.T) {
	a, err := GeneratePassword(12)
	require.NoError(t, err)
	b, err := GeneratePassword(12)
	require.NoError(t, err)

	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
	_, err = HashPassword(a)
	assert.NoError(t, err)
}
