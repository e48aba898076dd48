package helpers

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_SignParse(t *testing.T) {
	m := NewJWTManager("secret")

	tok, err := m.Sign("user-1")
	require.NoError(t, err)

	claims, err := m.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.NotEmpty(t, claims.ID)
	assert.Nil(t, claims.ExpiresAt)
}

func TestJWTManager_TokensAreDistinct(t *testing.T) {
	m := NewJWTManager("secret")
	a, err := m.Sign("user-1")
	require.NoError(t, err)
	b, err := m.Sign("user-1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestJWTManager_Rejects(t *testing.T) {
	m := NewJWTManager("secret")
	other, err := NewJWTManager("other").Sign("user-1")
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "user-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noUID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{}).SignedString([]byte("secret"))
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": other,
		"alg none":     none,
		"missing uid":  noUID,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := m.Parse(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
