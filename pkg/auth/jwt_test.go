package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newHS256Pair(t *testing.T) (*JWTValidator, *JWTGenerator) {
	t.Helper()
	v, err := NewJWTValidator(JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     "test-secret",
		Issuer:        "substrate",
		Audience:      []string{"substrate-clients"},
	})
	require.NoError(t, err)
	g, err := NewJWTGenerator(JWTGeneratorConfig{
		SigningMethod: "HS256",
		SecretKey:     "test-secret",
		Issuer:        "substrate",
		Audience:      []string{"substrate-clients"},
		ExpiryTime:    time.Hour,
	})
	require.NoError(t, err)
	return v, g
}

func TestValidateToken_RoundTrip(t *testing.T) {
	v, g := newHS256Pair(t)

	token, err := g.GenerateToken("user-1", "tenant-1", "a@b.com", []string{"member"})
	require.NoError(t, err)

	claims, err := v.ValidateToken("Bearer " + token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "tenant-1", claims.TenantID)
}

func TestValidateToken_MissingToken(t *testing.T) {
	v, _ := newHS256Pair(t)

	_, err := v.ValidateToken("   ")
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestValidateToken_RejectsMissingTenantID(t *testing.T) {
	v, g := newHS256Pair(t)

	token, err := g.GenerateToken("user-1", "", "a@b.com", nil)
	require.NoError(t, err)

	_, err = v.ValidateToken(token)
	require.ErrorIs(t, err, ErrInvalidClaims)
}

func TestValidateToken_RejectsWrongAudience(t *testing.T) {
	v, err := NewJWTValidator(JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     "test-secret",
		Issuer:        "substrate",
		Audience:      []string{"other-client"},
	})
	require.NoError(t, err)
	_, g := newHS256Pair(t)

	token, err := g.GenerateToken("user-1", "tenant-1", "a@b.com", nil)
	require.NoError(t, err)

	_, err = v.ValidateToken(token)
	require.ErrorIs(t, err, ErrInvalidClaims)
}

func TestNewJWTValidator_RequiresSecretForHS256(t *testing.T) {
	_, err := NewJWTValidator(JWTConfig{SigningMethod: "HS256"})
	require.Error(t, err)
}

func TestNewJWTValidator_RejectsUnknownSigningMethod(t *testing.T) {
	_, err := NewJWTValidator(JWTConfig{SigningMethod: "ES256"})
	require.Error(t, err)
}
