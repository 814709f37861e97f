package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"substrate/pkg/auth"
)

func newHS256Pair(t *testing.T) (*auth.JWTValidator, *auth.JWTGenerator) {
	t.Helper()
	v, err := auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     "test-secret",
		Issuer:        "substrate",
		Audience:      []string{"substrate-clients"},
	})
	require.NoError(t, err)
	g, err := auth.NewJWTGenerator(auth.JWTGeneratorConfig{
		SigningMethod: "HS256",
		SecretKey:     "test-secret",
		Issuer:        "substrate",
		Audience:      []string{"substrate-clients"},
		ExpiryTime:    time.Hour,
	})
	require.NoError(t, err)
	return v, g
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate_RejectsMissingToken(t *testing.T) {
	v, _ := newHS256Pair(t)
	mw := Authenticate(v, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	mw(okHandler()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_AcceptsValidToken(t *testing.T) {
	v, g := newHS256Pair(t)
	mw := Authenticate(v, nil, zap.NewNop())

	token, err := g.GenerateToken("user-1", "tenant-1", "a@b.com", []string{"member"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	mw(okHandler()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticate_RejectsInvalidToken(t *testing.T) {
	v, _ := newHS256Pair(t)
	mw := Authenticate(v, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	mw(okHandler()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole_AllowsMatchingRole(t *testing.T) {
	v, g := newHS256Pair(t)
	authMW := Authenticate(v, nil, zap.NewNop())
	roleMW := RequireRole("admin", zap.NewNop())

	token, err := g.GenerateToken("user-1", "tenant-1", "a@b.com", []string{"admin", "member"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	authMW(roleMW(okHandler())).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole_RejectsMissingRole(t *testing.T) {
	v, g := newHS256Pair(t)
	authMW := Authenticate(v, nil, zap.NewNop())
	roleMW := RequireRole("admin", zap.NewNop())

	token, err := g.GenerateToken("user-1", "tenant-1", "a@b.com", []string{"member"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	authMW(roleMW(okHandler())).ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCORS_HandlesPreflight(t *testing.T) {
	mw := CORS()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	mw(okHandler()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_PassesThroughNonPreflight(t *testing.T) {
	mw := CORS()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	mw(okHandler()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestID_GeneratesWhenAbsent(t *testing.T) {
	mw := RequestID()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	mw(okHandler()).ServeHTTP(rec, req)

	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestID_PreservesIncoming(t *testing.T) {
	mw := RequestID()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	mw(okHandler()).ServeHTTP(rec, req)

	require.Equal(t, "fixed-id", rec.Header().Get("X-Request-ID"))
}
