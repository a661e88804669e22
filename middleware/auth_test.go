package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func protected(auth *ScorerAuth) http.Handler {
	return auth.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := GetUserIDFromContext(r.Context())
		_, _ = io.WriteString(w, id)
	}))
}

func do(h http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/matches/m1/score", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestScorerAuthDisabledPassesThrough(t *testing.T) {
	auth := NewScorerAuth("", slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.False(t, auth.Enabled())
	assert.Equal(t, http.StatusOK, do(protected(auth), "").Code)
}

func TestScorerAuth(t *testing.T) {
	auth := NewScorerAuth(testSecret, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h := protected(auth)
	exp := time.Now().Add(time.Hour).Unix()

	rec := do(h, "Bearer "+signToken(t, testSecret, jwt.MapClaims{"user_id": "sc01", "role": RoleScorer, "exp": exp}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sc01", rec.Body.String())

	rec = do(h, "Bearer "+signToken(t, testSecret, jwt.MapClaims{"user_id": float64(7), "role": RoleAdmin, "exp": exp}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7", rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(h, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(h, "Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized,
		do(h, "Bearer "+signToken(t, "other-secret", jwt.MapClaims{"role": RoleScorer, "exp": exp})).Code)
	assert.Equal(t, http.StatusUnauthorized,
		do(h, "Bearer "+signToken(t, testSecret, jwt.MapClaims{"role": RoleScorer, "exp": time.Now().Add(-time.Hour).Unix()})).Code)

	assert.Equal(t, http.StatusForbidden,
		do(h, "Bearer "+signToken(t, testSecret, jwt.MapClaims{"role": "viewer", "exp": exp})).Code)
	assert.Equal(t, http.StatusForbidden,
		do(h, "Bearer "+signToken(t, testSecret, jwt.MapClaims{"exp": exp})).Code)
}
