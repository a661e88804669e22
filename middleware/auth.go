package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const userContextKey contextKey = "user"

// Роли, которым разрешено менять состояние матча.
const (
	RoleScorer = "scorer"
	RoleAdmin  = "admin"
)

// ScorerAuth проверяет Bearer-токен (HS256) на мутирующих маршрутах.
// С пустым секретом проверка выключена и запросы проходят как есть.
type ScorerAuth struct {
	secret []byte
	roles  []string
	logger *slog.Logger
}

func NewScorerAuth(secret string, logger *slog.Logger, roles ...string) *ScorerAuth {
	if len(roles) == 0 {
		roles = []string{RoleScorer, RoleAdmin}
	}
	return &ScorerAuth{secret: []byte(secret), roles: roles, logger: logger}
}

func (a *ScorerAuth) Enabled() bool {
	return len(a.secret) > 0
}

func (a *ScorerAuth) Require(next http.Handler) http.Handler {
	if !a.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.parse(r.Header.Get("Authorization"))
		if err != nil {
			a.logger.DebugContext(r.Context(), "Rejected scorer token", slog.Any("error", err))
			writeError(w, http.StatusUnauthorized, "invalid or missing token")
			return
		}

		role, err := roleFromClaims(claims)
		if err != nil || !a.allowed(role) {
			writeError(w, http.StatusForbidden, "operation not allowed for the current user")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, claims)
		if userID, err := GetUserIDFromContext(ctx); err == nil {
			a.logger.DebugContext(ctx, "Scorer authorized", slog.String("user_id", userID), slog.String("role", role))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *ScorerAuth) parse(header string) (jwt.MapClaims, error) {
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(tokenString) == "" {
		return nil, errors.New("authorization header must be 'Bearer <token>'")
	}

	token, err := jwt.Parse(strings.TrimSpace(tokenString), func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func (a *ScorerAuth) allowed(role string) bool {
	for _, r := range a.roles {
		if r == role {
			return true
		}
	}
	return false
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
