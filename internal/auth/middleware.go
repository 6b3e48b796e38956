package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/muaina/portal/internal/org"
	"github.com/muaina/portal/internal/principal"
)

type JWTMiddleware struct {
	secret   []byte
	orgs     *org.Service
	sessions *Sessions
}

func NewJWTMiddleware(secret string, orgs *org.Service, sessions *Sessions) *JWTMiddleware {
	return &JWTMiddleware{
		secret:   []byte(secret),
		orgs:     orgs,
		sessions: sessions,
	}
}

func (m *JWTMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := extractBearerToken(r)
		if tokenStr == "" {
			writeError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.secret, nil
		})
		if err != nil || !token.Valid {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		if claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(time.Now()) {
			writeError(w, http.StatusUnauthorized, "token expired")
			return
		}

		userID, err := uuid.Parse(claims.Sub)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid user ID in token")
			return
		}

		ctx := r.Context()

		if m.sessions.IsRevoked(ctx, userID) {
			writeError(w, http.StatusUnauthorized, "session revoked")
			return
		}

		user, err := m.orgs.GetUserByID(ctx, userID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "user not found")
			return
		}

		// A valid token never outruns deactivation: the flag is checked on
		// every request and the session is revoked as a side effect.
		if !user.IsActive {
			_ = m.sessions.Revoke(ctx, userID)
			writeError(w, http.StatusUnauthorized, "account deactivated")
			return
		}

		ctx = principal.WithUser(ctx, user)
		if user.OrganizationID != nil {
			if o, err := m.orgs.GetByID(ctx, *user.OrganizationID); err == nil {
				ctx = principal.WithOrganization(ctx, o)
			}
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
