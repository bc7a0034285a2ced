// Package middleware provides the HTTP middleware chain: session auth,
// CORS, rate limiting, tracing, and metrics.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	svcerr "github.com/ConfSphere/conference_layer/internal/errors"
	"github.com/ConfSphere/conference_layer/internal/httputil"
	"github.com/ConfSphere/conference_layer/internal/identity"
	"github.com/ConfSphere/conference_layer/internal/logging"
)

type contextKey string

// identityKey carries the resolved Identity through the request context.
const identityKey contextKey = "identity"

// accessTokenKey carries the raw bearer token for pass-through calls
// (logout, password update).
const accessTokenKey contextKey = "access_token"

// SessionClaims are the Supabase session token claims we rely on.
type SessionClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates Supabase session tokens (HS256, signed with
// the project JWT secret) and resolves the caller's identity.
type AuthMiddleware struct {
	secret    []byte
	ids       *identity.Service
	logger    *logging.Logger
	skipPaths map[string]bool
}

// NewAuthMiddleware creates an auth middleware. Requests to skipPaths
// pass through unauthenticated.
func NewAuthMiddleware(jwtSecret string, ids *identity.Service, logger *logging.Logger, skipPaths []string) *AuthMiddleware {
	skip := make(map[string]bool)
	for _, path := range skipPaths {
		skip[path] = true
	}
	return &AuthMiddleware{
		secret:    []byte(jwtSecret),
		ids:       ids,
		logger:    logger,
		skipPaths: skip,
	}
}

// Handler returns the middleware handler.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.respondError(w, r, svcerr.NotAuthenticated("missing Authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			m.respondError(w, r, svcerr.NotAuthenticated("invalid Authorization header format"))
			return
		}
		tokenString := parts[1]

		claims, err := m.validateToken(tokenString)
		if err != nil {
			m.logger.WithContext(r.Context()).WithError(err).Warn("session token validation failed")
			m.respondError(w, r, err)
			return
		}

		ident, err := m.ids.Identify(r.Context(), claims.Subject, claims.Email)
		if err != nil {
			m.respondError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, ident)
		ctx = context.WithValue(ctx, accessTokenKey, tokenString)
		ctx = context.WithValue(ctx, logging.UserIDKey, ident.AuthID)
		ctx = context.WithValue(ctx, logging.RoleKey, string(ident.Kind))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) validateToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, svcerr.NotAuthenticated("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, svcerr.NotAuthenticated("invalid or expired session token")
	}
	if !token.Valid {
		return nil, svcerr.NotAuthenticated("invalid session token")
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || claims.Subject == "" {
		return nil, svcerr.NotAuthenticated("session token has no subject")
	}
	return claims, nil
}

func (m *AuthMiddleware) respondError(w http.ResponseWriter, r *http.Request, err error) {
	httputil.WriteError(w, err)

	serviceErr := svcerr.GetServiceError(err)
	status := http.StatusInternalServerError
	if serviceErr != nil {
		status = serviceErr.HTTPStatus
	}
	m.logger.WithContext(r.Context()).WithFields(map[string]interface{}{
		"path":   r.URL.Path,
		"method": r.Method,
		"status": status,
	}).Warn("authentication failed")
}

// IdentityFromContext returns the resolved identity for the request.
// The zero Identity (KindUnresolved with empty AuthID is impossible
// past the auth middleware) means the request skipped authentication.
func IdentityFromContext(ctx context.Context) (identity.Identity, bool) {
	ident, ok := ctx.Value(identityKey).(identity.Identity)
	return ident, ok
}

// AccessTokenFromContext returns the raw bearer token for pass-through
// auth calls.
func AccessTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(accessTokenKey).(string)
	return token
}
