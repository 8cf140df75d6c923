package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTHENTICATION
// Identity lives outside this service. The middleware only resolves a
// bearer token to a user ID through an injected authenticator.
// ══════════════════════════════════════════════════════════════════════════════

// ErrInvalidToken is returned by authenticators for unknown or expired tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenAuthenticator resolves a bearer token to a user ID.
type TokenAuthenticator interface {
	// Authenticate returns the user ID the token belongs to, or
	// ErrInvalidToken.
	Authenticate(ctx context.Context, token string) (string, error)
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}

// withAuth requires a valid bearer token and puts the user ID in context.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
			return
		}

		if s.deps.Authenticator == nil {
			writeJSONError(w, http.StatusInternalServerError, "auth_not_configured", "Authentication is not configured")
			return
		}

		userID, err := s.deps.Authenticator.Authenticate(r.Context(), token)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyUserID, userID)
		next(w, r.WithContext(ctx))
	}
}

// withOptionalAuth resolves the token if present; anonymous requests
// pass through with no user in context.
func (s *Server) withOptionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" || s.deps.Authenticator == nil {
			next(w, r)
			return
		}

		userID, err := s.deps.Authenticator.Authenticate(r.Context(), token)
		if err != nil {
			// A bad token on an optional endpoint is still rejected:
			// silently downgrading to anonymous hides client bugs.
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyUserID, userID)
		next(w, r.WithContext(ctx))
	}
}

// currentUserID returns the authenticated user ID, empty for anonymous.
func currentUserID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyUserID).(string); ok {
		return id
	}
	return ""
}
