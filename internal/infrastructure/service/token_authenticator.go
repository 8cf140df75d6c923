package service

import (
	"context"
	"errors"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATIC TOKEN AUTHENTICATOR
// ══════════════════════════════════════════════════════════════════════════════

// ErrUnknownToken is returned when a bearer token does not resolve to a user.
var ErrUnknownToken = errors.New("unknown token")

// StaticTokenAuthenticator resolves bearer tokens from a fixed token→userID
// map. Identity is owned by an external service; this is the development and
// test stand-in (AUTH_STATIC_TOKENS), and config validation rejects it in
// production.
type StaticTokenAuthenticator struct {
	tokens map[string]string
}

// NewStaticTokenAuthenticator creates an authenticator over the given map.
// The map is copied so later mutation of the source cannot change auth.
func NewStaticTokenAuthenticator(tokens map[string]string) *StaticTokenAuthenticator {
	copied := make(map[string]string, len(tokens))
	for token, userID := range tokens {
		if token == "" || userID == "" {
			continue
		}
		copied[token] = userID
	}
	return &StaticTokenAuthenticator{tokens: copied}
}

// Authenticate resolves a bearer token to a user ID.
func (a *StaticTokenAuthenticator) Authenticate(_ context.Context, token string) (string, error) {
	userID, ok := a.tokens[token]
	if !ok {
		return "", ErrUnknownToken
	}
	return userID, nil
}

// Len returns the number of configured tokens.
func (a *StaticTokenAuthenticator) Len() int { return len(a.tokens) }
