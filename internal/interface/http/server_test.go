package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakably/speakably-backend/internal/domain/shared"
)

type staticAuthenticator struct {
	tokens map[string]string
}

func (a *staticAuthenticator) Authenticate(ctx context.Context, token string) (string, error) {
	if userID, ok := a.tokens[token]; ok {
		return userID, nil
	}
	return "", ErrInvalidToken
}

type staticHealthChecker struct {
	status HealthStatus
}

func (c *staticHealthChecker) Check(ctx context.Context) HealthStatus {
	return c.status
}

func newTestServer(t *testing.T, deps Dependencies) *Server {
	t.Helper()

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0
	return NewServer(cfg, deps)
}

func doRequest(srv *Server, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, Dependencies{
		HealthChecker: &staticHealthChecker{status: HealthStatus{Healthy: true, Ready: true}},
	})

	for _, path := range []string{"/health", "/healthz", "/ready", "/live"} {
		rec := doRequest(srv, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, "path %s", path)
	}
}

func TestHealthUnhealthyReturns503(t *testing.T) {
	srv := newTestServer(t, Dependencies{
		HealthChecker: &staticHealthChecker{status: HealthStatus{Healthy: false, Ready: false, Message: "db down"}},
	})

	rec := doRequest(srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doRequest(srv, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRootListsEndpoints(t *testing.T) {
	srv := newTestServer(t, Dependencies{})

	rec := doRequest(srv, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestAuthRequiredEndpointsRejectMissingToken(t *testing.T) {
	srv := newTestServer(t, Dependencies{
		Authenticator: &staticAuthenticator{tokens: map[string]string{"tok-1": "user-1"}},
	})

	rec := doRequest(srv, http.MethodGet, "/api/v1/profiles/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(srv, http.MethodGet, "/api/v1/notifications", "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalAuthRejectsBadToken(t *testing.T) {
	srv := newTestServer(t, Dependencies{
		Authenticator: &staticAuthenticator{tokens: map[string]string{"tok-1": "user-1"}},
	})

	// Явно переданный мусорный токен не деградирует до анонима.
	rec := doRequest(srv, http.MethodGet, "/api/v1/leaderboard", "expired")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerTokenParsing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, bearerToken(req))

	req.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, bearerToken(req))

	req.Header.Set("Authorization", "Bearer tok-1")
	assert.Equal(t, "tok-1", bearerToken(req))

	req.Header.Set("Authorization", "Bearer   tok-2  ")
	assert.Equal(t, "tok-2", bearerToken(req))
}

func TestRequestIDPropagation(t *testing.T) {
	srv := newTestServer(t, Dependencies{})

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))

	// Generated when absent.
	rec = doRequest(srv, http.MethodGet, "/live", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRateLimiting(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 3
	srv := NewServer(cfg, Dependencies{})

	for i := 0; i < 3; i++ {
		rec := doRequest(srv, http.MethodGet, "/live", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doRequest(srv, http.MethodGet, "/live", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestDomainErrorMapping(t *testing.T) {
	srv := newTestServer(t, Dependencies{})

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", shared.NewDomainError("progress", "op", shared.ErrValidation, "bad input"), http.StatusBadRequest},
		{"not_found", shared.ErrLessonNotFound, http.StatusNotFound},
		{"forbidden", shared.ErrLessonLocked, http.StatusForbidden},
		{"conflict", shared.ErrLearnerAlreadyExists, http.StatusConflict},
		{"storage_unavailable", shared.NewDomainError("progress", "op", shared.ErrStorageUnavailable, "db down"), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			srv.writeDomainError(rec, req, tc.err)
			assert.Equal(t, tc.want, rec.Code)

			var resp JSONResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
		})
	}
}
