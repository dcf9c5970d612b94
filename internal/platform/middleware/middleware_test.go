// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/tenantgate/internal/platform/ctxutil"
	"github.com/taibuivan/tenantgate/internal/platform/middleware"
	"github.com/taibuivan/tenantgate/internal/platform/respond"
	"github.com/taibuivan/tenantgate/internal/platform/sec"
)

// # Helpers

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (clock *testClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

func (clock *testClock) Advance(d time.Duration) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.now = clock.now.Add(d)
}

type stubUsers struct {
	exists bool
	err    error
}

func (users stubUsers) UserExists(context.Context, string) (bool, error) {
	return users.exists, users.err
}

// okHandler records the principal and tenant it was reached with.
type okHandler struct {
	principal *sec.Principal
	tenant    string
	called    bool
}

func (handler *okHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	handler.called = true
	handler.principal = ctxutil.GetPrincipal(request.Context())
	handler.tenant = ctxutil.GetTenant(request.Context())
	writer.WriteHeader(http.StatusOK)
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) respond.ErrorEnvelope {
	t.Helper()
	var envelope respond.ErrorEnvelope
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&envelope))
	return envelope
}

func withPrincipal(principal *sec.Principal, next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if principal != nil {
			request = request.WithContext(ctxutil.WithPrincipal(request.Context(), principal))
		}
		next.ServeHTTP(writer, request)
	})
}

// # Authenticate

/*
TestAuthenticate covers extraction, verification and the optional store re-check.
*/
func TestAuthenticate(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	codec, err := sec.NewTokenCodec("access", "refresh", "test", sec.WithClock(clock.Now))
	require.NoError(t, err)

	valid, err := codec.SignAccess(sec.AccessClaims{UserID: "u-1", Email: "a@x.io", Role: "admin", TenantID: "acme"}, time.Hour)
	require.NoError(t, err)
	shortLived, err := codec.SignAccess(sec.AccessClaims{UserID: "u-1", Role: "user"}, time.Minute)
	require.NoError(t, err)
	refresh, err := codec.SignRefresh(sec.RefreshClaims{UserID: "u-1"}, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		users      middleware.UserChecker
		advance    time.Duration
		wantStatus int
		wantCode   string
	}{
		{"missing_header", "", nil, 0, http.StatusUnauthorized, "AUTH_TOKEN_MISSING"},
		{"wrong_scheme", "Basic " + valid, nil, 0, http.StatusUnauthorized, "AUTH_TOKEN_MISSING"},
		{"empty_bearer", "Bearer ", nil, 0, http.StatusUnauthorized, "AUTH_TOKEN_MISSING"},
		{"garbage_token", "Bearer abc.def.ghi", nil, 0, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"refresh_token_as_access", "Bearer " + refresh, nil, 0, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"expired", "Bearer " + shortLived, nil, 2 * time.Minute, http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"user_gone", "Bearer " + valid, stubUsers{exists: false}, 0, http.StatusUnauthorized, "USER_NOT_FOUND"},
		{"store_failure", "Bearer " + valid, stubUsers{err: errors.New("db down")}, 0, http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"valid_trusted", "Bearer " + valid, nil, 0, http.StatusOK, ""},
		{"valid_lowercase_scheme", "bearer " + valid, stubUsers{exists: true}, 0, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := clock.Now()
			clock.Advance(tt.advance)
			defer func() { clock.now = start }()

			next := &okHandler{}
			handler := middleware.Authenticate(codec, tt.users)(next)

			request := httptest.NewRequest(http.MethodGet, "/api/v1/account/me", nil)
			if tt.header != "" {
				request.Header.Set("Authorization", tt.header)
			}
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			if tt.wantCode != "" {
				assert.False(t, next.called)
				assert.Equal(t, tt.wantCode, decodeError(t, recorder).Code)
				return
			}

			require.True(t, next.called)
			require.NotNil(t, next.principal)
			assert.Equal(t, "u-1", next.principal.UserID)
			assert.Equal(t, sec.RoleAdmin, next.principal.Role)
			assert.Equal(t, "acme", next.principal.TenantID)
		})
	}
}

// # Authorizer

/*
TestRequireRoles verifies the authorizer decision table.
*/
func TestRequireRoles(t *testing.T) {
	admin := &sec.Principal{UserID: "a", Role: sec.RoleAdmin}
	user := &sec.Principal{UserID: "u", Role: sec.RoleUser}

	tests := []struct {
		name       string
		principal  *sec.Principal
		roles      []sec.Role
		wantStatus int
		wantCode   string
	}{
		{"anonymous", nil, []sec.Role{sec.RoleUser}, http.StatusUnauthorized, "USER_NOT_AUTHENTICATED"},
		{"user_on_admin_route", user, []sec.Role{sec.RoleAdmin}, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS"},
		{"admin_on_admin_route", admin, []sec.Role{sec.RoleAdmin}, http.StatusOK, ""},
		{"user_in_set", user, []sec.Role{sec.RoleUser, sec.RoleAdmin}, http.StatusOK, ""},
		{"empty_set", admin, nil, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &okHandler{}
			handler := withPrincipal(tt.principal, middleware.RequireRoles(tt.roles...)(next))

			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.wantStatus, recorder.Code)
			assert.Equal(t, tt.wantCode == "", next.called)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, recorder).Code)
			}
		})
	}
}

// # Tenant Resolution

/*
TestResolveTenant verifies source precedence, normalization and the echo header.
*/
func TestResolveTenant(t *testing.T) {
	tests := []struct {
		name        string
		precedence  string
		host        string
		header      string
		tokenTenant string
		want        string
	}{
		{"subdomain_only", "token", "acme.example.com", "", "", "acme"},
		{"header_overrides_subdomain", "token", "acme.example.com", "beta", "", "beta"},
		{"header_overrides_subdomain_header_mode", "header", "acme.example.com", "beta", "", "beta"},
		{"token_overrides_header", "token", "acme.example.com", "beta", "gamma", "gamma"},
		{"header_overrides_token", "header", "acme.example.com", "beta", "gamma", "beta"},
		{"token_only", "token", "example.com", "", "gamma", "gamma"},
		{"port_stripped", "token", "acme.example.com:8080", "", "", "acme"},
		{"header_trimmed_lowercased", "token", "example.com", "  ACME_Corp ", "", "acme_corp"},
		{"header_underscore_kept", "token", "example.com", "tenant_42", "", "tenant_42"},
		{"reserved_subdomain", "token", "www.example.com", "", "", ""},
		{"bare_domain", "token", "example.com", "", "", ""},
		{"ip_literal", "token", "10.0.0.1", "", "", ""},
		{"blank_header", "token", "localhost", "   ", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := middleware.TenantPolicy{
				Header:             "X-Tenant-ID",
				Precedence:         tt.precedence,
				ReservedSubdomains: []string{"www", "api"},
			}

			var principal *sec.Principal
			if tt.tokenTenant != "" {
				principal = &sec.Principal{UserID: "u", Role: sec.RoleUser, TenantID: tt.tokenTenant}
			}

			next := &okHandler{}
			handler := withPrincipal(principal, middleware.ResolveTenant(policy)(next))

			request := httptest.NewRequest(http.MethodGet, "/api/v1/account/me", nil)
			request.Host = tt.host
			if tt.header != "" {
				request.Header.Set("X-Tenant-ID", tt.header)
			}
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			if tt.want == "" {
				assert.Equal(t, http.StatusBadRequest, recorder.Code)
				assert.Equal(t, "TENANT_ID_REQUIRED", decodeError(t, recorder).Code)
				assert.False(t, next.called)
				return
			}

			assert.Equal(t, http.StatusOK, recorder.Code)
			assert.Equal(t, tt.want, next.tenant)
			assert.Equal(t, tt.want, recorder.Header().Get("X-Tenant-ID"))
		})
	}
}

/*
TestResolveTenant_RejectsMalformedHeader verifies header values are validated, not rewritten.
*/
func TestResolveTenant_RejectsMalformedHeader(t *testing.T) {
	policy := middleware.TenantPolicy{Header: "X-Tenant-ID", Precedence: "token"}
	principal := &sec.Principal{UserID: "u", Role: sec.RoleUser, TenantID: "gamma"}

	for _, header := range []string{"Acme Corp", "tenant.42", strings.Repeat("a", 64)} {
		t.Run(header, func(t *testing.T) {
			next := &okHandler{}
			handler := withPrincipal(principal, middleware.ResolveTenant(policy)(next))

			request := httptest.NewRequest(http.MethodGet, "/api/v1/account/me", nil)
			request.Header.Set("X-Tenant-ID", header)
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, http.StatusBadRequest, recorder.Code)
			assert.Equal(t, "VALIDATION_ERROR", decodeError(t, recorder).Code)
			assert.False(t, next.called)
			assert.Empty(t, recorder.Header().Get("X-Tenant-ID"))
		})
	}
}

// # Rate Limiting

/*
TestRateLimiter verifies per-IP buckets.
*/
func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter := middleware.NewRateLimiter(ctx, 1, 2)
	handler := limiter.Middleware()(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
	}))

	call := func(ip string) *httptest.ResponseRecorder {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set("X-Real-IP", ip)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		return recorder
	}

	assert.Equal(t, http.StatusOK, call("203.0.113.1").Code)
	assert.Equal(t, http.StatusOK, call("203.0.113.1").Code)

	limited := call("203.0.113.1")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, limited).Code)

	assert.Equal(t, http.StatusOK, call("203.0.113.2").Code)
}

// # CORS

type corsConfig struct {
	dev     bool
	origins []string
}

func (cfg corsConfig) IsDevelopment() bool { return cfg.dev }
func (cfg corsConfig) Origins() []string   { return cfg.origins }

/*
TestCORS verifies the allow-list and that the tenant header is permitted.
*/
func TestCORS(t *testing.T) {
	handler := middleware.CORS(corsConfig{origins: []string{"https://app.example.com"}}, "X-Tenant-ID")(
		http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) { writer.WriteHeader(http.StatusOK) }),
	)

	preflight := httptest.NewRequest(http.MethodOptions, "/api/v1/auth/login", nil)
	preflight.Header.Set("Origin", "https://app.example.com")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, preflight)

	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, "https://app.example.com", recorder.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(recorder.Header().Get("Access-Control-Allow-Headers"), "X-Tenant-ID"))

	foreign := httptest.NewRequest(http.MethodGet, "/", nil)
	foreign.Header.Set("Origin", "https://evil.example.net")
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, foreign)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
}
