// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/tenantgate/internal/platform/ctxutil"
	"github.com/taibuivan/tenantgate/internal/platform/sec"
	"github.com/taibuivan/tenantgate/internal/users/account"
	"github.com/taibuivan/tenantgate/internal/users/auth"
)

const (
	aliceID = "01926f4e-8a2b-7c3d-9e4f-5a6b7c8d9e01"
	bobID   = "01926f4e-8a2b-7c3d-9e4f-5a6b7c8d9e02"
	carolID = "01926f4e-8a2b-7c3d-9e4f-5a6b7c8d9e03"
)

type response struct {
	Data account.Profile `json:"data"`
	Code string          `json:"code"`
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()

	users := auth.NewMemoryUserRepository()
	for _, user := range []*auth.User{
		{ID: aliceID, Email: "alice@acme.io", DisplayName: "Alice", Role: sec.RoleAdmin, TenantID: "acme"},
		{ID: bobID, Email: "bob@acme.io", DisplayName: "Bob", Role: sec.RoleUser, TenantID: "acme"},
		{ID: carolID, Email: "carol@beta.io", DisplayName: "Carol", Role: sec.RoleUser, TenantID: "beta"},
	} {
		require.NoError(t, users.Create(context.Background(), user))
	}

	return account.NewHandler(account.NewService(users)).Routes()
}

func call(t *testing.T, router http.Handler, path string, principal *sec.Principal, tenant string) (int, response) {
	t.Helper()

	request := httptest.NewRequest(http.MethodGet, path, nil)
	ctx := ctxutil.WithTenant(request.Context(), tenant)
	if principal != nil {
		ctx = ctxutil.WithPrincipal(ctx, principal)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request.WithContext(ctx))

	var decoded response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &decoded))
	return recorder.Code, decoded
}

/*
TestHandler_Me returns the caller's own profile with the resolved tenant.
*/
func TestHandler_Me(t *testing.T) {
	router := newRouter(t)
	bob := &sec.Principal{UserID: bobID, Email: "bob@acme.io", Role: sec.RoleUser, TenantID: "acme"}

	status, body := call(t, router, "/me", bob, "acme")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Bob", body.Data.User.Name)
	assert.Equal(t, "acme", body.Data.Tenant)

	status, body = call(t, router, "/me", nil, "acme")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "USER_NOT_AUTHENTICATED", body.Code)

	ghost := &sec.Principal{UserID: "01926f4e-0000-7000-8000-000000000000", Role: sec.RoleUser}
	status, body = call(t, router, "/me", ghost, "acme")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "USER_NOT_FOUND", body.Code)
}

/*
TestHandler_GetUser verifies the admin guard and tenant scoping.
*/
func TestHandler_GetUser(t *testing.T) {
	router := newRouter(t)
	admin := &sec.Principal{UserID: aliceID, Role: sec.RoleAdmin, TenantID: "acme"}
	user := &sec.Principal{UserID: bobID, Role: sec.RoleUser, TenantID: "acme"}

	tests := []struct {
		name       string
		principal  *sec.Principal
		path       string
		wantStatus int
		wantCode   string
	}{
		{"admin_same_tenant", admin, "/users/" + bobID, http.StatusOK, ""},
		{"admin_other_tenant", admin, "/users/" + carolID, http.StatusNotFound, "NOT_FOUND"},
		{"admin_unknown_id", admin, "/users/01926f4e-0000-7000-8000-000000000000", http.StatusNotFound, "NOT_FOUND"},
		{"admin_malformed_id", admin, "/users/not-a-uuid", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"user_forbidden", user, "/users/" + aliceID, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := call(t, router, tt.path, tt.principal, "acme")
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, body.Code)
			if tt.wantCode == "" {
				assert.Equal(t, bobID, body.Data.User.ID)
			}
		})
	}
}
