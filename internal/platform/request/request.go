// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/tenantgate/internal/platform/apperr"
	"github.com/taibuivan/tenantgate/internal/platform/ctxutil"
	"github.com/taibuivan/tenantgate/internal/platform/sec"
	"github.com/taibuivan/tenantgate/internal/platform/validate"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - writer: http.ResponseWriter (used to enforce the body size limit)
  - request: *http.Request
  - target: any (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(writer http.ResponseWriter, request *http.Request, target any) error {
	request.Body = http.MaxBytesReader(writer, request.Body, maxBodyBytes)
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
RequiredPrincipal ensures the request is authenticated and returns its principal.

Returns:
  - *sec.Principal: The authenticated identity
  - error: USER_NOT_AUTHENTICATED if the request is anonymous
*/
func RequiredPrincipal(request *http.Request) (*sec.Principal, error) {
	principal := ctxutil.GetPrincipal(request.Context())
	if principal == nil {
		return nil, apperr.NotAuthenticated()
	}
	return principal, nil
}

/*
RequiredTenant returns the tenant resolved for the request.

Returns:
  - string: Tenant identifier
  - error: TENANT_ID_REQUIRED if no tenant was resolved
*/
func RequiredTenant(request *http.Request) (string, error) {
	tenantID := ctxutil.GetTenant(request.Context())
	if tenantID == "" {
		return "", apperr.TenantIDRequired()
	}
	return tenantID, nil
}
