// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/tenantgate/internal/platform/middleware"
	requestutil "github.com/taibuivan/tenantgate/internal/platform/request"
	"github.com/taibuivan/tenantgate/internal/platform/respond"
	"github.com/taibuivan/tenantgate/internal/platform/sec"
	"github.com/taibuivan/tenantgate/internal/platform/validate"
	"github.com/taibuivan/tenantgate/internal/users/auth"
)

// Handler implements the HTTP layer for account lookups.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] configured with the account domain's endpoints.
//
// The router expects [middleware.Authenticate] and [middleware.ResolveTenant]
// to run first; role checks are applied per route.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.With(middleware.RequireRoles(sec.RoleUser, sec.RoleAdmin)).Get("/me", handler.getMe)
	router.With(middleware.RequireRoles(sec.RoleAdmin)).Get("/users/{id}", handler.getUser)

	return router
}

/*
GET /api/v1/account/me.

Response:
  - 200: Profile
  - 401: USER_NOT_AUTHENTICATED, USER_NOT_FOUND
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	tenant, err := requestutil.RequiredTenant(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.accountService.GetProfile(request.Context(), principal, tenant)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}

/*
GET /api/v1/account/users/{id}.

Response:
  - 200: Profile
  - 400: VALIDATION_ERROR (id is not a UUID)
  - 403: INSUFFICIENT_PERMISSIONS
  - 404: NOT_FOUND (absent or in another tenant)
*/
func (handler *Handler) getUser(writer http.ResponseWriter, request *http.Request) {
	userID := requestutil.Param(request, "id")

	validator := &validate.Validator{}
	if err := validator.UUID(auth.FieldID, userID).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	tenant, err := requestutil.RequiredTenant(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.accountService.GetTenantUser(request.Context(), userID, tenant)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}
