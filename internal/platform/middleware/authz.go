// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/tenantgate/internal/platform/apperr"
	"github.com/taibuivan/tenantgate/internal/platform/constants"
	"github.com/taibuivan/tenantgate/internal/platform/ctxutil"
	"github.com/taibuivan/tenantgate/internal/platform/respond"
	"github.com/taibuivan/tenantgate/internal/platform/sec"
)

// AccessVerifier defines the token verification needed by [Authenticate].
//
// # Why an interface?
//
// Defining AccessVerifier here decouples the middleware from the codec
// implementation, allowing us to easily inject fakes during unit testing.
type AccessVerifier interface {
	VerifyAccess(tokenString string) (*sec.AccessClaims, error)
}

// UserChecker confirms that the subject of a verified token still exists.
type UserChecker interface {
	UserExists(ctx context.Context, userID string) (bool, error)
}

// Authenticate extracts and verifies the access token from the Authorization header.
//
// # Flow
//  1. Require 'Authorization: Bearer <token>'; otherwise AUTH_TOKEN_MISSING.
//  2. Verify via [AccessVerifier]; expired tokens yield TOKEN_EXPIRED, anything else INVALID_TOKEN.
//  3. When users is non-nil, reject subjects that no longer exist with USER_NOT_FOUND.
//  4. Inject the [*sec.Principal] into the request context.
//
// Passing a nil users trusts the verified claims without a store round-trip.
func Authenticate(verifier AccessVerifier, users UserChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// ── 1. Extraction ─────────────────────────────────────────────────
			tokenString, ok := bearerToken(request)
			if !ok {
				respond.Error(writer, request, apperr.AuthTokenMissing())
				return
			}

			// ── 2. Token Verification ─────────────────────────────────────────
			claims, err := verifier.VerifyAccess(tokenString)
			if err != nil {
				if errors.Is(err, sec.ErrTokenExpired) {
					respond.Error(writer, request, apperr.TokenExpired())
					return
				}
				respond.Error(writer, request, apperr.TokenInvalid())
				return
			}

			principal := claims.Principal()
			ctx := request.Context()

			// ── 3. Subject Re-Check ───────────────────────────────────────────
			if users != nil {
				exists, err := users.UserExists(ctx, principal.UserID)
				if err != nil {
					respond.Error(writer, request, apperr.Internal(err))
					return
				}
				if !exists {
					respond.Error(writer, request, apperr.UserNotFound())
					return
				}
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx = ctxutil.WithPrincipal(ctx, principal)
			ctx = ctxutil.WithLogger(ctx, ctxutil.GetLogger(ctx).With(slog.String("user_id", principal.UserID)))

			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// bearerToken returns the token of a well-formed bearer Authorization header.
func bearerToken(request *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(request.Header.Get(constants.HeaderAuthorization)), " ")
	if !found || !strings.EqualFold(scheme, constants.BearerScheme) {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// RequireRoles blocks requests whose principal's role is not in roles.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
//
// # Flow
//  1. No principal in context: USER_NOT_AUTHENTICATED (401).
//  2. Role outside the allowed set: INSUFFICIENT_PERMISSIONS (403).
func RequireRoles(roles ...sec.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			principal := ctxutil.GetPrincipal(request.Context())

			if principal == nil {
				respond.Error(writer, request, apperr.NotAuthenticated())
				return
			}

			if !principal.HasAnyRole(roles...) {
				respond.Error(writer, request, apperr.NotAuthorized())
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
