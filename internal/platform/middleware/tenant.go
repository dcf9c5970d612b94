// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strings"

	"github.com/taibuivan/tenantgate/internal/platform/apperr"
	"github.com/taibuivan/tenantgate/internal/platform/constants"
	"github.com/taibuivan/tenantgate/internal/platform/ctxutil"
	"github.com/taibuivan/tenantgate/internal/platform/respond"
	"github.com/taibuivan/tenantgate/pkg/tenantid"
)

// TenantPolicy configures where [ResolveTenant] looks for the tenant identifier.
type TenantPolicy struct {
	// Header is the request header carrying an explicit tenant id; also used for the echo.
	Header string

	// Precedence decides whether the principal's tenant (token) or the header wins.
	Precedence string

	// ReservedSubdomains are host labels that never name a tenant.
	ReservedSubdomains []string
}

type tenantCandidate struct {
	source string
	value  string
}

// ResolveTenant determines the tenant of the request from the host subdomain,
// the tenant header and the authenticated principal. Later sources override
// earlier ones; the order of the last two follows [TenantPolicy.Precedence].
//
// Values are trimmed and lower-cased, never rewritten. A malformed header
// fails with VALIDATION_ERROR; a malformed subdomain or token tenant is
// ignored. A request with no tenant from any source fails with
// TENANT_ID_REQUIRED. On success the tenant is stored in the context and echoed on the response.
func ResolveTenant(policy TenantPolicy) func(http.Handler) http.Handler {
	headerName := policy.Header
	if headerName == "" {
		headerName = constants.DefaultTenantHeader
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ctx := request.Context()

			subdomain := tenantCandidate{"subdomain", subdomainTenant(request.Host, policy.ReservedSubdomains)}
			headerValue, err := tenantid.Normalize(request.Header.Get(headerName))
			if err != nil {
				respond.Error(writer, request, apperr.ValidationError("Invalid tenant identifier",
					apperr.FieldError{Field: headerName, Message: "Must be 1-63 characters of a-z, 0-9, '-' or '_'"}))
				return
			}
			header := tenantCandidate{"header", headerValue}
			token := tenantCandidate{"token", ""}
			if principal := ctxutil.GetPrincipal(ctx); principal != nil {
				token.value = lenient(principal.TenantID)
			}

			ordered := []tenantCandidate{subdomain, header, token}
			if policy.Precedence == constants.TenantPrecedenceHeader {
				ordered = []tenantCandidate{subdomain, token, header}
			}

			var resolved tenantCandidate
			for _, candidate := range ordered {
				if candidate.value != "" {
					resolved = candidate
				}
			}

			if resolved.value == "" {
				respond.Error(writer, request, apperr.TenantIDRequired())
				return
			}

			logger := ctxutil.GetLogger(ctx).With(slog.String("tenant_id", resolved.value))
			logger.DebugContext(ctx, "tenant_resolved", slog.String("source", resolved.source))

			ctx = ctxutil.WithTenant(ctx, resolved.value)
			ctx = ctxutil.WithLogger(ctx, logger)
			writer.Header().Set(headerName, resolved.value)

			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// subdomainTenant returns the normalized first label of a host with at least
// three labels, or "" for bare domains, IP literals and reserved labels.
func subdomainTenant(host string, reserved []string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.ToLower(host), ".")

	if host == "" || net.ParseIP(host) != nil {
		return ""
	}

	labels := strings.Split(host, ".")
	if len(labels) < 3 {
		return ""
	}

	if slices.ContainsFunc(reserved, func(label string) bool {
		return strings.EqualFold(strings.TrimSpace(label), labels[0])
	}) {
		return ""
	}

	return lenient(labels[0])
}

// lenient normalizes a tenant from a source the client does not type
// directly; malformed values count as absent.
func lenient(raw string) string {
	value, err := tenantid.Normalize(raw)
	if err != nil {
		return ""
	}
	return value
}
