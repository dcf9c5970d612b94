// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account serves the authenticated view of credential records.

It exposes the caller's own profile and an administrator lookup, both scoped
to the tenant resolved for the request.

# Architecture

  - Entities: Profile (DTO).
  - Domain: This package depends on the auth package for the User entity.
  - Security: Routes are mounted behind authentication, tenant resolution and role checks.
*/
package account

import (
	"context"

	"github.com/taibuivan/tenantgate/internal/users/auth"
)

// # Domain Entities

// Profile is the response body of the account endpoints.
type Profile struct {
	User auth.UserView `json:"user"`

	// Tenant is the tenant the request was resolved to, which may differ
	// from the record's home tenant when a header override is in effect.
	Tenant string `json:"tenant"`
}

// # Data Access

// UserReader is the read-only subset of [auth.UserRepository] used here.
type UserReader interface {
	FindByID(context context.Context, id string) (*auth.User, error)
}
