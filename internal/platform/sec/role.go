// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "strings"

// # User Roles

// Role represents the authorization level granted to an account.
type Role string

const (
	// Unrestricted tenant administration
	RoleAdmin Role = "admin"

	// Default role for standard registered users
	RoleUser Role = "user"
)

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}

// ParseRole maps a raw claim or column value onto a [Role].
// Unknown values yield ok == false.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	return role, role.Valid()
}

// # Identity

// Principal is the authenticated identity attached to a request.
//
// It is rebuilt from verified access-token claims on every request and
// never persisted.
type Principal struct {
	UserID   string `json:"id"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	TenantID string `json:"tenantId,omitempty"`
}

// HasAnyRole reports whether the principal's role is a member of roles.
func (p *Principal) HasAnyRole(roles ...Role) bool {
	if p == nil {
		return false
	}
	for _, role := range roles {
		if p.Role == role {
			return true
		}
	}
	return false
}
