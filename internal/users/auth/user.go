// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements credential storage and the session token lifecycle.

It defines the credential record, its repositories (Postgres, in-memory and a
Redis read-through cache) and the service that registers users, verifies
credentials and rotates refresh tokens.

# Architecture

The refresh token version counter on [User] is the only mutable state shared
between requests. It changes solely through [UserRepository.AdvanceRefreshVersion],
a compare-and-swap that lets exactly one concurrent rotation win.
*/
package auth

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/taibuivan/tenantgate/internal/platform/sec"
)

// # Domain Entities

// User is the credential record of a registered account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	Role         sec.Role
	TenantID     string

	// RefreshTokenVersion is the only refresh token version currently accepted.
	RefreshTokenVersion int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserView is the client-facing projection of a [User].
type UserView struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Role     sec.Role `json:"role"`
	TenantID string   `json:"tenantId,omitempty"`
}

// View returns the public projection of the record.
func (user *User) View() UserView {
	return UserView{
		ID:       user.ID,
		Email:    user.Email,
		Name:     user.DisplayName,
		Role:     user.Role,
		TenantID: user.TenantID,
	}
}

// Principal returns the identity embedded in access tokens issued for this record.
func (user *User) Principal() sec.Principal {
	return sec.Principal{
		UserID:   user.ID,
		Email:    user.Email,
		Role:     user.Role,
		TenantID: user.TenantID,
	}
}

var emailFolder = cases.Lower(language.Und)

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(raw string) string {
	return emailFolder.String(strings.TrimSpace(raw))
}

// # Field Identifiers

// Field names used in validation details.
const (
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldName     = "name"
	FieldTenantID = "tenantId"
	FieldID       = "id"
)
