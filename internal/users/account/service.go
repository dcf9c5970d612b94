// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/taibuivan/tenantgate/internal/platform/apperr"
	"github.com/taibuivan/tenantgate/internal/platform/sec"
	"github.com/taibuivan/tenantgate/internal/users/auth"
)

// # Service Layer

// Service resolves account profiles for authenticated principals.
type Service struct {
	users UserReader
}

// NewService constructs a new [Service] with its repository dependency.
func NewService(users UserReader) *Service {
	return &Service{users: users}
}

/*
GetProfile retrieves the caller's own record.

Parameters:
  - context: context.Context
  - principal: *sec.Principal
  - tenant: string (resolved for the request)

Returns:
  - *Profile: The caller's profile
  - error: USER_NOT_FOUND if the record disappeared, internal failures otherwise
*/
func (service *Service) GetProfile(context context.Context, principal *sec.Principal, tenant string) (*Profile, error) {
	user, err := service.users.FindByID(context, principal.UserID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, apperr.UserNotFound()
		}
		return nil, apperr.Internal(fmt.Errorf("account_service_get_profile_failed: %w", err))
	}

	return &Profile{User: user.View(), Tenant: tenant}, nil
}

/*
GetTenantUser retrieves another record for an administrator.

Description: Records outside the resolved tenant are reported as not found so
that ids from other tenants cannot be enumerated.

Parameters:
  - context: context.Context
  - userID: string
  - tenant: string

Returns:
  - *Profile: The requested profile
  - error: NOT_FOUND or internal failures
*/
func (service *Service) GetTenantUser(context context.Context, userID, tenant string) (*Profile, error) {
	user, err := service.users.FindByID(context, userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, apperr.NotFound("User")
		}
		return nil, apperr.Internal(fmt.Errorf("account_service_get_user_failed: %w", err))
	}

	if user.TenantID != tenant {
		return nil, apperr.NotFound("User")
	}

	return &Profile{User: user.View(), Tenant: tenant}, nil
}
