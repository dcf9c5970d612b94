// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/taibuivan/tenantgate/internal/platform/apperr"
	"github.com/taibuivan/tenantgate/internal/platform/ctxutil"
	"github.com/taibuivan/tenantgate/internal/platform/sec"
	"github.com/taibuivan/tenantgate/internal/platform/validate"
	"github.com/taibuivan/tenantgate/pkg/tenantid"
	"github.com/taibuivan/tenantgate/pkg/uuid"
)

// # Contracts & Types

// PasswordHasher hashes and verifies credentials.
type PasswordHasher interface {
	Hash(plainTextPassword string) (string, error)
	Compare(plainTextPassword, existingHash string) bool
}

// RefreshVerifier decodes refresh tokens.
type RefreshVerifier interface {
	VerifyRefresh(tokenString string) (*sec.RefreshClaims, error)
}

// Service implements the registration, login and refresh rotation use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or rotation logic must be reviewed by the security team.
type Service struct {
	users    UserRepository
	hasher   PasswordHasher
	issuer   *sec.Issuer
	verifier RefreshVerifier
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(users UserRepository, hasher PasswordHasher, issuer *sec.Issuer, verifier RefreshVerifier) *Service {
	return &Service{
		users:    users,
		hasher:   hasher,
		issuer:   issuer,
		verifier: verifier,
	}
}

// LoginSession represents a successfully established user session.
type LoginSession struct {
	User   *User
	Tokens *sec.TokenPair
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new account.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	TenantID string
}

const (
	nameMinLength  = 2
	nameMaxLength  = 100
	emailMaxLength = 254
)

/*
Register validates, hashes, and persists a brand new credential record, then
issues the initial token pair at refresh version 0.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *LoginSession: Created record and its first token pair
  - err: VALIDATION_ERROR, EMAIL_EXISTS or internal failures
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*LoginSession, error) {
	email := NormalizeEmail(input.Email)
	tenantID, tenantErr := tenantid.Normalize(input.TenantID)

	validator := &validate.Validator{}
	validator.Required(FieldEmail, email).
		MaxLen(FieldEmail, email, emailMaxLength).
		Email(FieldEmail, email).
		Password(FieldPassword, input.Password).
		MinLen(FieldName, input.Name, nameMinLength).
		MaxLen(FieldName, input.Name, nameMaxLength).
		Custom(FieldTenantID, tenantErr != nil, "Must be 1-63 characters of a-z, 0-9, '-' or '_'")

	if err := validator.Err(); err != nil {
		return nil, err
	}

	// Fast-path uniqueness check; the unique index is the authority.
	if _, err := service.users.FindByEmail(context, email); err == nil {
		return nil, apperr.EmailAlreadyRegistered()
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, apperr.Internal(fmt.Errorf("auth_service_register_lookup_failed: %w", err))
	}

	hashedPassword, err := service.hasher.Hash(input.Password)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_hash_failed: %w", err))
	}

	user := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hashedPassword,
		DisplayName:  input.Name,
		Role:         sec.RoleUser,
		TenantID:     tenantID,
	}

	if err := service.users.Create(context, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, apperr.EmailAlreadyRegistered()
		}
		return nil, apperr.Internal(fmt.Errorf("auth_service_register_failed: %w", err))
	}

	tokens, err := service.issuer.Issue(user.Principal(), user.RefreshTokenVersion)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	ctxutil.GetLogger(context).InfoContext(context, "user_registered",
		slog.String("user_id", user.ID),
		slog.String("tenant_id", user.TenantID),
	)

	return &LoginSession{User: user, Tokens: tokens}, nil
}

// # Authentication Flow

/*
Login verifies credentials and issues a token pair at the record's current
refresh version. The counter is left untouched, so sessions on other devices
stay valid.

Parameters:
  - context: context.Context
  - email: string
  - password: string

Returns:
  - *LoginSession: Record and token pair
  - err: INVALID_CREDENTIALS or internal failures
*/
func (service *Service) Login(context context.Context, email, password string) (*LoginSession, error) {
	validator := &validate.Validator{}
	validator.Required(FieldEmail, email).Required(FieldPassword, password)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	user, err := service.users.FindByEmail(context, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperr.InvalidCredentials()
		}
		return nil, apperr.Internal(fmt.Errorf("auth_service_login_lookup_failed: %w", err))
	}

	// Same error for unknown email and wrong password to prevent enumeration.
	if !service.hasher.Compare(password, user.PasswordHash) {
		return nil, apperr.InvalidCredentials()
	}

	tokens, err := service.issuer.Issue(user.Principal(), user.RefreshTokenVersion)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &LoginSession{User: user, Tokens: tokens}, nil
}

// # Rotation Flow

/*
Refresh rotates a refresh token.

Description: The presented token is accepted only while its version equals the
stored counter. Acceptance and the counter increment are a single
compare-and-swap, so of several concurrent presentations of the same token
exactly one succeeds and the rest see INVALID_REFRESH_TOKEN. The new pair
carries the incremented version, which permanently invalidates the old token.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - *LoginSession: Record (with the new counter) and the rotated pair
  - err: REFRESH_TOKEN_MISSING, REFRESH_TOKEN_EXPIRED, INVALID_REFRESH_TOKEN, USER_NOT_FOUND
*/
func (service *Service) Refresh(context context.Context, refreshToken string) (*LoginSession, error) {
	if refreshToken == "" {
		return nil, apperr.RefreshTokenMissing()
	}

	claims, err := service.verifier.VerifyRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, sec.ErrTokenExpired) {
			return nil, apperr.RefreshTokenExpired()
		}
		return nil, apperr.InvalidRefreshToken()
	}

	logger := ctxutil.GetLogger(context).With(slog.String("user_id", claims.UserID))

	user, err := service.users.FindByID(context, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperr.UserNotFound()
		}
		return nil, apperr.Internal(fmt.Errorf("auth_service_refresh_lookup_failed: %w", err))
	}

	next, err := service.users.AdvanceRefreshVersion(context, user.ID, claims.Version)
	if err != nil {
		switch {
		case errors.Is(err, ErrVersionConflict):
			// A stale version is either a replay or a lost race; both are worth a look.
			logger.WarnContext(context, "refresh_token_version_mismatch",
				slog.Int64("token_version", claims.Version),
				slog.Int64("observed_version", user.RefreshTokenVersion),
			)
			return nil, apperr.InvalidRefreshToken()
		case errors.Is(err, ErrUserNotFound):
			return nil, apperr.UserNotFound()
		default:
			return nil, apperr.Internal(fmt.Errorf("auth_service_refresh_advance_failed: %w", err))
		}
	}
	user.RefreshTokenVersion = next

	tokens, err := service.issuer.Issue(user.Principal(), next)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	logger.InfoContext(context, "refresh_token_rotated",
		slog.Int64("from_version", claims.Version),
		slog.Int64("to_version", next),
	)

	return &LoginSession{User: user, Tokens: tokens}, nil
}

// RefreshTTL returns the lifetime of issued refresh tokens, used for the cookie Max-Age.
func (service *Service) RefreshTTL() int {
	return int(service.issuer.RefreshTTL().Seconds())
}
