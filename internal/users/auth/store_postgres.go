// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/tenantgate/internal/platform/database/schema"
	"github.com/taibuivan/tenantgate/internal/platform/dberr"
	"github.com/taibuivan/tenantgate/internal/platform/sec"
)

// # User Repository

// Querier is the subset of *pgxpool.Pool the repository needs.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool Querier
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool Querier) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

var (
	selectUserByIDQuery = fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1`,
		schema.UserAccount.SelectList(), schema.UserAccount.Table, schema.UserAccount.ID,
	)

	selectUserByEmailQuery = fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE lower(%s) = $1`,
		schema.UserAccount.SelectList(), schema.UserAccount.Table, schema.UserAccount.Email,
	)

	insertUserQuery = fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9)`,
		schema.UserAccount.Table,
		schema.UserAccount.ID, schema.UserAccount.Email, schema.UserAccount.Password,
		schema.UserAccount.DisplayName, schema.UserAccount.Role, schema.UserAccount.TenantID,
		schema.UserAccount.RefreshTokenVersion, schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
	)

	// The WHERE clause makes the increment a compare-and-swap: of two concurrent
	// callers presenting the same version, only one matches the row.
	advanceVersionQuery = fmt.Sprintf(`
		UPDATE %s
		SET %s = %s + 1, %s = $3
		WHERE %s = $1 AND %s = $2
		RETURNING %s`,
		schema.UserAccount.Table,
		schema.UserAccount.RefreshTokenVersion, schema.UserAccount.RefreshTokenVersion, schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID, schema.UserAccount.RefreshTokenVersion,
		schema.UserAccount.RefreshTokenVersion,
	)

	existsUserQuery = fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)`,
		schema.UserAccount.Table, schema.UserAccount.ID,
	)
)

/*
Create persists a new record into the users.account table.

Description: Initializes timestamps if not provided. A unique violation on the
email index is reported as ErrEmailTaken.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: ErrEmailTaken or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = user.CreatedAt

	_, err := repository.pool.Exec(context, insertUserQuery,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		string(user.Role),
		user.TenantID,
		user.RefreshTokenVersion,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %w", ErrEmailTaken, err)
		}
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByEmail retrieves a record by its normalized email address.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated entity
  - error: ErrUserNotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	user, err := scanUser(repository.pool.QueryRow(context, selectUserByEmailQuery, NormalizeEmail(email)))
	if err != nil {
		return nil, wrapLookupError("find_by_email", err)
	}
	return user, nil
}

/*
FindByID retrieves a record by its unique ID.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *User: Hydrated entity
  - error: ErrUserNotFound or database errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	user, err := scanUser(repository.pool.QueryRow(context, selectUserByIDQuery, id))
	if err != nil {
		return nil, wrapLookupError("find_by_id", err)
	}
	return user, nil
}

/*
AdvanceRefreshVersion performs the conditional increment of the version counter.

Description: A single UPDATE ... WHERE version = expected RETURNING version.
No row means the counter moved (or the record vanished); the two are told
apart with an existence check so callers can report the right error.

Parameters:
  - context: context.Context
  - userID: string
  - expected: int64

Returns:
  - int64: New counter value
  - error: ErrVersionConflict, ErrUserNotFound or database errors
*/
func (repository *PostgresUserRepository) AdvanceRefreshVersion(context context.Context, userID string, expected int64) (int64, error) {
	var next int64
	err := repository.pool.QueryRow(context, advanceVersionQuery, userID, expected, time.Now().UTC()).Scan(&next)
	if err == nil {
		return next, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("postgres_user_repo_advance_version_failed: %w", err)
	}

	var exists bool
	if err := repository.pool.QueryRow(context, existsUserQuery, userID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("postgres_user_repo_advance_version_failed: %w", err)
	}
	if !exists {
		return 0, ErrUserNotFound
	}
	return 0, ErrVersionConflict
}

// # Scanning

func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	var role string
	var tenantID *string

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&role,
		&tenantID,
		&user.RefreshTokenVersion,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Role = sec.Role(role)
	if tenantID != nil {
		user.TenantID = *tenantID
	}
	return user, nil
}

func wrapLookupError(operation string, err error) error {
	if errors.Is(dberr.Classify(err), dberr.ErrNotFound) {
		return ErrUserNotFound
	}
	return fmt.Errorf("postgres_user_repo_%s_failed: %w", operation, err)
}
