// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/tenantgate/internal/platform/apperr"
)

var (
	// ErrNotFound is a standard error returned when a queried row doesn't exist.
	ErrNotFound = errors.New("dberr: row not found")

	// ErrDuplicate is returned when an insert or update violates a unique constraint.
	ErrDuplicate = errors.New("dberr: unique constraint violated")
)

// Classify maps driver errors onto the package sentinels, leaving others untouched.
// The original error stays in the chain for logging.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	if IsUniqueViolation(err) {
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	}

	return err
}

// IsUniqueViolation reports whether err carries SQLSTATE 23505.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
func Wrap(err error, resource string) error {
	if err == nil {
		return nil
	}

	classified := Classify(err)

	switch {
	case errors.Is(classified, ErrNotFound):
		return apperr.NotFound(resource).WithCause(err)
	case errors.Is(classified, ErrDuplicate):
		return apperr.Conflict(resource + " already exists").WithCause(err)
	default:
		return apperr.Internal(err)
	}
}
