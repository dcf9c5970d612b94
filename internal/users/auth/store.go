// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
)

// # Storage Errors

var (
	// ErrUserNotFound is returned when no record matches the lookup.
	ErrUserNotFound = errors.New("auth: user not found")

	// ErrEmailTaken is returned by Create when the normalized email already exists.
	ErrEmailTaken = errors.New("auth: email already registered")

	// ErrVersionConflict is returned by AdvanceRefreshVersion when the stored
	// counter no longer equals the expected value.
	ErrVersionConflict = errors.New("auth: refresh token version conflict")
)

// # User Data Access

// UserRepository defines the data access contract for credential records.
type UserRepository interface {

	/*
		FindByID returns the record with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: ErrUserNotFound or retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the record with the given normalized email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: ErrUserNotFound or retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		Create persists a brand-new record.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: ErrEmailTaken or persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		AdvanceRefreshVersion atomically increments the refresh token version
		of userID, provided it still equals expected.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - expected: int64

		Returns:
		  - int64: The new counter value (expected + 1)
		  - error: ErrVersionConflict, ErrUserNotFound or persistence failures
	*/
	AdvanceRefreshVersion(context context.Context, userID string, expected int64) (int64, error)
}
