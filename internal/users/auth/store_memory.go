// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"sync"
	"time"
)

// MemoryUserRepository is a process-local [UserRepository] used by tests and
// local tooling. The mutex serializes the version compare-and-swap.
type MemoryUserRepository struct {
	mu      sync.Mutex
	byID    map[string]*User
	byEmail map[string]string
}

// NewMemoryUserRepository creates an empty in-memory repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
	}
}

// Create stores a copy of user.
func (repository *MemoryUserRepository) Create(_ context.Context, user *User) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	email := NormalizeEmail(user.Email)
	if _, taken := repository.byEmail[email]; taken {
		return ErrEmailTaken
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.UpdatedAt = user.CreatedAt

	stored := *user
	stored.Email = email
	repository.byID[stored.ID] = &stored
	repository.byEmail[email] = stored.ID
	return nil
}

// FindByID returns a copy of the record with the given id.
func (repository *MemoryUserRepository) FindByID(_ context.Context, id string) (*User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	stored, ok := repository.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	found := *stored
	return &found, nil
}

// FindByEmail returns a copy of the record with the given email.
func (repository *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	id, ok := repository.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	found := *repository.byID[id]
	return &found, nil
}

// AdvanceRefreshVersion increments the counter iff it equals expected.
func (repository *MemoryUserRepository) AdvanceRefreshVersion(_ context.Context, userID string, expected int64) (int64, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	stored, ok := repository.byID[userID]
	if !ok {
		return 0, ErrUserNotFound
	}
	if stored.RefreshTokenVersion != expected {
		return 0, ErrVersionConflict
	}

	stored.RefreshTokenVersion++
	stored.UpdatedAt = time.Now().UTC()
	return stored.RefreshTokenVersion, nil
}
