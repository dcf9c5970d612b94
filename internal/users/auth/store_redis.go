// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/tenantgate/internal/platform/constants"
	"github.com/taibuivan/tenantgate/internal/platform/ctxutil"
	"github.com/taibuivan/tenantgate/internal/platform/sec"
)

// CachedUserRepository is a Redis read-through cache in front of a [UserRepository].
//
// FindByID results are cached for ttl without the password hash. Every
// version advance deletes the cached entry, so the counter is never served
// stale after a local rotation. Cache failures degrade to the underlying
// repository. [CachedUserRepository.UserExists] always reads the store.
type CachedUserRepository struct {
	UserRepository
	client *redis.Client
	ttl    time.Duration
}

// NewCachedUserRepository wraps next with a Redis cache.
func NewCachedUserRepository(next UserRepository, client *redis.Client, ttl time.Duration) *CachedUserRepository {
	return &CachedUserRepository{UserRepository: next, client: client, ttl: ttl}
}

// cachedUser is the Redis wire form of a [User]. The password hash stays in the store.
type cachedUser struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	DisplayName         string    `json:"displayName"`
	Role                string    `json:"role"`
	TenantID            string    `json:"tenantId,omitempty"`
	RefreshTokenVersion int64     `json:"refreshTokenVersion"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

func userKey(id string) string {
	return constants.RedisPrefixUser + id
}

/*
FindByID returns the record from Redis when present, otherwise loads it from
the underlying repository and populates the cache.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *User: Hydrated entity
  - error: ErrUserNotFound or retrieval failures
*/
func (repository *CachedUserRepository) FindByID(context context.Context, id string) (*User, error) {
	key := userKey(id)
	logger := ctxutil.GetLogger(context)

	payload, err := repository.client.Get(context, key).Bytes()
	switch {
	case err == nil:
		var entry cachedUser
		if err := json.Unmarshal(payload, &entry); err == nil {
			return entry.user(), nil
		}
		logger.WarnContext(context, "user_cache_decode_failed", slog.String("user_id", id))
	case !errors.Is(err, redis.Nil):
		logger.WarnContext(context, "user_cache_get_failed", slog.String("user_id", id), slog.Any("error", err))
	}

	user, err := repository.UserRepository.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(newCachedUser(user)); err == nil {
		if err := repository.client.Set(context, key, encoded, repository.ttl).Err(); err != nil {
			logger.WarnContext(context, "user_cache_set_failed", slog.String("user_id", id), slog.Any("error", err))
		}
	}

	return user, nil
}

/*
AdvanceRefreshVersion delegates the compare-and-swap and then evicts the cache entry.

Parameters:
  - context: context.Context
  - userID: string
  - expected: int64

Returns:
  - int64: New counter value
  - error: ErrVersionConflict, ErrUserNotFound or persistence failures
*/
func (repository *CachedUserRepository) AdvanceRefreshVersion(context context.Context, userID string, expected int64) (int64, error) {
	next, err := repository.UserRepository.AdvanceRefreshVersion(context, userID, expected)
	if err != nil {
		return 0, err
	}

	if err := repository.Invalidate(context, userID); err != nil {
		ctxutil.GetLogger(context).WarnContext(context, "user_cache_invalidate_failed",
			slog.String("user_id", userID), slog.Any("error", err))
	}
	return next, nil
}

// Invalidate removes the cached entry for userID.
func (repository *CachedUserRepository) Invalidate(context context.Context, userID string) error {
	if err := repository.client.Del(context, userKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis_user_cache_del_failed: %w", err)
	}
	return nil
}

// UserExists reports whether a record with userID exists. It bypasses the
// cache so a deleted account stops authenticating on its next request; a
// missing record also drops any stale cache entry.
func (repository *CachedUserRepository) UserExists(context context.Context, userID string) (bool, error) {
	_, err := repository.UserRepository.FindByID(context, userID)
	if errors.Is(err, ErrUserNotFound) {
		if err := repository.Invalidate(context, userID); err != nil {
			ctxutil.GetLogger(context).WarnContext(context, "user_cache_invalidate_failed",
				slog.String("user_id", userID), slog.Any("error", err))
		}
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func newCachedUser(user *User) cachedUser {
	return cachedUser{
		ID:                  user.ID,
		Email:               user.Email,
		DisplayName:         user.DisplayName,
		Role:                string(user.Role),
		TenantID:            user.TenantID,
		RefreshTokenVersion: user.RefreshTokenVersion,
		CreatedAt:           user.CreatedAt,
		UpdatedAt:           user.UpdatedAt,
	}
}

func (entry cachedUser) user() *User {
	return &User{
		ID:                  entry.ID,
		Email:               entry.Email,
		DisplayName:         entry.DisplayName,
		Role:                sec.Role(entry.Role),
		TenantID:            entry.TenantID,
		RefreshTokenVersion: entry.RefreshTokenVersion,
		CreatedAt:           entry.CreatedAt,
		UpdatedAt:           entry.UpdatedAt,
	}
}
