// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/tenantgate/internal/platform/sec"
	"github.com/taibuivan/tenantgate/internal/users/auth"
)

// countingRepository records how often lookups reach the backing store.
type countingRepository struct {
	*auth.MemoryUserRepository
	findByID atomic.Int32
}

func (repository *countingRepository) FindByID(ctx context.Context, id string) (*auth.User, error) {
	repository.findByID.Add(1)
	return repository.MemoryUserRepository.FindByID(ctx, id)
}

// removableRepository lets a test delete a record behind the cache.
type removableRepository struct {
	*auth.MemoryUserRepository
	mu      sync.Mutex
	removed map[string]bool
}

func (repository *removableRepository) remove(id string) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.removed[id] = true
}

func (repository *removableRepository) FindByID(ctx context.Context, id string) (*auth.User, error) {
	repository.mu.Lock()
	gone := repository.removed[id]
	repository.mu.Unlock()
	if gone {
		return nil, auth.ErrUserNotFound
	}
	return repository.MemoryUserRepository.FindByID(ctx, id)
}

func seedUser(t *testing.T, repository auth.UserRepository, id, email string) {
	t.Helper()
	require.NoError(t, repository.Create(context.Background(), &auth.User{
		ID:           id,
		Email:        email,
		PasswordHash: "hash",
		DisplayName:  "Seed",
		Role:         sec.RoleUser,
	}))
}

/*
TestMemoryUserRepository verifies uniqueness and the compare-and-swap.
*/
func TestMemoryUserRepository(t *testing.T) {
	ctx := context.Background()
	repository := auth.NewMemoryUserRepository()
	seedUser(t, repository, "u-1", "Alice@Example.com")

	err := repository.Create(ctx, &auth.User{ID: "u-2", Email: "alice@example.com"})
	assert.ErrorIs(t, err, auth.ErrEmailTaken)

	found, err := repository.FindByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", found.ID)

	next, err := repository.AdvanceRefreshVersion(ctx, "u-1", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), next)

	_, err = repository.AdvanceRefreshVersion(ctx, "u-1", 0)
	assert.ErrorIs(t, err, auth.ErrVersionConflict)

	_, err = repository.AdvanceRefreshVersion(ctx, "missing", 0)
	assert.ErrorIs(t, err, auth.ErrUserNotFound)

	_, err = repository.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func newCachedRepository(t *testing.T, ttl time.Duration) (*auth.CachedUserRepository, *countingRepository, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	backing := &countingRepository{MemoryUserRepository: auth.NewMemoryUserRepository()}
	return auth.NewCachedUserRepository(backing, client, ttl), backing, server
}

/*
TestCachedUserRepository_ReadThrough verifies caching, expiry and eviction on rotation.
*/
func TestCachedUserRepository_ReadThrough(t *testing.T) {
	ctx := context.Background()
	cached, backing, server := newCachedRepository(t, 30*time.Second)
	seedUser(t, cached, "u-1", "alice@example.com")

	first, err := cached.FindByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), backing.findByID.Load())
	assert.True(t, server.Exists("auth:user:u-1"))

	second, err := cached.FindByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), backing.findByID.Load())
	assert.Equal(t, first.Email, second.Email)
	assert.Equal(t, sec.RoleUser, second.Role)

	// Rotation evicts, so the next read sees the new counter.
	next, err := cached.AdvanceRefreshVersion(ctx, "u-1", 0)
	require.NoError(t, err)
	assert.False(t, server.Exists("auth:user:u-1"))

	third, err := cached.FindByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, next, third.RefreshTokenVersion)
	assert.Equal(t, int32(2), backing.findByID.Load())

	server.FastForward(31 * time.Second)
	_, err = cached.FindByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, int32(3), backing.findByID.Load())
}

/*
TestCachedUserRepository_UserExists verifies the authenticator lookup.
*/
func TestCachedUserRepository_UserExists(t *testing.T) {
	ctx := context.Background()
	cached, _, _ := newCachedRepository(t, time.Minute)
	seedUser(t, cached, "u-1", "alice@example.com")

	exists, err := cached.UserExists(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = cached.UserExists(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, exists)
}

/*
TestCachedUserRepository_UserExists_Deleted verifies that a deleted record stops
existing immediately, even while a cached entry is still live.
*/
func TestCachedUserRepository_UserExists_Deleted(t *testing.T) {
	ctx := context.Background()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	backing := &removableRepository{MemoryUserRepository: auth.NewMemoryUserRepository(), removed: map[string]bool{}}
	cached := auth.NewCachedUserRepository(backing, client, 30*time.Second)
	seedUser(t, cached, "u-1", "alice@example.com")

	// Warm the cache.
	_, err := cached.FindByID(ctx, "u-1")
	require.NoError(t, err)
	require.True(t, server.Exists("auth:user:u-1"))

	exists, err := cached.UserExists(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, exists)

	backing.remove("u-1")

	exists, err = cached.UserExists(ctx, "u-1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.False(t, server.Exists("auth:user:u-1"))
}

/*
TestCachedUserRepository_OmitsPasswordHash verifies the credential hash never reaches Redis.
*/
func TestCachedUserRepository_OmitsPasswordHash(t *testing.T) {
	ctx := context.Background()
	cached, _, server := newCachedRepository(t, time.Minute)
	seedUser(t, cached, "u-1", "alice@example.com")

	_, err := cached.FindByID(ctx, "u-1")
	require.NoError(t, err)

	payload, err := server.Get("auth:user:u-1")
	require.NoError(t, err)
	assert.NotContains(t, payload, "hash")
	assert.Contains(t, payload, "alice@example.com")

	hit, err := cached.FindByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, hit.PasswordHash)
	assert.Equal(t, "alice@example.com", hit.Email)
}

/*
TestCachedUserRepository_Degraded verifies that a Redis outage falls back to the store.
*/
func TestCachedUserRepository_Degraded(t *testing.T) {
	ctx := context.Background()
	cached, backing, server := newCachedRepository(t, time.Minute)
	seedUser(t, cached, "u-1", "alice@example.com")

	server.Close()

	user, err := cached.FindByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, int32(1), backing.findByID.Load())
}
