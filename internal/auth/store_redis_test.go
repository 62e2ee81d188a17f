// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newThrottleFixture spins up an in-process Redis and a repository bound to it.
func newThrottleFixture(t *testing.T) (*miniredis.Miniredis, *RedisThrottleRepository) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return server, NewThrottleRepository(client)
}

func TestThrottleRepository_HitCountsPerEmail(t *testing.T) {
	_, repository := newThrottleFixture(t)
	ctx := context.Background()

	for expected := int64(1); expected <= 3; expected++ {
		count, err := repository.Hit(ctx, "user@example.com")
		require.NoError(t, err)
		assert.Equal(t, expected, count)
	}

	// A different email keeps its own counter.
	count, err := repository.Hit(ctx, "other@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestThrottleRepository_EmailNormalization(t *testing.T) {
	_, repository := newThrottleFixture(t)
	ctx := context.Background()

	_, err := repository.Hit(ctx, "User@Example.com")
	require.NoError(t, err)

	count, err := repository.Hit(ctx, "  user@example.com ")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestThrottleRepository_WindowExpiry(t *testing.T) {
	server, repository := newThrottleFixture(t)
	ctx := context.Background()

	_, err := repository.Hit(ctx, "user@example.com")
	require.NoError(t, err)

	// Once the window elapses the counter restarts from scratch.
	server.FastForward(LoginAttemptWindow)

	count, err := repository.Hit(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestThrottleRepository_ResetClearsCounter(t *testing.T) {
	_, repository := newThrottleFixture(t)
	ctx := context.Background()

	_, err := repository.Hit(ctx, "user@example.com")
	require.NoError(t, err)
	_, err = repository.Hit(ctx, "user@example.com")
	require.NoError(t, err)

	require.NoError(t, repository.Reset(ctx, "user@example.com"))

	count, err := repository.Hit(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
