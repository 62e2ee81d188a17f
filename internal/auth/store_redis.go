// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/aegis/internal/platform/constants"
)

// # Login Throttle Repository

// RedisThrottleRepository implements ThrottleRepository using Redis.
//
// Counters live under a per-email key that expires after LoginAttemptWindow,
// so an idle account unlocks itself without any cleanup job.
type RedisThrottleRepository struct {
	client *redis.Client
}

// NewThrottleRepository creates a new Redis-backed ThrottleRepository.
func NewThrottleRepository(client *redis.Client) *RedisThrottleRepository {
	return &RedisThrottleRepository{client: client}
}

// throttleKey normalizes the email so "A@x.com" and "a@x.com" share a counter.
func throttleKey(email string) string {
	return constants.RedisPrefixLoginAttempts + strings.ToLower(strings.TrimSpace(email))
}

/*
Hit records a failed attempt and returns the running count.

Description: INCR plus a window-long TTL on first hit. Subsequent hits reuse
the existing expiry so the window does not slide forward on every failure.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - int64: Attempt count including this hit
  - error: Execution errors
*/
func (repository *RedisThrottleRepository) Hit(context context.Context, email string) (int64, error) {
	key := throttleKey(email)

	count, err := repository.client.Incr(context, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis_throttle_hit_failed: %w", err)
	}

	// First failure in the window starts the clock.
	if count == 1 {
		if err := repository.client.Expire(context, key, LoginAttemptWindow).Err(); err != nil {
			return count, fmt.Errorf("redis_throttle_expire_failed: %w", err)
		}
	}

	return count, nil
}

/*
Reset clears the attempt counter after a successful login.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - error: Deletion failures
*/
func (repository *RedisThrottleRepository) Reset(context context.Context, email string) error {
	if err := repository.client.Del(context, throttleKey(email)).Err(); err != nil {
		return fmt.Errorf("redis_throttle_reset_failed: %w", err)
	}
	return nil
}
