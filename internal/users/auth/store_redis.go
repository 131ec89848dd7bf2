// Copyright (c) 2026 Harvest. All rights reserved.
// Author: engineering@harvest.app

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/harvestapp/harvest/internal/platform/constants"
)

// RedisRevocationList implements RevocationList using Redis.
//
// Each revoked jti lives under its own key with a TTL equal to the token's
// remaining validity, so the list never grows beyond the active token window.
type RedisRevocationList struct {
	client *redis.Client
}

// NewRevocationList creates a new Redis-backed RevocationList.
func NewRevocationList(client *redis.Client) *RedisRevocationList {
	return &RedisRevocationList{client: client}
}

/*
Revoke marks a refresh token's jti as spent for the remaining token lifetime.

Parameters:
  - context: context.Context
  - jti: string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (list *RedisRevocationList) Revoke(context context.Context, jti string, ttl time.Duration) error {

	// A non-positive TTL means the token is already past expiry; nothing to track.
	if ttl <= 0 {
		return nil
	}

	key := constants.RedisPrefixRevokedJTI + jti

	if err := list.client.Set(context, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis_revocation_set_failed: %w", err)
	}

	return nil
}

/*
IsRevoked reports whether the jti was already rotated out.

Parameters:
  - context: context.Context
  - jti: string

Returns:
  - bool: true when the refresh token must be refused
  - error: Lookup failures
*/
func (list *RedisRevocationList) IsRevoked(context context.Context, jti string) (bool, error) {
	key := constants.RedisPrefixRevokedJTI + jti

	count, err := list.client.Exists(context, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis_revocation_lookup_failed: %w", err)
	}

	return count > 0, nil
}
