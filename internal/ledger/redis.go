// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ledger

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// processedSetKey namespaces the ledger set in Redis.
const processedSetKey = "nefwatch:processed"

// RedisLedger stores committed ids in a Redis SET. Unlike an event dedup
// window, ledger membership never expires: a processed message must stay
// processed for the lifetime of the mailbox. The Redis instance must be
// configured for durable persistence (AOF).
type RedisLedger struct {
	rdb *redis.Client
}

// OpenRedis connects to Redis and verifies the connection.
func OpenRedis(ctx context.Context, redisURL string) (*RedisLedger, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis ledger URL not configured")
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to Redis: %w", err)
	}

	return &RedisLedger{rdb: rdb}, nil
}

// IsProcessed reports set membership for id.
func (l *RedisLedger) IsProcessed(ctx context.Context, id string) (bool, error) {
	member, err := l.rdb.SIsMember(ctx, processedSetKey, id).Result()
	if err != nil {
		return false, fmt.Errorf("ledger SISMEMBER: %w", err)
	}
	return member, nil
}

// Commit adds id to the set. SADD on an existing member is a no-op.
func (l *RedisLedger) Commit(ctx context.Context, id string) error {
	if err := l.rdb.SAdd(ctx, processedSetKey, id).Err(); err != nil {
		return fmt.Errorf("ledger SADD: %w", err)
	}
	return nil
}

// Close releases the Redis client.
func (l *RedisLedger) Close() error {
	return l.rdb.Close()
}
