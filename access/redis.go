// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package access

import (
	"context"
	"fmt"
	"time"

	"github.com/VA7DBI/albumAPI/config"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "albumapi:key:"

// RedisKeyStore remembers keys that were validated by a slower store.
type RedisKeyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisKeyStore(cfg *config.Config) (*RedisKeyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Access.Redis.Host, cfg.Access.Redis.Port),
		Password: cfg.Access.Redis.Password,
		DB:       cfg.Access.Redis.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisKeyStore{
		client: client,
		ttl:    time.Duration(cfg.Access.Redis.KeyTTL) * time.Second,
	}, nil
}

func (s *RedisKeyStore) ValidateKey(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *RedisKeyStore) RememberKey(ctx context.Context, key string) error {
	return s.client.Set(ctx, redisKeyPrefix+key, "1", s.ttl).Err()
}

func (s *RedisKeyStore) Close() error {
	return s.client.Close()
}
