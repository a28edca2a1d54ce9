// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package access

import (
	"context"
	"testing"
	"time"

	"github.com/VA7DBI/albumAPI/config"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
)

func setupRedisTest(t *testing.T) (*RedisKeyStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{}
	cfg.Access.Redis.Host = mr.Host()
	cfg.Access.Redis.Port = mr.Server().Addr().Port
	cfg.Access.Redis.KeyTTL = 1 // 1 second TTL for testing

	store, err := NewRedisKeyStore(cfg)
	assert.NoError(t, err)

	return store, mr
}

func TestRedisKeyStore(t *testing.T) {
	store, mr := setupRedisTest(t)
	defer mr.Close()
	defer store.Close()
	ctx := context.Background()

	t.Run("ValidateUnknownKey", func(t *testing.T) {
		valid, err := store.ValidateKey(ctx, "unknown")
		assert.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("RememberAndValidateKey", func(t *testing.T) {
		err := store.RememberKey(ctx, "test-key")
		assert.NoError(t, err)

		valid, err := store.ValidateKey(ctx, "test-key")
		assert.NoError(t, err)
		assert.True(t, valid)
		assert.True(t, mr.Exists(redisKeyPrefix+"test-key"))
	})

	t.Run("KeyExpiration", func(t *testing.T) {
		err := store.RememberKey(ctx, "expiring-key")
		assert.NoError(t, err)

		mr.FastForward(2 * time.Second)

		valid, err := store.ValidateKey(ctx, "expiring-key")
		assert.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("ServerDown", func(t *testing.T) {
		mr.Close()
		_, err := store.ValidateKey(ctx, "test-key")
		assert.Error(t, err)
	})
}

func TestRedisKeyStoreConnectFailure(t *testing.T) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	cfg := &config.Config{}
	cfg.Access.Redis.Host = mr.Host()
	cfg.Access.Redis.Port = mr.Server().Addr().Port
	mr.Close()

	_, err = NewRedisKeyStore(cfg)
	assert.Error(t, err)
}
