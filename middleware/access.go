// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package middleware

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/VA7DBI/albumAPI/access"
	"github.com/VA7DBI/albumAPI/config"
	"github.com/VA7DBI/albumAPI/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// APIKeyHeader carries the caller's access key.
const APIKeyHeader = "X-API-Key"

type storeConstructor func(*config.Config) (access.KeyStore, error)

// AccessMiddleware rejects callers that do not present a known access key.
type AccessMiddleware struct {
	cfg        *config.Config
	log        *zap.SugaredLogger
	redisStore access.KeyStore
	pgStore    access.KeyStore

	redisConstructor    storeConstructor
	postgresConstructor storeConstructor
}

// NewAccessMiddleware creates the middleware and connects the enabled stores.
func NewAccessMiddleware(cfg *config.Config, log *zap.SugaredLogger) (*AccessMiddleware, error) {
	m := &AccessMiddleware{
		cfg: cfg,
		log: log,
		redisConstructor: func(cfg *config.Config) (access.KeyStore, error) {
			return access.NewRedisKeyStore(cfg)
		},
		postgresConstructor: func(cfg *config.Config) (access.KeyStore, error) {
			return access.NewPostgresKeyStore(cfg)
		},
	}
	return m, m.initialize()
}

func (m *AccessMiddleware) initialize() error {
	if !m.cfg.Access.Enabled {
		m.redisStore = nil
		m.pgStore = nil
		return nil
	}

	if m.cfg.Access.Redis.Enabled {
		store, err := m.redisConstructor(m.cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis store: %w", err)
		}
		m.redisStore = store
	}

	if m.cfg.Access.Postgres.Enabled {
		store, err := m.postgresConstructor(m.cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		m.pgStore = store
	}

	return nil
}

// Close releases the store connections.
func (m *AccessMiddleware) Close() error {
	var errs []error
	for _, store := range []access.KeyStore{m.redisStore, m.pgStore} {
		if closer, ok := store.(io.Closer); ok {
			errs = append(errs, closer.Close())
		}
	}
	return errors.Join(errs...)
}

// Handler returns the gin middleware handler function
func (m *AccessMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.cfg.Access.Enabled || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		key := extractKey(c)
		if key == "" {
			metrics.AccessDenied.WithLabelValues("missing").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API key required"})
			return
		}

		if m.valid(c, key) {
			c.Next()
			return
		}

		metrics.AccessDenied.WithLabelValues("invalid").Inc()
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
	}
}

func (m *AccessMiddleware) valid(c *gin.Context, key string) bool {
	ctx := c.Request.Context()

	if m.redisStore != nil {
		ok, err := m.redisStore.ValidateKey(ctx, key)
		if err != nil {
			m.log.Warnw("redis key lookup failed", "error", err)
		}
		if ok {
			return true
		}
	}

	found := false
	if m.pgStore != nil {
		ok, err := m.pgStore.ValidateKey(ctx, key)
		if err != nil {
			m.log.Warnw("postgres key lookup failed", "error", err)
		}
		found = ok
	}
	if !found {
		for _, k := range m.cfg.Access.Keys {
			if key == k {
				found = true
				break
			}
		}
	}

	if found && m.redisStore != nil {
		if err := m.redisStore.RememberKey(ctx, key); err != nil {
			m.log.Debugw("could not remember key in redis", "error", err)
		}
	}
	return found
}

func extractKey(c *gin.Context) string {
	if key := c.GetHeader(APIKeyHeader); key != "" {
		return key
	}
	return c.Query("key")
}
