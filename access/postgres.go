// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package access

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/VA7DBI/albumAPI/config"
	_ "github.com/lib/pq"
)

// DefaultKeyQuery is used when access.postgres.query is empty.
const DefaultKeyQuery = "SELECT EXISTS(SELECT 1 FROM api_keys WHERE key = $1 AND revoked_at IS NULL)"

// PostgresKeyStore looks keys up with a single parameterized query.
type PostgresKeyStore struct {
	db    *sql.DB
	query string
}

func NewPostgresKeyStore(cfg *config.Config) (*PostgresKeyStore, error) {
	pg := cfg.Access.Postgres
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("postgres connection failed: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return newPostgresKeyStore(db, pg.Query), nil
}

func newPostgresKeyStore(db *sql.DB, query string) *PostgresKeyStore {
	if query == "" {
		query = DefaultKeyQuery
	}
	return &PostgresKeyStore{db: db, query: query}
}

func (s *PostgresKeyStore) ValidateKey(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, s.query, key).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return exists, nil
}

// RememberKey is a no-op; postgres is the source of truth.
func (s *PostgresKeyStore) RememberKey(context.Context, string) error {
	return nil
}

func (s *PostgresKeyStore) Close() error {
	return s.db.Close()
}
