// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package access

import (
	"context"
	"sync"
)

// MemoryKeyStore is an in-process KeyStore, used in tests and for local runs.
type MemoryKeyStore struct {
	mu   sync.RWMutex
	keys map[string]bool
}

func NewMemoryKeyStore(keys ...string) *MemoryKeyStore {
	m := &MemoryKeyStore{keys: make(map[string]bool, len(keys))}
	for _, k := range keys {
		m.keys[k] = true
	}
	return m
}

func (m *MemoryKeyStore) ValidateKey(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.keys[key], nil
}

func (m *MemoryKeyStore) RememberKey(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = true
	return nil
}
