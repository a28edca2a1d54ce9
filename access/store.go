// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

// Package access holds the stores consulted when the proxy requires callers
// to present an access key. The stores only ever see inbound client keys,
// never the catalog credential.
package access

import "context"

// KeyStore defines the basic access key operations
type KeyStore interface {
	ValidateKey(ctx context.Context, key string) (bool, error)
	RememberKey(ctx context.Context, key string) error
}
