// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package catalog

// StripKey removes key from every object nested anywhere in v. Objects and
// arrays are rebuilt; scalars are returned unchanged, so v is never modified.
func StripKey(v any, key string) any {
	switch node := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(node))
		for k, child := range node {
			if k == key {
				continue
			}
			out[k] = StripKey(child, key)
		}
		return out
	case []any:
		out := make([]any, len(node))
		for i, child := range node {
			out[i] = StripKey(child, key)
		}
		return out
	default:
		return v
	}
}
