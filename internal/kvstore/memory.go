// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kvstore

import (
	"strings"
	"sync"
)

// =============================================================================
// IN-MEMORY STORE
// =============================================================================

// Memory is an in-memory KV implementation. It backs tests and serves as the
// degraded fallback when the on-disk store cannot be opened: the app keeps
// working for the session, it just loses persistence.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte

	// FailWrites makes every Write/Remove return ErrStorageUnavailable.
	// Tests use it to simulate quota-exceeded storage.
	FailWrites bool
}

var _ KV = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Read returns the value stored under key, or nil if the key is absent.
func (m *Memory) Read(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Write stores value under key.
func (m *Memory) Write(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return ErrStorageUnavailable
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[key] = stored
	return nil
}

// Remove deletes key.
func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return ErrStorageUnavailable
	}
	delete(m.data, key)
	return nil
}

// Keys returns all keys with the given prefix.
func (m *Memory) Keys(prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}
