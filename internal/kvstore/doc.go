// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package kvstore provides the persistent key-value substrate every deepscan
// store reads and writes through.
//
// The browser build of deepscan keeps its data in per-origin storage with
// atomic per-key set/get semantics. This package reproduces that contract on
// top of a local SQLite database: one kv table, one writer connection, every
// key written in a single statement.
//
// # Key Types
//
//   - KV: the read/write/remove contract consumed by the stores
//   - Store: SQLite-backed implementation
//   - Memory: in-memory implementation for tests and degraded operation
//
// # Error Handling
//
// A substrate failure (disk full, database locked away, file removed) is
// reported as ErrStorageUnavailable. Callers are expected to degrade to an
// empty default rather than crash; an absent key is (nil, nil), never an
// error.
package kvstore
