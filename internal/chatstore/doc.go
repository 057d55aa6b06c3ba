// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chatstore provides the versioned, scope-partitioned registry of chat
// session metadata for deepscan.
//
// Records are partitioned by scope (the owning user id, or "guest"), ids are
// allocated from a monotonic counter that survives restarts, and the whole
// registry lives under a single key in the kvstore substrate. Loading runs a
// one-shot schema migration: legacy blobs are upgraded, missing fields are
// defaulted, and the id counter self-heals against stale or tampered data.
//
// # Key Types
//
//   - ChatRecord: one conversation's metadata (title, model, pinned, tag)
//   - StoreState: the persisted root (version, nextId, chatsByScope)
//   - Store: the public API (ListChats, CreateChat, UpdateChat, DeleteChat,
//     SearchChats, bulk operations)
//
// # Ordering
//
// ListChats ordering is part of the contract: pinned records first, then
// descending UpdatedAt, then descending ID. The sidebar's "today / 7 days /
// 30 days / older" grouping depends on it.
package chatstore
