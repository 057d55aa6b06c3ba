// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package msgstore persists per-chat message shards.
//
// Each chat's messages live under their own key, derived from the chat id,
// so the metadata registry stays small no matter how long conversations get.
// Messages are opaque to this package: they are stored and returned verbatim
// as raw JSON array elements. The only structural assumption lives in the
// text-extraction helpers used for search and title generation.
//
// # Draft Sessions
//
// A chat that has not yet been assigned a persisted id is keyed by a
// temporary draft token. PromoteDraft re-keys the shard once the id is known,
// writing the new key before deleting the old one so an interruption can
// duplicate messages but never lose them.
package msgstore
