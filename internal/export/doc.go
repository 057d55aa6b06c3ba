// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export serializes a scope's chats and message shards into a
// portable snapshot, and restores such snapshots with merge or replace
// semantics.
//
// # Payload Format
//
// A snapshot is a single JSON document:
//
//	{
//	  "kind": "deepscan-chat-export",
//	  "version": 1,
//	  "scope": "...",
//	  "exportedAt": <epoch-ms>,
//	  "chats": [ ... ],
//	  "messagesByChatId": { "<oldChatId>": [ ... ], ... }
//	}
//
// messagesByChatId is sparse: chats without messages are omitted.
//
// # Import Semantics
//
// Every imported chat receives a fresh id from the destination registry;
// shards are re-keyed through the old-id to new-id map built during the
// import. Merge mode adds to the destination scope, replace mode wipes it
// first. A payload failing structural validation is rejected before any
// mutation.
package export
