// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package knowledge stores user-imported reference documents for the
// retrieval feature.
//
// Documents live under their own key in the kvstore substrate, fully
// independent of the chat registry: corrupting one store never affects the
// other. Re-importing a document with the same id replaces it (upsert).
//
// # Key Types
//
//   - Document: one imported file (name, content, detected language)
//   - Store: LoadAll / UpsertMany / Remove
//   - InboxWatcher: auto-imports files dropped into a watched directory
//
// # Search
//
// Search is a lightweight keyword scorer: query tokens (stopwords filtered
// out) are matched against document content, scored by count and token
// length, and returned with a snippet around the first hit.
package knowledge
