// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the deepscan store packages.
//
// # Key Functions
//
//   - AtomicWriteFile: crash-safe file writes (write temp, fsync, rename)
//   - TruncateRunes: UTF-8 safe truncation for titles and previews
//   - CollapseWhitespace: single-line normalization for display strings
package util
