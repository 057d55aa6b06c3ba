// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatstore

import "sort"

// =============================================================================
// MODELS
// =============================================================================

// Supported model identifiers. Unknown values are coerced to DefaultModel.
const (
	ModelDeepSeekV3 = "deepseek-v3"
	ModelDeepSeekR1 = "deepseek-r1"
)

// DefaultModel is the model assigned when a record carries an unknown one.
const DefaultModel = ModelDeepSeekV3

// DefaultTitle is the placeholder used when a created chat's title trims to
// empty.
const DefaultTitle = "New conversation"

// GuestScope is the scope for unauthenticated users.
const GuestScope = "guest"

// NormalizeModel coerces unknown model identifiers to DefaultModel.
func NormalizeModel(model string) string {
	switch model {
	case ModelDeepSeekV3, ModelDeepSeekR1:
		return model
	default:
		return DefaultModel
	}
}

// ScopeForUser derives the storage scope from an auth-provided user id.
// Empty means unauthenticated and maps to GuestScope.
func ScopeForUser(userID string) string {
	if userID == "" {
		return GuestScope
	}
	return userID
}

// =============================================================================
// CHAT RECORD
// =============================================================================

// ChatRecord is one conversation's metadata. Message payloads are stored
// separately (see msgstore) so large conversations do not inflate the
// registry.
type ChatRecord struct {
	ID      int64  `json:"id"`
	ScopeID string `json:"scopeId"`
	Title   string `json:"title"`
	Model   string `json:"model"`
	Pinned  bool   `json:"pinned"`
	// TagID references the fixed tag catalog; empty means untagged.
	TagID     string `json:"tagId,omitempty"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// SortRecords returns a sorted copy: pinned first, then descending UpdatedAt,
// then descending ID as the final tiebreak. Stable under shuffled input.
func SortRecords(records []ChatRecord) []ChatRecord {
	out := make([]ChatRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pinned != out[j].Pinned {
			return out[i].Pinned
		}
		if out[i].UpdatedAt != out[j].UpdatedAt {
			return out[i].UpdatedAt > out[j].UpdatedAt
		}
		return out[i].ID > out[j].ID
	})
	return out
}
