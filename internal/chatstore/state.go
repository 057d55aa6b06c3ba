// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatstore

import "encoding/json"

// =============================================================================
// PERSISTED STATE & MIGRATION
// =============================================================================

// StoreVersion is the current schema version of the persisted registry.
const StoreVersion = 2

// Storage keys. The v1 key predates tag support and the scopeId field name;
// a blob found under it is migrated to the v2 key once and then removed.
const (
	storeKey       = "deepscan:chat-store:v2"
	legacyStoreKey = "deepscan:chat-store:v1"
)

// StoreState is the persisted root structure. Invariant: NextID is strictly
// greater than every record id anywhere in ChatsByScope.
type StoreState struct {
	Version      int                     `json:"version"`
	NextID       int64                   `json:"nextId"`
	ChatsByScope map[string][]ChatRecord `json:"chatsByScope"`
}

func defaultState() StoreState {
	return StoreState{
		Version:      StoreVersion,
		NextID:       1,
		ChatsByScope: map[string][]ChatRecord{},
	}
}

// rawState mirrors StoreState with every field optional, so blobs written by
// older schema versions (or tampered ones) parse without loss. The v1 schema
// named the counter nextChatId.
type rawState struct {
	Version      *int                   `json:"version"`
	NextID       *int64                 `json:"nextId"`
	LegacyNextID *int64                 `json:"nextChatId"`
	ChatsByScope map[string][]rawRecord `json:"chatsByScope"`
}

// rawRecord mirrors ChatRecord with optional fields. The v1 schema named the
// scope field userId.
type rawRecord struct {
	ID          *int64  `json:"id"`
	ScopeID     *string `json:"scopeId"`
	LegacyScope *string `json:"userId"`
	Title       *string `json:"title"`
	Model       *string `json:"model"`
	Pinned      *bool   `json:"pinned"`
	TagID       *string `json:"tagId"`
	CreatedAt   *int64  `json:"createdAt"`
	UpdatedAt   *int64  `json:"updatedAt"`
}

// normalizeState migrates a raw persisted blob to a clean current-version
// state. It is a pure function: no clock, no storage. The changed result
// reports whether the clean state differs from what was stored, so the caller
// knows to re-persist it (making the migration one-shot and idempotent).
//
// Rules, in order:
//  1. Absent blob: empty default state, nothing to persist.
//  2. Unparseable blob: empty default state, persisted so the corrupt bytes
//     are replaced by a clean default.
//  3. Every record gets absent/invalid fields normalized (pinned false,
//     unknown tag dropped, updatedAt backfilled from createdAt, unknown model
//     coerced) and every scope list re-sorted.
//  4. NextID is recomputed as max(stored, 1+max(all record ids)).
func normalizeState(raw []byte, now int64) (StoreState, bool) {
	state := defaultState()
	if len(raw) == 0 {
		return state, false
	}

	var parsed rawState
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return state, true
	}

	changed := parsed.Version == nil || *parsed.Version != StoreVersion

	storedNextID := int64(0)
	switch {
	case parsed.NextID != nil && *parsed.NextID > 0:
		storedNextID = *parsed.NextID
	case parsed.LegacyNextID != nil && *parsed.LegacyNextID > 0:
		storedNextID = *parsed.LegacyNextID
		changed = true
	default:
		changed = true
	}

	maxID := int64(0)
	for scope, rawChats := range parsed.ChatsByScope {
		records := make([]ChatRecord, 0, len(rawChats))
		for i, rc := range rawChats {
			record, recChanged := normalizeRecord(rc, scope, int64(i+1), now)
			if recChanged {
				changed = true
			}
			if record.ID > maxID {
				maxID = record.ID
			}
			records = append(records, record)
		}
		sorted := SortRecords(records)
		if !sameOrder(records, sorted) {
			changed = true
		}
		state.ChatsByScope[scope] = sorted
	}

	// Self-heal the counter against stale or tampered values: it must clear
	// every id present in the structure.
	nextID := storedNextID
	if nextID < 1 {
		nextID = 1
	}
	if maxID+1 > nextID {
		nextID = maxID + 1
	}
	if nextID != storedNextID {
		changed = true
	}
	state.NextID = nextID

	return state, changed
}

// normalizeRecord fills absent or invalid fields with their defined defaults.
// fallbackID mirrors the record's position so a record missing its id still
// gets a distinct one within the scope; the counter recompute above then
// guarantees global uniqueness going forward.
func normalizeRecord(rc rawRecord, scope string, fallbackID int64, now int64) (ChatRecord, bool) {
	changed := false

	record := ChatRecord{ScopeID: scope}

	if rc.ID != nil && *rc.ID > 0 {
		record.ID = *rc.ID
	} else {
		record.ID = fallbackID
		changed = true
	}

	if rc.ScopeID == nil || *rc.ScopeID != scope {
		changed = true
	}
	if rc.LegacyScope != nil {
		changed = true
	}

	if rc.Title != nil && *rc.Title != "" {
		record.Title = *rc.Title
	} else {
		record.Title = DefaultTitle
		changed = true
	}

	if rc.Model != nil {
		record.Model = NormalizeModel(*rc.Model)
		if record.Model != *rc.Model {
			changed = true
		}
	} else {
		record.Model = DefaultModel
		changed = true
	}

	if rc.Pinned != nil {
		record.Pinned = *rc.Pinned
	} else {
		changed = true
	}

	if rc.TagID != nil {
		record.TagID = NormalizeTagID(*rc.TagID)
		if record.TagID != *rc.TagID {
			changed = true
		}
	}

	if rc.CreatedAt != nil && *rc.CreatedAt > 0 {
		record.CreatedAt = *rc.CreatedAt
	} else {
		record.CreatedAt = now
		changed = true
	}

	if rc.UpdatedAt != nil && *rc.UpdatedAt >= record.CreatedAt {
		record.UpdatedAt = *rc.UpdatedAt
	} else {
		// Absent or older than createdAt: backfill so updatedAt >= createdAt
		// holds for every stored record.
		record.UpdatedAt = record.CreatedAt
		changed = true
	}

	return record, changed
}

func sameOrder(a, b []ChatRecord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
